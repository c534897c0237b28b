package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charlesoneill4277/gladiator-league/internal/usecase"
)

func (h *Handler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSeasons")
	defer span.End()

	seasons, err := h.conferenceService.ListSeasons(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list seasons failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seasonsDTO{
		Seasons:       seasons,
		DefaultSeason: h.defaultSeason,
	})
}

func (h *Handler) ListConferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListConferences")
	defer span.End()

	season := strings.TrimSpace(r.URL.Query().Get("season"))
	if season == "" {
		season = h.defaultSeason
	}

	conferences, err := h.conferenceService.ListConferences(ctx, season)
	if err != nil {
		h.logger.WarnContext(ctx, "list conferences failed", "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]conferenceDTO, 0, len(conferences))
	for _, conf := range conferences {
		items = append(items, conferenceToDTO(conf))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetConference(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetConference")
	defer span.End()

	conferenceID, err := parsePathConferenceID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	conf, err := h.conferenceService.GetConference(ctx, conferenceID)
	if err != nil {
		h.logger.WarnContext(ctx, "get conference failed", "conference_id", conferenceID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, conferenceToDTO(conf))
}

func (h *Handler) ListConferenceTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListConferenceTeams")
	defer span.End()

	conferenceID, err := parsePathConferenceID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	teams, err := h.conferenceService.ListTeams(ctx, conferenceID)
	if err != nil {
		h.logger.WarnContext(ctx, "list conference teams failed", "conference_id", conferenceID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, team := range teams {
		items = append(items, teamToDTO(team))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

// GetConferenceLeague proxies the live platform view of the conference's
// backing league.
func (h *Handler) GetConferenceLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetConferenceLeague")
	defer span.End()

	conferenceID, err := parsePathConferenceID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	details, err := h.conferenceService.LeagueDetails(ctx, conferenceID)
	if err != nil {
		h.logger.WarnContext(ctx, "get conference league failed", "conference_id", conferenceID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueDetailsDTO{
		LeagueID:     details.LeagueID,
		Name:         details.Name,
		Season:       details.Season,
		Status:       details.Status,
		TotalRosters: details.TotalRosters,
	})
}

func parsePathConferenceID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("conferenceID"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid conference id %q", usecase.ErrInvalidInput, raw)
	}

	return id, nil
}

type seasonsDTO struct {
	Seasons       []string `json:"seasons"`
	DefaultSeason string   `json:"defaultSeason,omitempty"`
}

type leagueDetailsDTO struct {
	LeagueID     string `json:"leagueId"`
	Name         string `json:"name"`
	Season       string `json:"season"`
	Status       string `json:"status"`
	TotalRosters int    `json:"totalRosters"`
}
