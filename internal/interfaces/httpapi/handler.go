package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
	"github.com/charlesoneill4277/gladiator-league/internal/domain/roster"
	"github.com/charlesoneill4277/gladiator-league/internal/platform/logging"
	"github.com/charlesoneill4277/gladiator-league/internal/usecase"
)

type Handler struct {
	conferenceService *usecase.ConferenceService
	statusService     *usecase.PlayerStatusService
	rosterCache       *usecase.RosterCacheService
	refreshService    *usecase.RosterRefreshService
	jobScheduler      *usecase.RosterJobScheduler
	defaultSeason     string
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	conferenceService *usecase.ConferenceService,
	statusService *usecase.PlayerStatusService,
	rosterCache *usecase.RosterCacheService,
	refreshService *usecase.RosterRefreshService,
	jobScheduler *usecase.RosterJobScheduler,
	defaultSeason string,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		conferenceService: conferenceService,
		statusService:     statusService,
		rosterCache:       rosterCache,
		refreshService:    refreshService,
		jobScheduler:      jobScheduler,
		defaultSeason:     strings.TrimSpace(defaultSeason),
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// resolveScopeFromQuery turns ?season= and ?conferences=1,2 into the
// conference set the roster layer keys on. A missing season falls back to
// the configured default.
func (h *Handler) resolveScopeFromQuery(ctx context.Context, r *http.Request) ([]conference.Conference, error) {
	season := strings.TrimSpace(r.URL.Query().Get("season"))
	if season == "" {
		season = h.defaultSeason
	}

	conferenceIDs, err := parseConferenceIDs(r.URL.Query().Get("conferences"))
	if err != nil {
		return nil, err
	}

	return h.conferenceService.ResolveScope(ctx, season, conferenceIDs)
}

func parseConferenceIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: invalid conference id %q", usecase.ErrInvalidInput, part)
		}
		out = append(out, id)
	}

	return out, nil
}

func decodeJSONBody(r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type conferenceDTO struct {
	ID       int64  `json:"id"`
	Season   string `json:"season"`
	Name     string `json:"name"`
	LeagueID string `json:"leagueId"`
}

type teamDTO struct {
	RosterID     int64  `json:"rosterId"`
	ConferenceID int64  `json:"conferenceId"`
	Name         string `json:"name"`
	OwnerID      string `json:"ownerId"`
}

type teamAssociationDTO struct {
	ConferenceID int64  `json:"conferenceId"`
	RosterID     int64  `json:"rosterId"`
	TeamName     string `json:"teamName"`
	OwnerID      string `json:"ownerId"`
	RosterSlot   string `json:"rosterSlot"`
}

type playerStatusDTO struct {
	PlayerID    string               `json:"playerId"`
	IsRostered  bool                 `json:"isRostered"`
	Teams       []teamAssociationDTO `json:"teams"`
	PrimaryTeam *teamAssociationDTO  `json:"primaryTeam,omitempty"`
	IsMultiTeam bool                 `json:"isMultiTeam"`
	Freshness   string               `json:"freshness"`
	IsStale     bool                 `json:"isStale"`
	LastUpdated string               `json:"lastUpdated"`
}

func conferenceToDTO(v conference.Conference) conferenceDTO {
	return conferenceDTO{
		ID:       v.ID,
		Season:   v.Season,
		Name:     v.Name,
		LeagueID: v.LeagueID,
	}
}

func teamToDTO(v conference.Team) teamDTO {
	return teamDTO{
		RosterID:     v.RosterID,
		ConferenceID: v.ConferenceID,
		Name:         v.Name,
		OwnerID:      v.OwnerID,
	}
}

func associationToDTO(v roster.TeamAssociation) teamAssociationDTO {
	return teamAssociationDTO{
		ConferenceID: v.ConferenceID,
		RosterID:     v.Team.RosterID,
		TeamName:     v.Team.Name,
		OwnerID:      v.Team.OwnerID,
		RosterSlot:   v.RosterSlot,
	}
}

func playerStatusToDTO(v usecase.PlayerStatusData) playerStatusDTO {
	teams := make([]teamAssociationDTO, 0, len(v.Teams))
	for _, assoc := range v.Teams {
		teams = append(teams, associationToDTO(assoc))
	}

	out := playerStatusDTO{
		PlayerID:    v.PlayerID,
		IsRostered:  v.IsRostered,
		Teams:       teams,
		IsMultiTeam: v.IsMultiTeam,
		Freshness:   string(v.Freshness),
		IsStale:     v.IsStale,
	}
	if v.PrimaryTeam != nil {
		primary := associationToDTO(*v.PrimaryTeam)
		out.PrimaryTeam = &primary
	}
	if !v.LastUpdated.IsZero() {
		out.LastUpdated = v.LastUpdated.UTC().Format(time.RFC3339)
	}

	return out
}
