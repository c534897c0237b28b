package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/charlesoneill4277/gladiator-league/internal/usecase"
)

func (h *Handler) GetPlayerStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerStatus")
	defer span.End()

	playerID := strings.TrimSpace(r.PathValue("playerID"))
	if playerID == "" {
		writeError(ctx, w, fmt.Errorf("%w: player id is required", usecase.ErrInvalidInput))
		return
	}

	scope, err := h.resolveScopeFromQuery(ctx, r)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve status scope failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	status, err := h.statusService.Resolve(ctx, scope, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve player status failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerStatusToDTO(status))
}

func (h *Handler) BatchPlayerStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BatchPlayerStatus")
	defer span.End()

	var req batchStatusRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	season := strings.TrimSpace(req.Season)
	if season == "" {
		season = h.defaultSeason
	}

	scope, err := h.conferenceService.ResolveScope(ctx, season, req.ConferenceIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve batch status scope failed", "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	statuses, err := h.statusService.ResolveBatch(ctx, scope, req.PlayerIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve batch player status failed", "season", season, "players", len(req.PlayerIDs), "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerStatusDTO, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, playerStatusToDTO(status))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type batchStatusRequest struct {
	Season        string   `json:"season"`
	ConferenceIDs []int64  `json:"conferenceIds" validate:"dive,gt=0"`
	PlayerIDs     []string `json:"playerIds" validate:"required,min=1,max=200,dive,required"`
}
