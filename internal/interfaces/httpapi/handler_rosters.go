package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/charlesoneill4277/gladiator-league/internal/usecase"
)

// RefreshRosters forces a fresh aggregation pass. An empty body sweeps
// every season in the registry.
func (h *Handler) RefreshRosters(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshRosters")
	defer span.End()

	req, err := decodeRefreshRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.refreshService.RefreshAll(ctx, usecase.RefreshInput{
		Seasons:    req.Seasons,
		MaxWorkers: req.MaxWorkers,
		Invalidate: req.Invalidate,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "refresh rosters failed", "seasons", req.Seasons, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RosterMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RosterMetrics")
	defer span.End()

	metrics := h.rosterCache.Metrics()
	cfg := h.rosterCache.Config()

	writeSuccess(ctx, w, http.StatusOK, rosterMetricsDTO{
		Cache: metrics,
		Config: rosterCacheConfigDTO{
			FreshnessLive:   cfg.Freshness.Live.String(),
			FreshnessRecent: cfg.Freshness.Recent.String(),
			StaleTolerance:  cfg.StaleTolerance.String(),
			SyncInterval:    cfg.SyncInterval.String(),
		},
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func decodeRefreshRequest(r *http.Request) (refreshRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req refreshRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return refreshRequest{}, nil
		}
		return refreshRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

type refreshRequest struct {
	Seasons    []string `json:"seasons" validate:"max=16,dive,required"`
	MaxWorkers int      `json:"maxWorkers" validate:"gte=0,lte=16"`
	Invalidate bool     `json:"invalidate"`
}

type rosterMetricsDTO struct {
	Cache       usecase.CacheMetrics `json:"cache"`
	Config      rosterCacheConfigDTO `json:"config"`
	GeneratedAt string               `json:"generated_at"`
}

type rosterCacheConfigDTO struct {
	FreshnessLive   string `json:"freshness_live"`
	FreshnessRecent string `json:"freshness_recent"`
	StaleTolerance  string `json:"stale_tolerance"`
	SyncInterval    string `json:"sync_interval"`
}
