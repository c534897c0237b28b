package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/charlesoneill4277/gladiator-league/internal/usecase"
)

// RunRefreshRostersJob is the QStash-invoked leg of the refresh chain:
// sweep the requested seasons, mark the dispatch completed, then enqueue
// the next run one interval out.
func (h *Handler) RunRefreshRostersJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshRostersJob")
	defer span.End()

	req, err := decodeRefreshJobRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.refreshService.RefreshAll(ctx, usecase.RefreshInput{
		Seasons: req.Seasons,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "refresh rosters job failed",
			"dispatch_id", req.DispatchID,
			"seasons", req.Seasons,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	var schedule usecase.JobScheduleResult
	if h.jobScheduler != nil {
		h.jobScheduler.MarkCompleted(ctx, req.DispatchID, req.Seasons)
		schedule, err = h.jobScheduler.ScheduleNext(ctx, req.Seasons)
		if err != nil {
			// The refresh itself succeeded; a broken queue must not fail
			// the job or QStash would retry the whole sweep.
			h.logger.ErrorContext(ctx, "schedule next refresh failed",
				"dispatch_id", req.DispatchID,
				"error", err,
			)
		}
	}

	writeSuccess(ctx, w, http.StatusOK, refreshJobResultDTO{
		Refresh:  result,
		Schedule: schedule,
	})
}

func decodeRefreshJobRequest(r *http.Request) (refreshJobRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req refreshJobRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return refreshJobRequest{}, nil
		}
		return refreshJobRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

type refreshJobRequest struct {
	Seasons    []string `json:"seasons"`
	DispatchID string   `json:"dispatch_id"`
}

type refreshJobResultDTO struct {
	Refresh  usecase.RefreshResult     `json:"refresh"`
	Schedule usecase.JobScheduleResult `json:"schedule"`
}
