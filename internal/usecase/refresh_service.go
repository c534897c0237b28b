package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
	"github.com/charlesoneill4277/gladiator-league/internal/platform/logging"
)

type RefreshInput struct {
	// Seasons narrows the sweep; empty means every season in the registry.
	Seasons    []string
	MaxWorkers int
	// Invalidate drops each season's cache entry before refetching so the
	// sweep never commits on top of data it was asked to replace.
	Invalidate bool
}

type RefreshResult struct {
	SeasonCount  int                 `json:"season_count"`
	SuccessCount int                 `json:"success_count"`
	FailedCount  int                 `json:"failed_count"`
	WorkerCount  int                 `json:"worker_count"`
	Tasks        []RefreshTaskResult `json:"tasks"`
}

type RefreshTaskResult struct {
	Season      string `json:"season"`
	SetKey      string `json:"set_key"`
	Conferences int    `json:"conferences"`
	Players     int    `json:"players"`
	Status      string `json:"status"`
	DurationMs  int64  `json:"duration_ms"`
	Message     string `json:"message,omitempty"`
}

const (
	refreshStatusSuccess = "success"
	refreshStatusFailed  = "failed"
)

type refreshCache interface {
	Refresh(ctx context.Context, conferences []conference.Conference) (RosterSnapshot, error)
	Invalidate(conferences []conference.Conference)
}

// RosterRefreshService sweeps the registry's seasons and forces a fresh
// aggregation pass for each season's conference set. Used by the scheduled
// job endpoint and by explicit operator refresh requests.
type RosterRefreshService struct {
	registry conference.Repository
	cache    refreshCache
	logger   *logging.Logger
}

func NewRosterRefreshService(registry conference.Repository, cache refreshCache, logger *logging.Logger) *RosterRefreshService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RosterRefreshService{
		registry: registry,
		cache:    cache,
		logger:   logger,
	}
}

func (s *RosterRefreshService) RefreshAll(ctx context.Context, input RefreshInput) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterRefreshService.RefreshAll")
	defer span.End()

	if s.registry == nil || s.cache == nil {
		return RefreshResult{}, fmt.Errorf("%w: roster refresh is not fully configured", ErrDependencyUnavailable)
	}

	seasons, err := s.resolveSeasons(ctx, input.Seasons)
	if err != nil {
		return RefreshResult{}, err
	}

	workerCount := normalizeRefreshWorkerCount(input.MaxWorkers, len(seasons))
	result := RefreshResult{
		SeasonCount: len(seasons),
		WorkerCount: workerCount,
		Tasks:       make([]RefreshTaskResult, 0, len(seasons)),
	}
	if len(seasons) == 0 {
		return result, nil
	}

	results := make(chan RefreshTaskResult, len(seasons))

	var successCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, season := range seasons {
		season := season
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := s.refreshSeason(ctx, season, input.Invalidate)
			row.DurationMs = time.Since(start).Milliseconds()

			if row.Status == refreshStatusSuccess {
				successCount.Add(1)
			} else {
				failedCount.Add(1)
			}
			results <- row
		}); err != nil {
			workers.Done()
			return RefreshResult{}, fmt.Errorf("submit refresh task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].Season < result.Tasks[j].Season
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	return result, nil
}

func (s *RosterRefreshService) refreshSeason(ctx context.Context, season string, invalidate bool) RefreshTaskResult {
	row := RefreshTaskResult{Season: season, Status: refreshStatusFailed}

	conferences, err := s.registry.ListBySeason(ctx, season)
	if err != nil {
		row.Message = fmt.Sprintf("list conferences: %v", err)
		return row
	}
	if len(conferences) == 0 {
		row.Message = "season has no conferences"
		return row
	}
	row.Conferences = len(conferences)

	if invalidate {
		s.cache.Invalidate(conferences)
	}

	snapshot, err := s.cache.Refresh(ctx, conferences)
	if err != nil {
		row.Message = err.Error()
		s.logger.WarnContext(ctx, "season roster refresh failed", "season", season, "error", err)
		return row
	}

	row.SetKey = snapshot.Key
	row.Players = len(snapshot.Data)
	row.Status = refreshStatusSuccess
	return row
}

func (s *RosterRefreshService) resolveSeasons(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		seen := make(map[string]struct{}, len(requested))
		out := make([]string, 0, len(requested))
		for _, raw := range requested {
			season := strings.TrimSpace(raw)
			if season == "" {
				continue
			}
			if _, dup := seen[season]; dup {
				continue
			}
			seen[season] = struct{}{}
			out = append(out, season)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: seasons must not be blank", ErrInvalidInput)
		}
		sort.Strings(out)
		return out, nil
	}

	seasons, err := s.registry.ListSeasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	sort.Strings(seasons)
	return seasons, nil
}

// maxRefreshWorkers caps the sweep pool; the API layer rejects larger
// requests with the same bound.
const maxRefreshWorkers = 16

func normalizeRefreshWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > maxRefreshWorkers {
		value = maxRefreshWorkers
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
