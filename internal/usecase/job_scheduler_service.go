package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/jobscheduler"
	"github.com/charlesoneill4277/gladiator-league/internal/platform/logging"
)

const refreshJobPath = "/v1/internal/jobs/refresh-rosters"

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type JobSchedulerConfig struct {
	// RefreshInterval is how far out the self-rescheduling refresh chain
	// enqueues its next run.
	RefreshInterval time.Duration
}

type JobScheduleResult struct {
	QueuedCount      int      `json:"queued_count"`
	QueuedOperations []string `json:"queued_operations"`
}

// RosterJobScheduler keeps the roster refresh chain alive: each executed
// refresh job asks it to enqueue the next one, and Bootstrap primes the
// chain after a deploy. Deduplication ids are bucketed on the interval so
// overlapping schedulers collapse into one queued job per slot.
type RosterJobScheduler struct {
	queue        JobQueue
	dispatchRepo jobscheduler.Repository
	cfg          JobSchedulerConfig
	logger       *logging.Logger
	now          func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewRosterJobScheduler(
	queue JobQueue,
	dispatchRepo jobscheduler.Repository,
	cfg JobSchedulerConfig,
	logger *logging.Logger,
) *RosterJobScheduler {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 10 * time.Minute
	}

	return &RosterJobScheduler{
		queue:        queue,
		dispatchRepo: dispatchRepo,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Bootstrap enqueues an immediate refresh so a fresh deployment does not
// wait a full interval for its first pass.
func (s *RosterJobScheduler) Bootstrap(ctx context.Context, seasons []string) (JobScheduleResult, error) {
	return s.enqueueRefresh(ctx, seasons, 0)
}

// ScheduleNext enqueues the follow-up refresh one interval out. Called at
// the end of every executed refresh job to keep the chain going.
func (s *RosterJobScheduler) ScheduleNext(ctx context.Context, seasons []string) (JobScheduleResult, error) {
	return s.enqueueRefresh(ctx, seasons, s.cfg.RefreshInterval)
}

func (s *RosterJobScheduler) enqueueRefresh(ctx context.Context, seasons []string, delay time.Duration) (JobScheduleResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterJobScheduler.enqueueRefresh")
	defer span.End()

	now := s.now().UTC()
	seasonTag := seasonDedupTag(seasons)
	dedupID := dedupKey("refresh-rosters", seasonTag, now.Add(delay), s.cfg.RefreshInterval)
	payload := map[string]any{
		"seasons":     cleanSeasons(seasons),
		"dispatch_id": dedupID,
	}

	if err := s.queue.Enqueue(ctx, refreshJobPath, payload, delay, dedupID); err != nil {
		s.recordDispatchEvent(ctx, jobscheduler.DispatchEvent{
			DispatchID:   dedupID,
			JobName:      "refresh-rosters",
			JobPath:      refreshJobPath,
			Season:       seasonTag,
			Status:       jobscheduler.StatusFailed,
			Payload:      payload,
			ErrorMessage: err.Error(),
			OccurredAt:   now,
		})
		return JobScheduleResult{}, fmt.Errorf("enqueue refresh-rosters seasons=%s: %w", seasonTag, err)
	}

	s.recordDispatchEvent(ctx, jobscheduler.DispatchEvent{
		DispatchID: dedupID,
		JobName:    "refresh-rosters",
		JobPath:    refreshJobPath,
		Season:     seasonTag,
		Status:     jobscheduler.StatusSent,
		Payload:    payload,
		OccurredAt: now,
	})

	return JobScheduleResult{
		QueuedCount:      1,
		QueuedOperations: []string{"refresh-rosters:" + seasonTag},
	}, nil
}

// MarkCompleted records that a dispatched job ran to completion.
func (s *RosterJobScheduler) MarkCompleted(ctx context.Context, dispatchID string, seasons []string) {
	dispatchID = strings.TrimSpace(dispatchID)
	if dispatchID == "" {
		return
	}
	s.recordDispatchEvent(ctx, jobscheduler.DispatchEvent{
		DispatchID: dispatchID,
		JobName:    "refresh-rosters",
		JobPath:    refreshJobPath,
		Season:     seasonDedupTag(seasons),
		Status:     jobscheduler.StatusCompleted,
		OccurredAt: s.now().UTC(),
	})
}

func (s *RosterJobScheduler) recordDispatchEvent(ctx context.Context, event jobscheduler.DispatchEvent) {
	if s.dispatchRepo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}

func seasonDedupTag(seasons []string) string {
	cleaned := cleanSeasons(seasons)
	if len(cleaned) == 0 {
		return "all"
	}
	return strings.Join(cleaned, "_")
}

func cleanSeasons(seasons []string) []string {
	out := make([]string, 0, len(seasons))
	for _, raw := range seasons {
		season := strings.TrimSpace(raw)
		if season == "" {
			continue
		}
		out = append(out, season)
	}
	return out
}

func dedupKey(prefix, scope string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	prefix = sanitizeDedupSegment(prefix)
	scope = sanitizeDedupSegment(scope)
	return prefix + "-" + scope + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}
