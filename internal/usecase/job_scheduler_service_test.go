package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/jobscheduler"
	"github.com/charlesoneill4277/gladiator-league/internal/platform/logging"
)

type queuedJob struct {
	path    string
	payload any
	delay   time.Duration
	dedupID string
}

type fakeJobQueue struct {
	jobs []queuedJob
	err  error
}

func (f *fakeJobQueue) Enqueue(_ context.Context, path string, payload any, delay time.Duration, dedupID string) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, queuedJob{path: path, payload: payload, delay: delay, dedupID: dedupID})
	return nil
}

type fakeDispatchRepo struct {
	events []jobscheduler.DispatchEvent
	err    error
}

func (f *fakeDispatchRepo) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func TestRosterJobScheduler(t *testing.T) {
	ctx := context.Background()
	fixedNow := time.Date(2026, time.March, 1, 18, 3, 17, 0, time.UTC)

	t.Run("bootstrap enqueues an immediate refresh", func(t *testing.T) {
		queue := &fakeJobQueue{}
		dispatch := &fakeDispatchRepo{}
		svc := NewRosterJobScheduler(queue, dispatch, JobSchedulerConfig{RefreshInterval: 10 * time.Minute}, logging.NewNop())
		svc.now = func() time.Time { return fixedNow }

		got, err := svc.Bootstrap(ctx, []string{"2025"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.QueuedCount != 1 || len(queue.jobs) != 1 {
			t.Fatalf("expected one queued job: %+v", got)
		}
		job := queue.jobs[0]
		if job.path != "/v1/internal/jobs/refresh-rosters" || job.delay != 0 {
			t.Fatalf("unexpected job: %+v", job)
		}
		if len(dispatch.events) != 1 || dispatch.events[0].Status != jobscheduler.StatusSent {
			t.Fatalf("expected a sent dispatch event: %+v", dispatch.events)
		}
	})

	t.Run("schedule next delays by the interval", func(t *testing.T) {
		queue := &fakeJobQueue{}
		svc := NewRosterJobScheduler(queue, nil, JobSchedulerConfig{RefreshInterval: 15 * time.Minute}, logging.NewNop())
		svc.now = func() time.Time { return fixedNow }

		if _, err := svc.ScheduleNext(ctx, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if queue.jobs[0].delay != 15*time.Minute {
			t.Fatalf("unexpected delay: %s", queue.jobs[0].delay)
		}
		if !strings.HasPrefix(queue.jobs[0].dedupID, "refresh-rosters-all-") {
			t.Fatalf("unexpected dedup id: %s", queue.jobs[0].dedupID)
		}
	})

	t.Run("dedup id is stable within one interval bucket", func(t *testing.T) {
		queue := &fakeJobQueue{}
		svc := NewRosterJobScheduler(queue, nil, JobSchedulerConfig{RefreshInterval: 10 * time.Minute}, logging.NewNop())

		svc.now = func() time.Time { return fixedNow }
		if _, err := svc.Bootstrap(ctx, []string{"2025"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		svc.now = func() time.Time { return fixedNow.Add(2 * time.Minute) }
		if _, err := svc.Bootstrap(ctx, []string{"2025"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if queue.jobs[0].dedupID != queue.jobs[1].dedupID {
			t.Fatalf("expected identical dedup ids: %s vs %s", queue.jobs[0].dedupID, queue.jobs[1].dedupID)
		}
	})

	t.Run("enqueue failure records a failed dispatch", func(t *testing.T) {
		dispatch := &fakeDispatchRepo{}
		svc := NewRosterJobScheduler(&fakeJobQueue{err: errors.New("qstash down")}, dispatch, JobSchedulerConfig{}, logging.NewNop())

		if _, err := svc.Bootstrap(ctx, []string{"2025"}); err == nil {
			t.Fatal("expected enqueue failure to surface")
		}
		if len(dispatch.events) != 1 || dispatch.events[0].Status != jobscheduler.StatusFailed {
			t.Fatalf("expected a failed dispatch event: %+v", dispatch.events)
		}
		if dispatch.events[0].ErrorMessage == "" {
			t.Fatal("failed event must carry the error message")
		}
	})

	t.Run("mark completed records completion", func(t *testing.T) {
		dispatch := &fakeDispatchRepo{}
		svc := NewRosterJobScheduler(&fakeJobQueue{}, dispatch, JobSchedulerConfig{}, logging.NewNop())

		svc.MarkCompleted(ctx, "refresh-rosters-2025-20260301T180000Z", []string{"2025"})
		if len(dispatch.events) != 1 || dispatch.events[0].Status != jobscheduler.StatusCompleted {
			t.Fatalf("expected completed event: %+v", dispatch.events)
		}
	})
}

func TestSeasonDedupTag(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{nil, "all"},
		{[]string{" ", ""}, "all"},
		{[]string{"2025"}, "2025"},
		{[]string{"2024", "2025"}, "2024_2025"},
	}
	for _, tc := range cases {
		if got := seasonDedupTag(tc.in); got != tc.want {
			t.Fatalf("seasonDedupTag(%v)=%q want=%q", tc.in, got, tc.want)
		}
	}
}
