package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
	"github.com/charlesoneill4277/gladiator-league/internal/domain/roster"
	"github.com/charlesoneill4277/gladiator-league/internal/platform/logging"
	"github.com/charlesoneill4277/gladiator-league/internal/platform/resilience"
)

// EntryState is the lifecycle position of one cached conference-set entry.
type EntryState string

const (
	EntryStateEmpty      EntryState = "empty"
	EntryStateLoading    EntryState = "loading"
	EntryStateReady      EntryState = "ready"
	EntryStateRefreshing EntryState = "refreshing"
)

type rosterFetcher interface {
	FetchAll(ctx context.Context, conferences []conference.Conference) (roster.StatusMap, []int64, error)
}

type RosterCacheConfig struct {
	Freshness      roster.FreshnessThresholds
	StaleTolerance time.Duration
	SyncInterval   time.Duration
}

func NormalizeRosterCacheConfig(cfg RosterCacheConfig) RosterCacheConfig {
	defaults := roster.DefaultFreshnessThresholds()
	if cfg.Freshness.Live <= 0 {
		cfg.Freshness.Live = defaults.Live
	}
	if cfg.Freshness.Recent <= cfg.Freshness.Live {
		cfg.Freshness.Recent = defaults.Recent
	}
	if cfg.StaleTolerance <= 0 {
		cfg.StaleTolerance = 5 * time.Minute
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 10 * time.Minute
	}

	return cfg
}

// RosterSnapshot is what readers get back: the full immutable map plus the
// metadata needed for freshness classification. Data is shared, never
// mutated after commit; entries are replaced wholesale on refresh.
type RosterSnapshot struct {
	Key       string
	Data      roster.StatusMap
	FetchedAt time.Time
	State     EntryState
	Stale     bool
}

type rosterCacheEntry struct {
	data      roster.StatusMap
	fetchedAt time.Time
	state     EntryState
	stale     bool
}

// RosterCacheService memoizes aggregated roster maps keyed by the exact
// conference set in scope. One in-flight aggregation per key (concurrent
// cold reads coalesce), last-committed pass wins, and failed refreshes keep
// the previous entry stale-but-available instead of clearing it.
type RosterCacheService struct {
	fetcher rosterFetcher
	cfg     RosterCacheConfig
	logger  *logging.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*rosterCacheEntry
	// passTokens outlive entries so a pass that began before an invalidate
	// (or before a later pass committed) is recognized as superseded when
	// its result finally arrives.
	passTokens map[string]uint64

	flight resilience.SingleFlight

	syncMu     sync.Mutex
	syncCancel context.CancelFunc
	syncKey    string

	hits      atomic.Int64
	misses    atomic.Int64
	loadCount atomic.Int64
	loadNanos atomic.Int64
}

func NewRosterCacheService(fetcher rosterFetcher, cfg RosterCacheConfig, logger *logging.Logger) *RosterCacheService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RosterCacheService{
		fetcher:    fetcher,
		cfg:        NormalizeRosterCacheConfig(cfg),
		logger:     logger,
		now:        time.Now,
		entries:    make(map[string]*rosterCacheEntry),
		passTokens: make(map[string]uint64),
	}
}

func (s *RosterCacheService) Config() RosterCacheConfig {
	return s.cfg
}

// Get serves the cached snapshot for the conference set, loading it through
// the aggregator on cold start. Concurrent cold reads for the same key
// share one aggregation pass. Once an entry exists, reads never block on
// the network again; background refreshes swap the entry behind them.
func (s *RosterCacheService) Get(ctx context.Context, conferences []conference.Conference) (RosterSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterCacheService.Get")
	defer span.End()

	key := roster.SetKey(conferences)
	if key == "" {
		return RosterSnapshot{}, fmt.Errorf("%w: conference set resolves to an empty cache key", ErrNoConferences)
	}

	s.mu.Lock()
	entry := s.entries[key]
	if entry != nil && entry.data != nil {
		snapshot := s.snapshotLocked(key, entry)
		s.mu.Unlock()
		s.hits.Add(1)
		return snapshot, nil
	}
	s.mu.Unlock()

	s.misses.Add(1)
	return s.loadShared(ctx, key, conferences)
}

// Peek returns the current snapshot without ever triggering a load.
func (s *RosterCacheService) Peek(conferences []conference.Conference) (RosterSnapshot, bool) {
	key := roster.SetKey(conferences)
	if key == "" {
		return RosterSnapshot{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	if entry == nil || entry.data == nil {
		return RosterSnapshot{}, false
	}
	return s.snapshotLocked(key, entry), true
}

// Refresh forces a new aggregation pass for the conference set. A failed
// pass leaves the previous entry in place, marked stale, and returns the
// error to the caller; background sync additionally swallows it.
func (s *RosterCacheService) Refresh(ctx context.Context, conferences []conference.Conference) (RosterSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterCacheService.Refresh")
	defer span.End()

	key := roster.SetKey(conferences)
	if key == "" {
		return RosterSnapshot{}, fmt.Errorf("%w: conference set resolves to an empty cache key", ErrNoConferences)
	}

	return s.loadShared(ctx, key, conferences)
}

// loadShared runs one aggregation pass per key at a time; concurrent
// callers for the same key wait on the same pass.
func (s *RosterCacheService) loadShared(ctx context.Context, key string, conferences []conference.Conference) (RosterSnapshot, error) {
	v, err, _ := s.flight.Do(key, func() (any, error) {
		return s.runPass(ctx, key, conferences)
	})
	if err != nil {
		return RosterSnapshot{}, err
	}

	snapshot, ok := v.(RosterSnapshot)
	if !ok {
		return RosterSnapshot{}, fmt.Errorf("unexpected cache pass result type %T", v)
	}
	return snapshot, nil
}

func (s *RosterCacheService) runPass(ctx context.Context, key string, conferences []conference.Conference) (RosterSnapshot, error) {
	if s.fetcher == nil {
		return RosterSnapshot{}, fmt.Errorf("%w: roster cache has no aggregator", ErrDependencyUnavailable)
	}

	token := s.beginPass(key)
	started := s.now()

	data, failedIDs, err := s.fetcher.FetchAll(ctx, conferences)
	if err != nil {
		s.failPass(ctx, key, token, err)
		return RosterSnapshot{}, err
	}

	s.loadCount.Add(1)
	s.loadNanos.Add(int64(s.now().Sub(started)))
	if len(failedIDs) > 0 {
		s.logger.WarnContext(ctx, "roster aggregation completed with failed conferences", "set_key", key, "failed_conference_ids", failedIDs)
	}

	return s.commitPass(ctx, key, token, data), nil
}

// beginPass records the pass token and moves the entry into its transient
// state: loading when no data exists yet, refreshing when stale-but-
// available data keeps serving readers.
func (s *RosterCacheService) beginPass(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.passTokens[key] + 1
	s.passTokens[key] = token

	entry := s.entries[key]
	if entry == nil {
		entry = &rosterCacheEntry{state: EntryStateLoading}
		s.entries[key] = entry
	} else if entry.data == nil {
		entry.state = EntryStateLoading
	} else {
		entry.state = EntryStateRefreshing
	}

	return token
}

// commitPass installs the freshly aggregated map unless a later pass (or an
// invalidate) superseded this one while it was in flight; superseded
// results are handed back to the caller but never written to the cache.
func (s *RosterCacheService) commitPass(ctx context.Context, key string, token uint64, data roster.StatusMap) RosterSnapshot {
	fetchedAt := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.passTokens[key] != token {
		s.logger.InfoContext(ctx, "discard superseded roster aggregation result", "set_key", key)
		return RosterSnapshot{
			Key:       key,
			Data:      data,
			FetchedAt: fetchedAt,
			State:     EntryStateEmpty,
		}
	}

	entry := s.entries[key]
	if entry == nil {
		entry = &rosterCacheEntry{}
		s.entries[key] = entry
	}
	entry.data = data
	entry.fetchedAt = fetchedAt
	entry.state = EntryStateReady
	entry.stale = false

	return s.snapshotLocked(key, entry)
}

func (s *RosterCacheService) failPass(ctx context.Context, key string, token uint64, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.passTokens[key] != token {
		return
	}

	entry := s.entries[key]
	if entry == nil {
		return
	}
	if entry.data == nil {
		// Cold start failed; nothing worth keeping.
		delete(s.entries, key)
		return
	}

	entry.state = EntryStateReady
	entry.stale = true
	s.logger.WarnContext(ctx, "roster refresh failed, retaining stale snapshot", "set_key", key, "error", cause)
}

// Invalidate drops the entry for the exact conference set. The next Get
// re-fetches; any pass still in flight for the old entry is discarded on
// arrival.
func (s *RosterCacheService) Invalidate(conferences []conference.Conference) {
	key := roster.SetKey(conferences)
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateKeyLocked(key)
}

// InvalidateAll drops every entry.
func (s *RosterCacheService) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.entries {
		s.invalidateKeyLocked(key)
	}
}

func (s *RosterCacheService) invalidateKeyLocked(key string) {
	s.passTokens[key]++
	delete(s.entries, key)
}

// StartBackgroundSync begins a repeating refresh for the conference set.
// Starting a sync for a new set cancels the previous one; results from the
// old set's in-flight timer callbacks are discarded via the pass tokens.
func (s *RosterCacheService) StartBackgroundSync(conferences []conference.Conference, interval time.Duration) error {
	key := roster.SetKey(conferences)
	if key == "" {
		return fmt.Errorf("%w: background sync needs at least one conference", ErrNoConferences)
	}
	if interval <= 0 {
		interval = s.cfg.SyncInterval
	}

	scope := append([]conference.Conference(nil), conferences...)

	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	if s.syncCancel != nil {
		s.syncCancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.syncCancel = cancel
	s.syncKey = key

	go s.syncLoop(ctx, key, scope, interval)
	s.logger.Info("roster background sync started", "set_key", key, "interval", interval.String())
	return nil
}

// StopBackgroundSync cancels the repeating refresh. Safe to call when no
// sync is running.
func (s *RosterCacheService) StopBackgroundSync() {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	if s.syncCancel == nil {
		return
	}
	s.syncCancel()
	s.syncCancel = nil
	s.logger.Info("roster background sync stopped", "set_key", s.syncKey)
	s.syncKey = ""
}

func (s *RosterCacheService) syncLoop(ctx context.Context, key string, conferences []conference.Conference, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx, conferences); err != nil {
				s.logger.WarnContext(ctx, "background roster refresh failed, serving last good snapshot", "set_key", key, "error", err)
			}
		}
	}
}

// Freshness classifies a snapshot's age with the configured thresholds.
func (s *RosterCacheService) Freshness(fetchedAt time.Time) roster.Freshness {
	return s.cfg.Freshness.Classify(s.now().Sub(fetchedAt))
}

// IsStale reports whether a snapshot is older than the stale tolerance or
// was explicitly marked stale by a failed refresh.
func (s *RosterCacheService) IsStale(snapshot RosterSnapshot) bool {
	if snapshot.Stale {
		return true
	}
	return s.now().Sub(snapshot.FetchedAt) > s.cfg.StaleTolerance
}

// CacheMetrics is operational visibility only; nothing reads it for
// correctness.
type CacheMetrics struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	LoadCount   int64   `json:"load_count"`
	AvgLoadMs   float64 `json:"avg_load_ms"`
	EntryCount  int     `json:"entry_count"`
	SyncRunning bool    `json:"sync_running"`
}

func (s *RosterCacheService) Metrics() CacheMetrics {
	hits := s.hits.Load()
	misses := s.misses.Load()
	loads := s.loadCount.Load()

	out := CacheMetrics{
		Hits:      hits,
		Misses:    misses,
		LoadCount: loads,
	}
	if total := hits + misses; total > 0 {
		out.HitRate = float64(hits) / float64(total)
	}
	if loads > 0 {
		out.AvgLoadMs = float64(s.loadNanos.Load()) / float64(loads) / float64(time.Millisecond)
	}

	s.mu.Lock()
	out.EntryCount = len(s.entries)
	s.mu.Unlock()

	s.syncMu.Lock()
	out.SyncRunning = s.syncCancel != nil
	s.syncMu.Unlock()

	return out
}

func (s *RosterCacheService) snapshotLocked(key string, entry *rosterCacheEntry) RosterSnapshot {
	return RosterSnapshot{
		Key:       key,
		Data:      entry.data,
		FetchedAt: entry.fetchedAt,
		State:     entry.state,
		Stale:     entry.stale,
	}
}
