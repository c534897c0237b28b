package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
	"github.com/charlesoneill4277/gladiator-league/internal/domain/roster"
	"github.com/charlesoneill4277/gladiator-league/internal/platform/logging"
)

// PlayerStatusData is the fully derived per-player answer. PrimaryTeam is
// the first association in conference order, nil for free agents.
type PlayerStatusData struct {
	PlayerID    string                   `json:"playerId"`
	IsRostered  bool                     `json:"isRostered"`
	Teams       []roster.TeamAssociation `json:"teams"`
	PrimaryTeam *roster.TeamAssociation  `json:"primaryTeam,omitempty"`
	IsMultiTeam bool                     `json:"isMultiTeam"`
	Freshness   roster.Freshness         `json:"freshness"`
	IsStale     bool                     `json:"isStale"`
	LastUpdated time.Time                `json:"lastUpdated"`
}

type statusSnapshotSource interface {
	Get(ctx context.Context, conferences []conference.Conference) (RosterSnapshot, error)
	Freshness(fetchedAt time.Time) roster.Freshness
	IsStale(snapshot RosterSnapshot) bool
}

// PlayerStatusService answers "who owns this player" questions against the
// cached aggregation. Resolution itself is pure derivation over the
// snapshot; the only I/O is the cache's own cold-start load.
type PlayerStatusService struct {
	cache  statusSnapshotSource
	logger *logging.Logger
}

func NewPlayerStatusService(cache statusSnapshotSource, logger *logging.Logger) *PlayerStatusService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PlayerStatusService{
		cache:  cache,
		logger: logger,
	}
}

// Resolve derives the status of one player within the conference set. An
// unknown player id resolves to a free-agent record, never an error; an
// empty conference set is ErrNoConferences because there was nothing to
// consult.
func (s *PlayerStatusService) Resolve(ctx context.Context, conferences []conference.Conference, playerID string) (PlayerStatusData, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerStatusService.Resolve")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return PlayerStatusData{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	snapshot, err := s.snapshot(ctx, conferences)
	if err != nil {
		return PlayerStatusData{}, err
	}

	return s.derive(snapshot, playerID), nil
}

// ResolveBatch derives statuses for many players against one shared
// snapshot read. The result always holds one entry per requested id, in
// request order, with duplicates and surrounding whitespace dropped.
func (s *PlayerStatusService) ResolveBatch(ctx context.Context, conferences []conference.Conference, playerIDs []string) ([]PlayerStatusData, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerStatusService.ResolveBatch")
	defer span.End()

	ids := dedupePlayerIDs(playerIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one player id is required", ErrInvalidInput)
	}

	snapshot, err := s.snapshot(ctx, conferences)
	if err != nil {
		return nil, err
	}

	out := make([]PlayerStatusData, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.derive(snapshot, id))
	}

	return out, nil
}

func (s *PlayerStatusService) snapshot(ctx context.Context, conferences []conference.Conference) (RosterSnapshot, error) {
	if s.cache == nil {
		return RosterSnapshot{}, fmt.Errorf("%w: player status service has no roster cache", ErrDependencyUnavailable)
	}
	if len(conferences) == 0 {
		return RosterSnapshot{}, fmt.Errorf("%w: status resolution needs a conference scope", ErrNoConferences)
	}

	return s.cache.Get(ctx, conferences)
}

func (s *PlayerStatusService) derive(snapshot RosterSnapshot, playerID string) PlayerStatusData {
	out := PlayerStatusData{
		PlayerID:    playerID,
		Freshness:   s.cache.Freshness(snapshot.FetchedAt),
		IsStale:     s.cache.IsStale(snapshot),
		LastUpdated: snapshot.FetchedAt,
	}

	info, ok := snapshot.Data[playerID]
	if !ok || len(info.Teams) == 0 {
		// Absent from every roster in scope: a free agent, not an error.
		return out
	}

	out.IsRostered = true
	out.Teams = info.Teams
	primary := info.Teams[0]
	out.PrimaryTeam = &primary
	out.IsMultiTeam = len(info.Teams) > 1
	if !info.LastUpdated.IsZero() {
		out.LastUpdated = info.LastUpdated
	}

	return out
}

func dedupePlayerIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
