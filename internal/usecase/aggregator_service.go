package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
	"github.com/charlesoneill4277/gladiator-league/internal/domain/roster"
	"github.com/charlesoneill4277/gladiator-league/internal/platform/logging"
)

// RosterSourceProvider is the read-only boundary to the fantasy platform.
type RosterSourceProvider interface {
	FetchRosters(ctx context.Context, leagueID string) ([]ExternalRoster, error)
	FetchLeague(ctx context.Context, leagueID string) (ExternalLeague, error)
}

// TeamRegistryWriter is the optional write side of the registry. When the
// configured repository implements it, the aggregator persists team
// summaries discovered in roster payloads, so a synthesized placeholder is
// served for one pass at most.
type TeamRegistryWriter interface {
	UpsertTeams(ctx context.Context, items []conference.Team) error
}

// ExternalRoster is one validated roster snapshot entry from the platform.
type ExternalRoster struct {
	RosterID int64
	OwnerID  string
	Players  []string
	Starters []string
	Reserve  []string
	Taxi     []string
}

type ExternalLeague struct {
	LeagueID     string
	Name         string
	Season       string
	Status       string
	TotalRosters int
}

const defaultAggregatorMaxConcurrent = 4

// RosterAggregator fetches per-conference roster snapshots and merges them
// into one player-to-teams mapping. It favors availability over
// completeness: conferences that fail all retries are reported, not fatal,
// unless every conference in the pass fails.
type RosterAggregator struct {
	provider      RosterSourceProvider
	registry      conference.Repository
	maxConcurrent int
	logger        *logging.Logger
	now           func() time.Time
}

func NewRosterAggregator(
	provider RosterSourceProvider,
	registry conference.Repository,
	maxConcurrent int,
	logger *logging.Logger,
) *RosterAggregator {
	if logger == nil {
		logger = logging.Default()
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultAggregatorMaxConcurrent
	}

	return &RosterAggregator{
		provider:      provider,
		registry:      registry,
		maxConcurrent: maxConcurrent,
		logger:        logger,
		now:           time.Now,
	}
}

type conferenceFetchResult struct {
	conf    conference.Conference
	rosters []ExternalRoster
	teams   []conference.Team
	err     error
}

// FetchAll aggregates every conference in scope into one StatusMap. The
// returned int64 slice lists conference ids whose fetch failed; the map is
// built from whatever succeeded. All failing yields ErrAggregationFailed.
func (a *RosterAggregator) FetchAll(ctx context.Context, conferences []conference.Conference) (roster.StatusMap, []int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterAggregator.FetchAll")
	defer span.End()

	if a.provider == nil || a.registry == nil {
		return nil, nil, fmt.Errorf("%w: roster aggregator is not fully configured", ErrDependencyUnavailable)
	}
	if len(conferences) == 0 {
		return nil, nil, fmt.Errorf("%w: aggregation needs at least one conference", ErrNoConferences)
	}

	// Fan out one fetch per conference; results land in fixed slots so the
	// merge below walks them in conference iteration order regardless of
	// arrival order.
	results := make([]conferenceFetchResult, len(conferences))
	workers := pool.New().WithMaxGoroutines(a.maxConcurrent)
	for idx, conf := range conferences {
		idx, conf := idx, conf
		workers.Go(func() {
			results[idx] = a.fetchConference(ctx, conf)
		})
	}
	workers.Wait()

	failedIDs := make([]int64, 0, len(conferences))
	merged := make(roster.StatusMap, 256)
	fetchedAt := a.now().UTC()

	for _, item := range results {
		if item.err != nil {
			failedIDs = append(failedIDs, item.conf.ID)
			a.logger.WarnContext(ctx,
				"conference roster fetch failed, continuing with remaining conferences",
				"conference_id", item.conf.ID,
				"league_id", item.conf.LeagueID,
				"error", item.err,
			)
			continue
		}
		mergeConferenceRosters(merged, item.conf, item.rosters, item.teams, fetchedAt)
	}

	if len(failedIDs) == len(conferences) {
		return nil, failedIDs, fmt.Errorf("%w: %d of %d conferences unreachable", ErrAggregationFailed, len(failedIDs), len(conferences))
	}
	if len(failedIDs) > 0 {
		sort.Slice(failedIDs, func(i, j int) bool { return failedIDs[i] < failedIDs[j] })
		a.logger.InfoContext(ctx,
			"partial roster aggregation",
			"failed_conferences", len(failedIDs),
			"total_conferences", len(conferences),
		)
	}

	return merged, failedIDs, nil
}

func (a *RosterAggregator) fetchConference(ctx context.Context, conf conference.Conference) conferenceFetchResult {
	out := conferenceFetchResult{conf: conf}

	rosters, err := a.provider.FetchRosters(ctx, conf.LeagueID)
	if err != nil {
		out.err = fmt.Errorf("fetch rosters conference_id=%d: %w", conf.ID, err)
		return out
	}

	teams, err := a.registry.ListTeams(ctx, conf.ID)
	if err != nil {
		out.err = fmt.Errorf("list teams conference_id=%d: %w", conf.ID, err)
		return out
	}

	out.rosters = rosters
	out.teams = teams
	a.syncDiscoveredTeams(ctx, conf, rosters, teams)
	return out
}

// syncDiscoveredTeams writes registry drift found in the roster payload
// back through the repository: rosters the registry has never seen get a
// placeholder row, and known rosters whose owner changed hands get their
// owner updated. Registry sync is write-behind; a failed persist never
// fails the aggregation pass.
func (a *RosterAggregator) syncDiscoveredTeams(
	ctx context.Context,
	conf conference.Conference,
	rosters []ExternalRoster,
	known []conference.Team,
) {
	writer, ok := a.registry.(TeamRegistryWriter)
	if !ok {
		return
	}

	knownByRosterID := make(map[int64]conference.Team, len(known))
	for _, item := range known {
		knownByRosterID[item.RosterID] = item
	}

	drift := make([]conference.Team, 0, 4)
	for _, item := range rosters {
		existing, seen := knownByRosterID[item.RosterID]
		if !seen {
			drift = append(drift, conference.Team{
				RosterID:     item.RosterID,
				ConferenceID: conf.ID,
				Name:         placeholderTeamName(item.RosterID),
				OwnerID:      item.OwnerID,
			})
			continue
		}
		if item.OwnerID != "" && existing.OwnerID != item.OwnerID {
			existing.OwnerID = item.OwnerID
			drift = append(drift, existing)
		}
	}
	if len(drift) == 0 {
		return
	}

	if err := writer.UpsertTeams(ctx, drift); err != nil {
		a.logger.WarnContext(ctx,
			"persist discovered teams failed",
			"conference_id", conf.ID,
			"team_count", len(drift),
			"error", err,
		)
		return
	}
	a.logger.InfoContext(ctx,
		"registry teams synced from roster payload",
		"conference_id", conf.ID,
		"team_count", len(drift),
	)
}

// mergeConferenceRosters appends one conference's associations into the
// running map. The operation is commutative and associative over
// association lists, so the final map content does not depend on which
// conference merged first; only the per-player list order tracks the
// conference iteration order.
func mergeConferenceRosters(
	dst roster.StatusMap,
	conf conference.Conference,
	rosters []ExternalRoster,
	teams []conference.Team,
	fetchedAt time.Time,
) {
	teamByRosterID := make(map[int64]conference.Team, len(teams))
	for _, item := range teams {
		teamByRosterID[item.RosterID] = item
	}

	for _, item := range rosters {
		team, ok := teamByRosterID[item.RosterID]
		if !ok {
			// The registry has no summary for this roster yet; keep the
			// association with a synthesized placeholder instead of losing
			// the ownership fact.
			team = conference.Team{
				RosterID:     item.RosterID,
				ConferenceID: conf.ID,
				Name:         placeholderTeamName(item.RosterID),
				OwnerID:      item.OwnerID,
			}
		}

		slotByPlayer := classifyRosterSlots(item)
		for _, playerID := range item.Players {
			info := dst[playerID]
			info.IsRostered = true
			info.LastUpdated = fetchedAt
			info.Teams = append(info.Teams, roster.TeamAssociation{
				Team:         team,
				ConferenceID: conf.ID,
				RosterSlot:   slotByPlayer[playerID],
			})
			dst[playerID] = info
		}
	}
}

func placeholderTeamName(rosterID int64) string {
	return "Roster " + strconv.FormatInt(rosterID, 10)
}

func classifyRosterSlots(item ExternalRoster) map[string]string {
	out := make(map[string]string, len(item.Players))
	for _, id := range item.Players {
		out[id] = roster.SlotBench
	}
	for _, id := range item.Taxi {
		out[id] = roster.SlotTaxi
	}
	for _, id := range item.Reserve {
		out[id] = roster.SlotIR
	}
	for _, id := range item.Starters {
		out[id] = roster.SlotStarter
	}

	return out
}
