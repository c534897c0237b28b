package roster

import (
	"sort"
	"strings"
	"time"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
)

// Roster slot tags as reported by the platform roster payload.
const (
	SlotStarter = "starter"
	SlotBench   = "bench"
	SlotIR      = "ir"
	SlotTaxi    = "taxi"
)

// TeamAssociation is one (player, team) relationship discovered from a
// single conference's roster snapshot. A player legitimately holds one
// association per conference, so several at once across conferences.
type TeamAssociation struct {
	Team         conference.Team
	ConferenceID int64
	RosterSlot   string
}

// StatusInfo is the resolved ownership view for one player, unioned across
// every conference in scope. Invariant: IsRostered == (len(Teams) > 0).
type StatusInfo struct {
	IsRostered  bool
	Teams       []TeamAssociation
	LastUpdated time.Time
}

// StatusMap maps player id to StatusInfo for one exact conference set.
// Players absent from the map are free agents, not errors. Maps are
// immutable once produced and replaced wholesale on refresh.
type StatusMap map[string]StatusInfo

// Freshness is the coarse age bucket of a cached snapshot.
type Freshness string

const (
	FreshnessLive   Freshness = "live"
	FreshnessRecent Freshness = "recent"
	FreshnessCached Freshness = "cached"
)

// FreshnessThresholds carries the bucket boundaries. Ages below Live
// classify as live, between Live and Recent as recent, beyond as cached.
type FreshnessThresholds struct {
	Live   time.Duration
	Recent time.Duration
}

func DefaultFreshnessThresholds() FreshnessThresholds {
	return FreshnessThresholds{
		Live:   2 * time.Minute,
		Recent: 5 * time.Minute,
	}
}

func (t FreshnessThresholds) Classify(age time.Duration) Freshness {
	live := t.Live
	if live <= 0 {
		live = 2 * time.Minute
	}
	recent := t.Recent
	if recent <= live {
		recent = 5 * time.Minute
	}

	switch {
	case age < live:
		return FreshnessLive
	case age < recent:
		return FreshnessRecent
	default:
		return FreshnessCached
	}
}

// SetKey derives the stable cache key for a set of conferences: the sorted
// league ids joined, so the same combination always maps to one entry no
// matter the input order.
func SetKey(conferences []conference.Conference) string {
	ids := make([]string, 0, len(conferences))
	for _, item := range conferences {
		id := strings.TrimSpace(item.LeagueID)
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return strings.Join(ids, ",")
}
