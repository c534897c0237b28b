package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
)

// ConferenceRepository is the in-memory conference registry, used in dev
// and in tests. Data is fixed at construction except for team upserts.
type ConferenceRepository struct {
	mu            sync.RWMutex
	conferences   []conference.Conference
	teamsByConfID map[int64][]conference.Team
}

func NewConferenceRepository(conferences []conference.Conference, teams []conference.Team) *ConferenceRepository {
	teamsByConfID := make(map[int64][]conference.Team)
	for _, item := range teams {
		teamsByConfID[item.ConferenceID] = append(teamsByConfID[item.ConferenceID], item)
	}

	return &ConferenceRepository{
		conferences:   append([]conference.Conference(nil), conferences...),
		teamsByConfID: teamsByConfID,
	}
}

func (r *ConferenceRepository) ListBySeason(_ context.Context, season string) ([]conference.Conference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]conference.Conference, 0, len(r.conferences))
	for _, item := range r.conferences {
		if item.Season == season {
			out = append(out, item)
		}
	}

	return out, nil
}

func (r *ConferenceRepository) GetByID(_ context.Context, conferenceID int64) (conference.Conference, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.conferences {
		if item.ID == conferenceID {
			return item, true, nil
		}
	}

	return conference.Conference{}, false, nil
}

func (r *ConferenceRepository) ListTeams(_ context.Context, conferenceID int64) ([]conference.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	teams := r.teamsByConfID[conferenceID]
	out := make([]conference.Team, 0, len(teams))
	out = append(out, teams...)

	return out, nil
}

func (r *ConferenceRepository) ListSeasons(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.conferences))
	out := make([]string, 0, 4)
	for _, item := range r.conferences {
		if _, dup := seen[item.Season]; dup {
			continue
		}
		seen[item.Season] = struct{}{}
		out = append(out, item.Season)
	}
	sort.Strings(out)

	return out, nil
}

// UpsertTeams replaces or appends team summaries keyed by (conference,
// roster id). Registry sync jobs use this to keep display names current.
func (r *ConferenceRepository) UpsertTeams(_ context.Context, items []conference.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.ConferenceID <= 0 || item.RosterID <= 0 {
			continue
		}

		rows := r.teamsByConfID[item.ConferenceID]
		updated := false
		for idx := range rows {
			if rows[idx].RosterID == item.RosterID {
				rows[idx] = item
				updated = true
				break
			}
		}
		if !updated {
			rows = append(rows, item)
		}
		r.teamsByConfID[item.ConferenceID] = rows
	}

	return nil
}
