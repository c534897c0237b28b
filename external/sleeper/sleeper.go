package sleeper

import (
	"strings"

	"github.com/charlesoneill4277/gladiator-league/internal/usecase"
)

type rosterItem struct {
	RosterID int64    `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Players  []string `json:"players"`
	Starters []string `json:"starters"`
	Reserve  []string `json:"reserve"`
	Taxi     []string `json:"taxi"`
}

type leagueItem struct {
	LeagueID     string `json:"league_id"`
	Name         string `json:"name"`
	Season       string `json:"season"`
	Status       string `json:"status"`
	TotalRosters int    `json:"total_rosters"`
}

// mapRosterItem validates and coerces one duck-typed roster payload into
// the typed boundary record. Entries without a usable roster id are
// rejected; blank player ids (Sleeper pads empty starter slots with "0")
// are filtered out.
func mapRosterItem(item rosterItem) (usecase.ExternalRoster, bool) {
	if item.RosterID <= 0 {
		return usecase.ExternalRoster{}, false
	}

	players := cleanPlayerIDs(item.Players)
	if len(players) == 0 && len(item.Players) > 0 {
		return usecase.ExternalRoster{}, false
	}

	return usecase.ExternalRoster{
		RosterID: item.RosterID,
		OwnerID:  strings.TrimSpace(item.OwnerID),
		Players:  players,
		Starters: cleanPlayerIDs(item.Starters),
		Reserve:  cleanPlayerIDs(item.Reserve),
		Taxi:     cleanPlayerIDs(item.Taxi),
	}, true
}

func cleanPlayerIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" || id == "0" {
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
