package conference

import "fmt"

// Conference is one externally-hosted Sleeper league inside a season.
type Conference struct {
	ID       int64
	Season   string
	Name     string
	LeagueID string
}

func (c Conference) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("conference id must be greater than zero")
	}
	if c.Season == "" {
		return fmt.Errorf("conference season is required")
	}
	if c.Name == "" {
		return fmt.Errorf("conference name is required")
	}
	if c.LeagueID == "" {
		return fmt.Errorf("conference league id is required")
	}

	return nil
}

// Team is one fantasy team inside a conference, keyed by the platform
// roster id. OwnerID is the platform user that manages the roster.
type Team struct {
	RosterID     int64
	ConferenceID int64
	Name         string
	OwnerID      string
}

func (t Team) Validate() error {
	if t.RosterID <= 0 {
		return fmt.Errorf("team roster id must be greater than zero")
	}
	if t.ConferenceID <= 0 {
		return fmt.Errorf("team conference id must be greater than zero")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
