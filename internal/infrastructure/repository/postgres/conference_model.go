package postgres

import (
	"database/sql"
	"time"
)

type conferenceTableModel struct {
	ID              int64          `db:"id"`
	Season          string         `db:"season"`
	Name            string         `db:"name"`
	SleeperLeagueID string         `db:"sleeper_league_id"`
	Notes           sql.NullString `db:"notes"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	DeletedAt       *time.Time     `db:"deleted_at"`
}

type conferenceTeamTableModel struct {
	ID           int64      `db:"id"`
	ConferenceID int64      `db:"conference_id"`
	RosterID     int64      `db:"roster_id"`
	Name         string     `db:"name"`
	OwnerID      string     `db:"owner_id"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

type conferenceTeamUpsertModel struct {
	ConferenceID int64  `db:"conference_id"`
	RosterID     int64  `db:"roster_id"`
	Name         string `db:"name"`
	OwnerID      string `db:"owner_id"`
}
