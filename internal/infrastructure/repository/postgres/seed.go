package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/charlesoneill4277/gladiator-league/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the league's conference registry into an empty
// database so a fresh deployment serves rosters without manual setup.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM conferences WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count conferences for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, c := range memory.SeedConferences() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO conferences (id, season, name, sleeper_league_id)
VALUES (:id, :season, :name, :sleeper_league_id)
ON CONFLICT (sleeper_league_id) DO NOTHING`, map[string]any{
			"id":                c.ID,
			"season":            c.Season,
			"name":              c.Name,
			"sleeper_league_id": c.LeagueID,
		})
		if err != nil {
			return fmt.Errorf("bind seed conference %s query: %w", c.LeagueID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed conference %s: %w", c.LeagueID, err)
		}
	}

	for _, t := range memory.SeedTeams() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO conference_teams (conference_id, roster_id, name, owner_id)
VALUES (:conference_id, :roster_id, :name, :owner_id)
ON CONFLICT (conference_id, roster_id) WHERE deleted_at IS NULL DO NOTHING`, map[string]any{
			"conference_id": t.ConferenceID,
			"roster_id":     t.RosterID,
			"name":          t.Name,
			"owner_id":      t.OwnerID,
		})
		if err != nil {
			return fmt.Errorf("bind seed team conference_id=%d roster_id=%d query: %w", t.ConferenceID, t.RosterID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed team conference_id=%d roster_id=%d: %w", t.ConferenceID, t.RosterID, err)
		}
	}

	// Seeded rows carry fixed ids so the sequence has to catch up.
	if _, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('conferences', 'id'), (SELECT MAX(id) FROM conferences))`); err != nil {
		return fmt.Errorf("advance conferences id sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
