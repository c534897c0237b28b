package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
	qb "github.com/charlesoneill4277/gladiator-league/internal/platform/querybuilder"
)

type ConferenceRepository struct {
	db *sqlx.DB
}

func NewConferenceRepository(db *sqlx.DB) *ConferenceRepository {
	return &ConferenceRepository{db: db}
}

func (r *ConferenceRepository) ListBySeason(ctx context.Context, season string) ([]conference.Conference, error) {
	query, args, err := qb.Select("*").From("conferences").
		Where(
			qb.Eq("season", season),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select conferences by season query: %w", err)
	}

	var rows []conferenceTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select conferences by season: %w", err)
	}

	out := make([]conference.Conference, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapConferenceRow(row))
	}

	return out, nil
}

func (r *ConferenceRepository) GetByID(ctx context.Context, conferenceID int64) (conference.Conference, bool, error) {
	query, args, err := qb.Select("*").From("conferences").
		Where(
			qb.Eq("id", conferenceID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return conference.Conference{}, false, fmt.Errorf("build select conference query: %w", err)
	}

	var row conferenceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return conference.Conference{}, false, nil
		}
		return conference.Conference{}, false, fmt.Errorf("select conference id=%d: %w", conferenceID, err)
	}

	return mapConferenceRow(row), true, nil
}

func (r *ConferenceRepository) ListTeams(ctx context.Context, conferenceID int64) ([]conference.Team, error) {
	query, args, err := qb.Select("*").From("conference_teams").
		Where(
			qb.Eq("conference_id", conferenceID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("roster_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select conference teams query: %w", err)
	}

	var rows []conferenceTeamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select conference teams: %w", err)
	}

	out := make([]conference.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, conference.Team{
			RosterID:     row.RosterID,
			ConferenceID: row.ConferenceID,
			Name:         row.Name,
			OwnerID:      row.OwnerID,
		})
	}

	return out, nil
}

func (r *ConferenceRepository) ListSeasons(ctx context.Context) ([]string, error) {
	var seasons []string
	query := `SELECT DISTINCT season FROM conferences WHERE deleted_at IS NULL ORDER BY season`
	if err := r.db.SelectContext(ctx, &seasons, query); err != nil {
		return nil, fmt.Errorf("select distinct seasons: %w", err)
	}

	return seasons, nil
}

// UpsertTeams keeps the registry's team names and owners in sync with the
// rosters reported by the upstream platform.
func (r *ConferenceRepository) UpsertTeams(ctx context.Context, items []conference.Team) error {
	for _, item := range items {
		if item.ConferenceID <= 0 || item.RosterID <= 0 {
			continue
		}

		model := conferenceTeamUpsertModel{
			ConferenceID: item.ConferenceID,
			RosterID:     item.RosterID,
			Name:         item.Name,
			OwnerID:      item.OwnerID,
		}

		query, args, err := qb.InsertModel("conference_teams", model, `ON CONFLICT (conference_id, roster_id) WHERE deleted_at IS NULL
DO UPDATE SET
    name = EXCLUDED.name,
    owner_id = EXCLUDED.owner_id,
    updated_at = NOW(),
    deleted_at = NULL`)
		if err != nil {
			return fmt.Errorf("build upsert conference team query: %w", err)
		}

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert conference team conference_id=%d roster_id=%d: %w", item.ConferenceID, item.RosterID, err)
		}
	}

	return nil
}

func mapConferenceRow(row conferenceTableModel) conference.Conference {
	return conference.Conference{
		ID:       row.ID,
		Season:   row.Season,
		Name:     row.Name,
		LeagueID: row.SleeperLeagueID,
	}
}
