package conference

import "context"

// Repository describes conference registry persistence needs from use cases.
type Repository interface {
	ListBySeason(ctx context.Context, season string) ([]Conference, error)
	GetByID(ctx context.Context, conferenceID int64) (Conference, bool, error)
	ListTeams(ctx context.Context, conferenceID int64) ([]Team, error)
	ListSeasons(ctx context.Context) ([]string, error)
}
