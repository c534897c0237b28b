package cache

import (
	"context"
	"strconv"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
	basecache "github.com/charlesoneill4277/gladiator-league/internal/platform/cache"
)

// registryStore is the write surface the decorator needs beyond the
// read-only conference.Repository.
type registryStore interface {
	conference.Repository
	UpsertTeams(ctx context.Context, items []conference.Team) error
}

// ConferenceRepository caches registry lookups in front of the backing
// store. The registry changes rarely, so reads are served from the TTL
// cache and team upserts invalidate the affected keys.
type ConferenceRepository struct {
	next  registryStore
	cache *basecache.Store
}

func NewConferenceRepository(next registryStore, cache *basecache.Store) *ConferenceRepository {
	return &ConferenceRepository{next: next, cache: cache}
}

func (r *ConferenceRepository) ListBySeason(ctx context.Context, season string) ([]conference.Conference, error) {
	key := "conference:list:season:" + season
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListBySeason(ctx, season)
		if err != nil {
			return nil, err
		}
		return append([]conference.Conference(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]conference.Conference)
	return append([]conference.Conference(nil), items...), nil
}

func (r *ConferenceRepository) GetByID(ctx context.Context, conferenceID int64) (conference.Conference, bool, error) {
	key := "conference:id:" + strconv.FormatInt(conferenceID, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, conferenceID)
		if err != nil {
			return nil, err
		}
		return cachedConferenceByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return conference.Conference{}, false, err
	}

	cached, _ := v.(cachedConferenceByID)
	return cached.value, cached.exists, nil
}

func (r *ConferenceRepository) ListTeams(ctx context.Context, conferenceID int64) ([]conference.Team, error) {
	key := conferenceTeamsKey(conferenceID)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListTeams(ctx, conferenceID)
		if err != nil {
			return nil, err
		}
		return append([]conference.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]conference.Team)
	return append([]conference.Team(nil), items...), nil
}

func (r *ConferenceRepository) ListSeasons(ctx context.Context) ([]string, error) {
	v, err := r.cache.GetOrLoad(ctx, "conference:seasons", func(ctx context.Context) (any, error) {
		items, err := r.next.ListSeasons(ctx)
		if err != nil {
			return nil, err
		}
		return append([]string(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]string)
	return append([]string(nil), items...), nil
}

func (r *ConferenceRepository) UpsertTeams(ctx context.Context, items []conference.Team) error {
	if err := r.next.UpsertTeams(ctx, items); err != nil {
		return err
	}

	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ConferenceID]; dup {
			continue
		}
		seen[item.ConferenceID] = struct{}{}
		r.cache.Delete(ctx, conferenceTeamsKey(item.ConferenceID))
	}

	return nil
}

type cachedConferenceByID struct {
	value  conference.Conference
	exists bool
}

func conferenceTeamsKey(conferenceID int64) string {
	return "conference:teams:" + strconv.FormatInt(conferenceID, 10)
}
