package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
)

// ConferenceService exposes the conference registry to the interface layer
// and turns request-level scope parameters into a concrete conference set.
type ConferenceService struct {
	registry conference.Repository
	provider RosterSourceProvider
}

func NewConferenceService(registry conference.Repository, provider RosterSourceProvider) *ConferenceService {
	return &ConferenceService{
		registry: registry,
		provider: provider,
	}
}

func (s *ConferenceService) ListSeasons(ctx context.Context) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConferenceService.ListSeasons")
	defer span.End()

	seasons, err := s.registry.ListSeasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(seasons)))

	return seasons, nil
}

func (s *ConferenceService) ListConferences(ctx context.Context, season string) ([]conference.Conference, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConferenceService.ListConferences")
	defer span.End()

	season = strings.TrimSpace(season)
	if season == "" {
		return nil, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}

	conferences, err := s.registry.ListBySeason(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("list conferences season=%s: %w", season, err)
	}

	return conferences, nil
}

func (s *ConferenceService) GetConference(ctx context.Context, conferenceID int64) (conference.Conference, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConferenceService.GetConference")
	defer span.End()

	if conferenceID <= 0 {
		return conference.Conference{}, fmt.Errorf("%w: conference id must be positive", ErrInvalidInput)
	}

	conf, exists, err := s.registry.GetByID(ctx, conferenceID)
	if err != nil {
		return conference.Conference{}, fmt.Errorf("get conference: %w", err)
	}
	if !exists {
		return conference.Conference{}, fmt.Errorf("%w: conference=%d", ErrNotFound, conferenceID)
	}

	return conf, nil
}

func (s *ConferenceService) ListTeams(ctx context.Context, conferenceID int64) ([]conference.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConferenceService.ListTeams")
	defer span.End()

	if _, err := s.GetConference(ctx, conferenceID); err != nil {
		return nil, err
	}

	teams, err := s.registry.ListTeams(ctx, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("list teams conference=%d: %w", conferenceID, err)
	}

	return teams, nil
}

// ResolveScope turns request parameters into the conference set everything
// downstream operates on. With no explicit ids the whole season is in
// scope; explicit ids are validated against the season's registry entries.
func (s *ConferenceService) ResolveScope(ctx context.Context, season string, conferenceIDs []int64) ([]conference.Conference, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConferenceService.ResolveScope")
	defer span.End()

	all, err := s.ListConferences(ctx, season)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: season=%s", ErrNoConferences, strings.TrimSpace(season))
	}
	if len(conferenceIDs) == 0 {
		return all, nil
	}

	byID := make(map[int64]conference.Conference, len(all))
	for _, conf := range all {
		byID[conf.ID] = conf
	}

	scope := make([]conference.Conference, 0, len(conferenceIDs))
	seen := make(map[int64]struct{}, len(conferenceIDs))
	for _, id := range conferenceIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		conf, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: conference=%d season=%s", ErrNotFound, id, season)
		}
		scope = append(scope, conf)
	}

	return scope, nil
}

// LeagueDetails fetches the live platform view of one conference's league.
func (s *ConferenceService) LeagueDetails(ctx context.Context, conferenceID int64) (ExternalLeague, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConferenceService.LeagueDetails")
	defer span.End()

	conf, err := s.GetConference(ctx, conferenceID)
	if err != nil {
		return ExternalLeague{}, err
	}
	if s.provider == nil {
		return ExternalLeague{}, fmt.Errorf("%w: no roster source configured", ErrDependencyUnavailable)
	}

	details, err := s.provider.FetchLeague(ctx, conf.LeagueID)
	if err != nil {
		return ExternalLeague{}, fmt.Errorf("fetch league details conference=%d: %w", conferenceID, err)
	}

	return details, nil
}
