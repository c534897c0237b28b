package memory

import (
	"context"
	"testing"

	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
)

func TestConferenceRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewConferenceRepository(SeedConferences(), SeedTeams())

	t.Run("list by season", func(t *testing.T) {
		items, err := repo.ListBySeason(ctx, "2025")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("expected 3 conferences for 2025, got %d", len(items))
		}
		for _, item := range items {
			if item.Season != "2025" {
				t.Fatalf("unexpected season in result: %+v", item)
			}
		}
	})

	t.Run("list by unknown season is empty", func(t *testing.T) {
		items, err := repo.ListBySeason(ctx, "2019")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 0 {
			t.Fatalf("expected no conferences, got %d", len(items))
		}
	})

	t.Run("get by id", func(t *testing.T) {
		item, exists, err := repo.GetByID(ctx, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !exists || item.Name != "The Guardians of Jupiter" {
			t.Fatalf("unexpected conference: exists=%v item=%+v", exists, item)
		}

		_, exists, err = repo.GetByID(ctx, 999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if exists {
			t.Fatal("expected missing conference")
		}
	})

	t.Run("list teams", func(t *testing.T) {
		teams, err := repo.ListTeams(ctx, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(teams) != 4 {
			t.Fatalf("expected 4 teams, got %d", len(teams))
		}
	})

	t.Run("list seasons sorted distinct", func(t *testing.T) {
		seasons, err := repo.ListSeasons(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seasons) != 2 || seasons[0] != "2024" || seasons[1] != "2025" {
			t.Fatalf("unexpected seasons: %+v", seasons)
		}
	})

	t.Run("upsert teams updates and appends", func(t *testing.T) {
		err := repo.UpsertTeams(ctx, []conference.Team{
			{RosterID: 1, ConferenceID: 1, Name: "Praetorian Guard Reborn", OwnerID: "owner-mars-01"},
			{RosterID: 5, ConferenceID: 1, Name: "Legion Expansion", OwnerID: "owner-mars-05"},
			{RosterID: 0, ConferenceID: 1, Name: "dropped", OwnerID: "nobody"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		teams, err := repo.ListTeams(ctx, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(teams) != 5 {
			t.Fatalf("expected 5 teams after upsert, got %d", len(teams))
		}
		if teams[0].Name != "Praetorian Guard Reborn" {
			t.Fatalf("expected updated name, got %q", teams[0].Name)
		}
	})
}
