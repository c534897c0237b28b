package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/charlesoneill4277/gladiator-league/internal/infrastructure/repository/memory"
	"github.com/charlesoneill4277/gladiator-league/internal/platform/logging"
	"github.com/charlesoneill4277/gladiator-league/internal/usecase"
)

type fakeProvider struct {
	rostersByLeague map[string][]usecase.ExternalRoster
	leaguesByID     map[string]usecase.ExternalLeague
	failing         map[string]error
}

func (f *fakeProvider) FetchRosters(_ context.Context, leagueID string) ([]usecase.ExternalRoster, error) {
	if err, down := f.failing[leagueID]; down {
		return nil, err
	}
	return f.rostersByLeague[leagueID], nil
}

func (f *fakeProvider) FetchLeague(_ context.Context, leagueID string) (usecase.ExternalLeague, error) {
	if err, down := f.failing[leagueID]; down {
		return usecase.ExternalLeague{}, err
	}
	league, ok := f.leaguesByID[leagueID]
	if !ok {
		return usecase.ExternalLeague{}, fmt.Errorf("league %s not found upstream", leagueID)
	}
	return league, nil
}

func newTestRouter(t *testing.T, provider *fakeProvider) http.Handler {
	t.Helper()

	registry := memory.NewConferenceRepository(memory.SeedConferences(), memory.SeedTeams())
	logger := logging.NewNop()

	aggregator := usecase.NewRosterAggregator(provider, registry, 4, logger)
	rosterCache := usecase.NewRosterCacheService(aggregator, usecase.RosterCacheConfig{}, logger)
	conferenceService := usecase.NewConferenceService(registry, provider)
	statusService := usecase.NewPlayerStatusService(rosterCache, logger)
	refreshService := usecase.NewRosterRefreshService(registry, rosterCache, logger)

	handler := NewHandler(conferenceService, statusService, rosterCache, refreshService, nil, "2025", logger)
	return NewRouter(handler, logger, true, []string{"*"}, "job-secret")
}

func defaultTestProvider() *fakeProvider {
	return &fakeProvider{
		rostersByLeague: map[string][]usecase.ExternalRoster{
			"1180276953741429760": {
				{RosterID: 1, OwnerID: "owner-mars-01", Players: []string{"4046", "6794"}, Starters: []string{"4046"}},
			},
			"1180276953741429761": {
				{RosterID: 2, OwnerID: "owner-jupiter-02", Players: []string{"4046", "8122"}, Starters: []string{"8122"}},
			},
			"1180276953741429762": {
				{RosterID: 3, OwnerID: "owner-vulcan-03", Players: []string{"9988"}, Starters: nil},
			},
		},
		leaguesByID: map[string]usecase.ExternalLeague{
			"1180276953741429760": {LeagueID: "1180276953741429760", Name: "The Legions of Mars", Season: "2025", Status: "in_season", TotalRosters: 12},
		},
		failing: map[string]error{},
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestRouter_SeasonsAndConferences(t *testing.T) {
	router := newTestRouter(t, defaultTestProvider())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/seasons", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if got, _ := data["defaultSeason"].(string); got != "2025" {
		t.Fatalf("unexpected default season: %v", data["defaultSeason"])
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/conferences?season=2025", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	items, _ := decodeEnvelope(t, rec)["data"].([]any)
	if len(items) != 3 {
		t.Fatalf("expected 3 conferences, got %d", len(items))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/conferences/999", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown conference, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/conferences/1/teams", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	teams, _ := decodeEnvelope(t, rec)["data"].([]any)
	if len(teams) != 4 {
		t.Fatalf("expected 4 teams, got %d", len(teams))
	}
}

func TestRouter_PlayerStatus(t *testing.T) {
	router := newTestRouter(t, defaultTestProvider())

	t.Run("multi conference player", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/4046/status?season=2025", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
		if rostered, _ := data["isRostered"].(bool); !rostered {
			t.Fatalf("expected player to be rostered: %+v", data)
		}
		if multi, _ := data["isMultiTeam"].(bool); !multi {
			t.Fatalf("expected multi-team flag: %+v", data)
		}
		teams, _ := data["teams"].([]any)
		if len(teams) != 2 {
			t.Fatalf("expected 2 associations, got %d", len(teams))
		}
		primary, _ := data["primaryTeam"].(map[string]any)
		if name, _ := primary["teamName"].(string); name != "Praetorian Guard" {
			t.Fatalf("unexpected primary team: %v", primary)
		}
		if freshness, _ := data["freshness"].(string); freshness != "live" {
			t.Fatalf("expected live freshness right after load, got %v", data["freshness"])
		}
	})

	t.Run("unknown player resolves to free agent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/nobody-123/status", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
		if rostered, _ := data["isRostered"].(bool); rostered {
			t.Fatalf("expected free agent: %+v", data)
		}
	})

	t.Run("empty scope is a precondition failure", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/4046/status?season=1999", nil))
		if rec.Code != http.StatusPreconditionFailed {
			t.Fatalf("expected 412, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("invalid conference filter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/players/4046/status?conferences=abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestRouter_BatchPlayerStatus(t *testing.T) {
	router := newTestRouter(t, defaultTestProvider())

	body := strings.NewReader(`{"season":"2025","playerIds":["4046","9988","4046","ghost"]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/players/status/batch", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	items, _ := decodeEnvelope(t, rec)["data"].([]any)
	if len(items) != 4 {
		t.Fatalf("expected one record per requested id, got %d", len(items))
	}

	t.Run("missing player ids rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/players/status/batch", strings.NewReader(`{"season":"2025"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestRouter_RefreshAndMetrics(t *testing.T) {
	router := newTestRouter(t, defaultTestProvider())

	req := httptest.NewRequest(http.MethodPost, "/v1/rosters/refresh", strings.NewReader(`{"seasons":["2025"]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if got, _ := data["season_count"].(float64); got != 1 {
		t.Fatalf("unexpected season count: %v", data["season_count"])
	}
	if got, _ := data["failed_count"].(float64); got != 0 {
		t.Fatalf("unexpected failed count: %v", data["failed_count"])
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rosters/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	metrics, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	cacheStats, _ := metrics["cache"].(map[string]any)
	if got, _ := cacheStats["load_count"].(float64); got < 1 {
		t.Fatalf("expected at least one recorded load: %v", cacheStats)
	}
}

func TestRouter_InternalRefreshJob(t *testing.T) {
	router := newTestRouter(t, defaultTestProvider())

	t.Run("requires token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh-rosters", strings.NewReader(`{"seasons":["2025"]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("runs the sweep with a valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh-rosters", strings.NewReader(`{"seasons":["2025"],"dispatch_id":"refresh-rosters-2025-20260301T180000Z"}`))
		req.Header.Set("X-Internal-Job-Token", "job-secret")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
		refresh, _ := data["refresh"].(map[string]any)
		if got, _ := refresh["success_count"].(float64); got != 1 {
			t.Fatalf("unexpected refresh result: %v", refresh)
		}
	})
}

func TestRouter_ConferenceLeagueProxy(t *testing.T) {
	provider := defaultTestProvider()
	router := newTestRouter(t, provider)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/conferences/1/league", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if got, _ := data["totalRosters"].(float64); got != 12 {
		t.Fatalf("unexpected league details: %v", data)
	}
	if got, _ := data["status"].(string); got != "in_season" {
		t.Fatalf("unexpected league status: %v", data["status"])
	}
}

func TestRouter_HealthzBypassesEnvelopeError(t *testing.T) {
	router := newTestRouter(t, defaultTestProvider())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected healthz body: %s", rec.Body.String())
	}
}

func TestParseConferenceIDs(t *testing.T) {
	ids, err := parseConferenceIDs(" 1, 2 ,3 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Fatalf("unexpected ids: %v", ids)
	}

	if _, err := parseConferenceIDs("1,x"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
	if _, err := parseConferenceIDs("0"); err == nil {
		t.Fatal("expected error for non-positive id")
	}

	ids, err = parseConferenceIDs("")
	if err != nil || ids != nil {
		t.Fatalf("expected empty parse, got %v %v", ids, err)
	}
}
