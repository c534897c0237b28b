package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/charlesoneill4277/gladiator-league/external/jobqueue"
	"github.com/charlesoneill4277/gladiator-league/external/sleeper"
	"github.com/charlesoneill4277/gladiator-league/internal/config"
	"github.com/charlesoneill4277/gladiator-league/internal/domain/conference"
	"github.com/charlesoneill4277/gladiator-league/internal/domain/jobscheduler"
	"github.com/charlesoneill4277/gladiator-league/internal/domain/roster"
	cacherepo "github.com/charlesoneill4277/gladiator-league/internal/infrastructure/repository/cache"
	"github.com/charlesoneill4277/gladiator-league/internal/infrastructure/repository/memory"
	"github.com/charlesoneill4277/gladiator-league/internal/infrastructure/repository/postgres"
	"github.com/charlesoneill4277/gladiator-league/internal/interfaces/httpapi"
	basecache "github.com/charlesoneill4277/gladiator-league/internal/platform/cache"
	"github.com/charlesoneill4277/gladiator-league/internal/platform/logging"
	"github.com/charlesoneill4277/gladiator-league/internal/platform/resilience"
	"github.com/charlesoneill4277/gladiator-league/internal/usecase"

	_ "github.com/lib/pq"
)

// App owns the wired service graph plus the resources that need explicit
// shutdown: the HTTP server, the background sync loop and the DB pool.
type App struct {
	Server *http.Server

	cfg         config.Config
	logger      *logging.Logger
	db          *sqlx.DB
	rosterCache *usecase.RosterCacheService
	scheduler   *usecase.RosterJobScheduler
	syncScope   []conference.Conference
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	registry, db, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	provider := sleeper.NewClient(sleeper.ClientConfig{
		BaseURL:    cfg.SleeperBaseURL,
		Timeout:    cfg.SleeperTimeout,
		MaxRetries: cfg.SleeperMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SleeperCircuitEnabled,
			FailureThreshold: cfg.SleeperCircuitFailureCount,
			OpenTimeout:      cfg.SleeperCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SleeperCircuitHalfOpenMaxReq,
		},
	})

	aggregator := usecase.NewRosterAggregator(provider, registry, cfg.RosterMaxConcurrentFetches, logger)
	rosterCache := usecase.NewRosterCacheService(aggregator, usecase.RosterCacheConfig{
		Freshness: roster.FreshnessThresholds{
			Live:   cfg.RosterFreshnessLive,
			Recent: cfg.RosterFreshnessRecent,
		},
		StaleTolerance: cfg.RosterStaleTolerance,
		SyncInterval:   cfg.RosterSyncInterval,
	}, logger)

	conferenceSvc := usecase.NewConferenceService(registry, provider)
	statusSvc := usecase.NewPlayerStatusService(rosterCache, logger)
	refreshSvc := usecase.NewRosterRefreshService(registry, rosterCache, logger)

	var dispatchRepo jobscheduler.Repository
	if db != nil {
		dispatchRepo = postgres.NewJobDispatchRepository(db)
	}

	var scheduler *usecase.RosterJobScheduler
	if cfg.QStashEnabled {
		publisher := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, logger)
		scheduler = usecase.NewRosterJobScheduler(publisher, dispatchRepo, usecase.JobSchedulerConfig{
			RefreshInterval: cfg.JobRefreshInterval,
		}, logger)
	}

	handler := httpapi.NewHandler(
		conferenceSvc,
		statusSvc,
		rosterCache,
		refreshSvc,
		scheduler,
		cfg.DefaultSeason,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	app := &App{
		Server:      server,
		cfg:         cfg,
		logger:      logger,
		db:          db,
		rosterCache: rosterCache,
	}
	app.scheduler = scheduler

	if cfg.RosterSyncEnabled {
		scope, err := registry.ListBySeason(context.Background(), cfg.DefaultSeason)
		if err != nil {
			return nil, fmt.Errorf("resolve background sync scope: %w", err)
		}
		app.syncScope = scope
	}

	return app, nil
}

// Start kicks off the background loops that live beyond a single request:
// the roster sync ticker and, when QStash is configured, the refresh job
// chain bootstrap.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.RosterSyncEnabled {
		if len(a.syncScope) == 0 {
			a.logger.WarnContext(ctx, "background sync enabled but no conferences in default season",
				"season", a.cfg.DefaultSeason,
			)
		} else if err := a.rosterCache.StartBackgroundSync(a.syncScope, a.cfg.RosterSyncInterval); err != nil {
			return fmt.Errorf("start background sync: %w", err)
		}
	}

	if a.scheduler != nil {
		if _, err := a.scheduler.Bootstrap(ctx, nil); err != nil {
			// The chain self-heals on the next manual refresh; starting the
			// API matters more than priming the queue.
			a.logger.WarnContext(ctx, "bootstrap refresh job chain failed", "error", err)
		}
	}

	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.rosterCache.StopBackgroundSync()

	if err := a.Server.Shutdown(ctx); err != nil {
		return err
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("close db: %w", err)
		}
	}

	return nil
}

// buildRegistry selects the conference registry backend. Postgres gets the
// otel-instrumented pool, bootstrap seed and optionally the TTL cache
// decorator; memory serves dev and tests.
func buildRegistry(cfg config.Config) (conference.Repository, *sqlx.DB, error) {
	if cfg.RepositoryDriver == config.DriverMemory {
		return memory.NewConferenceRepository(memory.SeedConferences(), memory.SeedTeams()), nil, nil
	}

	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dbURL,
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres pool: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSeed()
	if err := postgres.BootstrapSeed(seedCtx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	base := postgres.NewConferenceRepository(db)
	if !cfg.CacheEnabled {
		return base, db, nil
	}

	return cacherepo.NewConferenceRepository(base, basecache.NewStore(cfg.CacheTTL)), db, nil
}
