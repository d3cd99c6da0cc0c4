package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/fortifiedfantasy/fein-engine/external/espn"
	"github.com/fortifiedfantasy/fein-engine/external/sleeper"
	"github.com/fortifiedfantasy/fein-engine/internal/config"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/snapshot"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/sportcatalog"
	"github.com/fortifiedfantasy/fein-engine/internal/domain/teamowner"
	"github.com/fortifiedfantasy/fein-engine/internal/infrastructure/jobqueue"
	cacherepo "github.com/fortifiedfantasy/fein-engine/internal/infrastructure/repository/cache"
	"github.com/fortifiedfantasy/fein-engine/internal/infrastructure/repository/postgres"
	"github.com/fortifiedfantasy/fein-engine/internal/interfaces/httpapi"
	basecache "github.com/fortifiedfantasy/fein-engine/internal/platform/cache"
	idgen "github.com/fortifiedfantasy/fein-engine/internal/platform/id"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/logging"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/resilience"
	"github.com/fortifiedfantasy/fein-engine/internal/usecase"
)

// App bundles the HTTP server with the resources main has to release
// after the server drains: the job dispatcher first, then the database
// handle.
type App struct {
	Server     *http.Server
	Dispatcher *jobqueue.Dispatcher
	DB         *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := otelsqlx.Connect("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	vault := postgres.NewCredentialRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)

	var (
		snapshots snapshot.Repository     = postgres.NewSnapshotRepository(db)
		owners    teamowner.Repository    = postgres.NewTeamOwnerRepository(db)
		catalog   sportcatalog.Repository = postgres.NewSportCatalogRepository(db)
	)
	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		snapshots = cacherepo.NewSnapshotRepository(snapshots, store)
		owners = cacherepo.NewTeamOwnerRepository(owners, store)
		catalog = cacherepo.NewSportCatalogRepository(catalog, store)
	}

	providerCacheTTL := cfg.CacheTTL
	if !cfg.CacheEnabled {
		providerCacheTTL = 0
	}
	espnClient := espn.NewClient(espn.ClientConfig{
		ReadsBaseURL: cfg.ESPNReadsBaseURL,
		FanBaseURL:   cfg.ESPNFanBaseURL,
		SoftTimeout:  cfg.ESPNSoftTimeout,
		HardTimeout:  cfg.ESPNHardTimeout,
		UserAgent:    cfg.ESPNUserAgent,
		CacheTTL:     providerCacheTTL,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ESPNCircuitEnabled,
			FailureThreshold: cfg.ESPNCircuitFailureCount,
			OpenTimeout:      cfg.ESPNCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ESPNCircuitHalfOpenMaxReq,
		},
	})
	sleeperClient := sleeper.NewClient(sleeper.ClientConfig{
		BaseURL: cfg.SleeperBaseURL,
		Timeout: cfg.SleeperTimeout,
		Name:    cfg.ServiceName,
		Logger:  logger,
	})

	dispatcher, err := jobqueue.NewDispatcher(jobqueue.DispatcherConfig{
		Workers:    cfg.DispatchWorkers,
		JobTimeout: cfg.DispatchJobTimeout,
	}, idgen.NewRandomGenerator(), logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}

	credentialSvc := usecase.NewCredentialService(vault, logger)
	sessionSvc := usecase.NewSessionService(sessionRepo, logger)
	ownerSvc := usecase.NewOwnerService(vault, owners, logger)
	catalogSvc := usecase.NewCatalogService(catalog)
	discoverySvc := usecase.NewDiscoveryService(espnClient, usecase.DiscoveryConfig{
		Sports:       cfg.DiscoverySports,
		SeasonWindow: cfg.DiscoverySeasonWindow,
		Workers:      cfg.DiscoveryWorkers,
	}, logger)
	ingestSvc := usecase.NewIngestService(
		espnClient,
		ownerSvc,
		discoverySvc,
		catalogSvc,
		snapshots,
		dispatcher,
		usecase.IngestConfig{Workers: cfg.IngestWorkers},
		logger,
	)
	teamSvc := usecase.NewTeamQueryService(espnClient, sleeperClient, snapshots, logger)

	handler := httpapi.NewHandler(
		credentialSvc,
		ingestSvc,
		ownerSvc,
		teamSvc,
		catalogSvc,
		sessionSvc,
		httpapi.CookieConfig{
			Secure:          cfg.CookieSecure,
			Domain:          cfg.CookieDomain,
			MaxAge:          cfg.CookieMaxAge,
			DefaultRedirect: cfg.LinkDefaultRedirect,
		},
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		dispatcher.Close()
		db.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:     server,
		Dispatcher: dispatcher,
		DB:         db,
	}, nil
}

// Close waits for queued jobs, then releases the database handle. Call
// it only after the HTTP server has stopped accepting requests.
func (a *App) Close() error {
	a.Dispatcher.Close()
	return a.DB.Close()
}
