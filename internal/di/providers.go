package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/veyucu/fastits/internal/app"
	"github.com/veyucu/fastits/internal/config"
	"github.com/veyucu/fastits/internal/database"
	"github.com/veyucu/fastits/internal/http/handler"
	"github.com/veyucu/fastits/internal/http/middleware"
	"github.com/veyucu/fastits/internal/http/router"
	"github.com/veyucu/fastits/internal/observability"
	"github.com/veyucu/fastits/internal/repository"
	"github.com/veyucu/fastits/internal/service"
)

var ConfigSet = wire.NewSet(provideConfig)

var ObservabilitySet = wire.NewSet(provideLogger, provideRuntime)

var RuntimeInfraSet = wire.NewSet(provideOpenDB, provideRedisClient)

var RepositorySet = wire.NewSet(
	repository.NewShipmentRepository,
	repository.NewReceiptRepository,
)

var ServiceSet = wire.NewSet(
	provideManifestArchive,
	provideScopeLocker,
	provideUnitStatusSubmitter,
	service.NewIngestService,
	service.NewNotificationService,
	service.NewReceivingService,
)

var HTTPSet = wire.NewSet(
	handler.NewTransferHandler,
	handler.NewReceiptHandler,
	provideRouterDependencies,
	router.New,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideConfig() (*config.Config, error) {
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return observability.InitLogger(cfg)
}

func provideRuntime(cfg *config.Config, logger *slog.Logger) (*observability.Runtime, error) {
	return observability.InitRuntime(context.Background(), cfg, logger)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// provideRedisClient returns nil when Redis is disabled; consumers fall
// back to their process-local implementations.
func provideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.RedisEnabled {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
}

func provideScopeLocker(cfg *config.Config, client *redis.Client) service.ScopeLocker {
	if client == nil {
		return service.NewLocalScopeLocker()
	}
	return service.NewRedisScopeLocker(client, cfg.ScopeLockTTL)
}

func provideManifestArchive(cfg *config.Config, logger *slog.Logger) (service.ManifestArchive, error) {
	if !cfg.ArchiveEnabled {
		logger.Info("manifest archiving disabled")
		return service.NewNoopManifestArchive(), nil
	}
	return service.NewMinIOManifestArchive(
		cfg.ArchiveEndpoint,
		cfg.ArchiveAccessKey,
		cfg.ArchiveSecretKey,
		cfg.ArchiveBucket,
		cfg.ArchiveUseSSL,
	)
}

func provideUnitStatusSubmitter() service.UnitStatusSubmitter {
	return service.NewNoopUnitStatusSubmitter()
}

func provideRouterDependencies(
	transfers *handler.TransferHandler,
	receipts *handler.ReceiptHandler,
	logger *slog.Logger,
	client *redis.Client,
	cfg *config.Config,
) router.Dependencies {
	newLimiter := func(perMin int, scope string) *middleware.RateLimiter {
		if client != nil {
			return middleware.NewDistributedRateLimiter(
				middleware.NewRedisFixedWindowLimiter(client, "rl"),
				perMin, time.Minute, middleware.FailOpen, scope, logger,
			)
		}
		return middleware.NewDistributedRateLimiter(
			middleware.NewLocalFixedWindowLimiter(),
			perMin, time.Minute, middleware.FailClosed, scope, logger,
		)
	}
	return router.Dependencies{
		Transfers:       transfers,
		Receipts:        receipts,
		Logger:          logger,
		APIRateLimit:    newLimiter(cfg.APIRateLimitPerMin, "api"),
		IngestRateLimit: newLimiter(cfg.IngestRateLimitPerMin, "ingest"),
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// MigrationRunner applies the schema and exits; used by the migrate
// subcommand so deployments can run migrations before rollout.
type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (m *MigrationRunner) Run() error {
	return database.Migrate(m.db)
}
