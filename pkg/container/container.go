package container

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"zkreview-backend/internal/config"
	infraCache "zkreview-backend/internal/infrastructure/cache"
	"zkreview-backend/internal/infrastructure/database"
	"zkreview-backend/internal/infrastructure/ledger"
	"zkreview-backend/internal/infrastructure/zkverify"
	"zkreview-backend/pkg/cache"
	"zkreview-backend/pkg/jwt"

	productHandler "zkreview-backend/internal/domains/product/handler"
	productRepo "zkreview-backend/internal/domains/product/repository"
	productService "zkreview-backend/internal/domains/product/service"
	reviewHandler "zkreview-backend/internal/domains/review/handler"
	reviewRepo "zkreview-backend/internal/domains/review/repository"
	reviewService "zkreview-backend/internal/domains/review/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph. Exactly one of DB/Ledger
// is populated, chosen by APP_BACKEND; both submission-store strategies
// feed the same orchestrator.
type Container struct {
	// Infrastructure layer
	Config     *config.Config
	DB         *database.PostgresDB // postgres backend only
	Ledger     *ledger.Store        // ledger backend only
	Cache      cache.Cache
	JWTManager *jwt.Manager
	Verifier   zkverify.Service

	// Repository layer
	SubmissionStore reviewRepo.SubmissionStore
	ProductRepo     productRepo.ProductRepository

	// Service layer
	ReviewService  reviewService.ServiceInterface
	ProductService productService.ServiceInterface

	// Handler layer
	ReviewHandler  *reviewHandler.ReviewHandler
	ProductHandler *productHandler.ProductHandler
}

// ========================================
// CONSTRUCTOR
// ========================================

// NewContainer builds the whole dependency graph in order: config, then
// infrastructure, then repositories, services, handlers.
func NewContainer() (*Container, error) {
	c := &Container{}

	// Step 1: Configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Info().
		Str("environment", cfg.App.Environment).
		Str("backend", cfg.App.Backend).
		Msg("config loaded")

	// Step 2: Storage backend
	if err := c.initStorage(); err != nil {
		return nil, err
	}

	// Step 3: Cache. Redis being down is not fatal; every cache use is
	// advisory.
	redisCache := infraCache.NewRedisCache(
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, continuing without cache connectivity")
	}
	c.Cache = redisCache

	// Step 4: Auth + verifier
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TokenExpiryHours)*time.Hour)

	registry := zkverify.NewSchemaRegistry(zkverify.DefaultSchemas(cfg.Verifier.BlueprintID)...)
	if cfg.Verifier.UseMock {
		log.Warn().Msg("using mock proof verifier")
		c.Verifier = zkverify.NewMockService(registry)
	} else {
		c.Verifier = zkverify.NewClient(cfg.Verifier, registry)
	}

	// Step 5: Repositories
	if err := c.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	// Step 6: Services
	c.ReviewService = reviewService.NewReviewService(
		c.SubmissionStore,
		c.Verifier,
		c.Cache,
		cfg.Verifier.BlueprintID,
	)
	c.ProductService = productService.NewProductService(c.ProductRepo)

	// Step 7: Handlers
	c.ReviewHandler = reviewHandler.NewReviewHandler(c.ReviewService)
	c.ProductHandler = productHandler.NewProductHandler(c.ProductService)

	log.Info().Msg("container initialized")
	return c, nil
}

func (c *Container) initStorage() error {
	switch c.Config.App.Backend {
	case config.BackendPostgres:
		dbConfig, err := config.LoadDatabaseConfig()
		if err != nil {
			return fmt.Errorf("failed to load database config: %w", err)
		}

		db := database.NewPostgresDB(dbConfig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := db.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.HealthCheck(context.Background()); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
		c.DB = db

	case config.BackendLedger:
		store, err := ledger.Open(c.Config.Ledger)
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		c.Ledger = store

	default:
		return fmt.Errorf("unknown backend %q", c.Config.App.Backend)
	}

	return nil
}

func (c *Container) initRepositories() error {
	switch c.Config.App.Backend {
	case config.BackendPostgres:
		c.SubmissionStore = reviewRepo.NewPostgresSubmissionStore(c.DB.Pool)
		c.ProductRepo = productRepo.NewPostgresProductRepository(c.DB.Pool)
	case config.BackendLedger:
		c.SubmissionStore = reviewRepo.NewLedgerSubmissionStore(c.Ledger)
		c.ProductRepo = productRepo.NewLedgerProductRepository(c.Ledger)
	}
	return nil
}

// ========================================
// HEALTH + CLEANUP
// ========================================

// HealthCheck probes the active storage backend.
func (c *Container) HealthCheck(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.HealthCheck(ctx)
	}
	if c.Ledger != nil {
		return c.Ledger.HealthCheck(ctx)
	}
	return fmt.Errorf("no storage backend initialized")
}

// Cleanup releases resources during graceful shutdown.
func (c *Container) Cleanup() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}

	if c.Ledger != nil {
		if err := c.Ledger.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ledger")
		}
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis")
		}
	}

	log.Info().Msg("container cleanup completed")
}
