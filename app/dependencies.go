package app

import (
	"context"
	"fmt"

	"github.com/relayforge/llm-fallback-gateway/auth"
	"github.com/relayforge/llm-fallback-gateway/config"
	"github.com/relayforge/llm-fallback-gateway/middleware"
	"github.com/relayforge/llm-fallback-gateway/models"
	"github.com/relayforge/llm-fallback-gateway/repositories"
	"github.com/relayforge/llm-fallback-gateway/repositories/postgres"
	"github.com/relayforge/llm-fallback-gateway/services/catalog"
	"github.com/relayforge/llm-fallback-gateway/services/costtrack"
	"github.com/relayforge/llm-fallback-gateway/services/fallback"
	"github.com/relayforge/llm-fallback-gateway/services/performance"
	"github.com/relayforge/llm-fallback-gateway/services/providers"
	"github.com/relayforge/llm-fallback-gateway/services/providers/openai"
	"github.com/relayforge/llm-fallback-gateway/services/retry"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies. This is the central
// wiring point; nothing in the services packages reaches for globals.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when persistence is disabled
	Logger *zap.Logger

	// Repositories
	RequestLogs repositories.RequestLogRepository // nil when persistence is disabled

	// Routing collaborators
	Catalog          *catalog.Catalog
	Tracker          *performance.Tracker
	CostRecorder     *costtrack.Recorder
	RetryExecutor    *retry.Executor
	Orchestrator     *fallback.Orchestrator
	ProviderRegistry *providers.Registry

	// Auth
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initCatalog()
	deps.initRouting(cfg)

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase opens the request-log database when configured. A blank
// DATABASE_URL disables persistence rather than failing startup.
func (d *Dependencies) initDatabase(cfg *config.Config) error {
	if cfg.Database.ConnectionString == "" {
		d.Logger.Info("no database configured, request-log persistence disabled")
		return nil
	}

	db, err := postgres.NewDB(postgres.Config{
		ConnectionString: cfg.Database.ConnectionString,
		MaxOpenConns:     cfg.Database.MaxOpenConns,
		MaxIdleConns:     cfg.Database.MaxIdleConns,
		ConnMaxLifetime:  cfg.Database.ConnMaxLifetime,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = db
	d.RequestLogs = postgres.NewRequestLogRepository(db.DB, d.Logger)
	return nil
}

// initCatalog seeds the model catalog and the default chain. The seed
// set mirrors the providers the gateway knows how to call; deployments
// add chains at runtime through the admin API.
func (d *Dependencies) initCatalog() {
	cat := catalog.New()

	cat.RegisterModel(&models.ModelDescriptor{
		ID:       "gpt-4o",
		Provider: "openai",
		Name:     "gpt-4o",
		CostTier: models.CostTierHigh,
		Capabilities: []models.Capability{
			models.CapabilityText,
			models.CapabilityVision,
			models.CapabilityFunctionCalling,
			models.CapabilityReasoning,
		},
		MaxTokens: 128000,
	})
	cat.RegisterModel(&models.ModelDescriptor{
		ID:       catalog.DefaultModelID,
		Provider: "openai",
		Name:     "gpt-4o-mini",
		CostTier: models.CostTierLow,
		Capabilities: []models.Capability{
			models.CapabilityText,
			models.CapabilityVision,
			models.CapabilityFunctionCalling,
		},
		MaxTokens: 128000,
	})
	cat.RegisterModel(&models.ModelDescriptor{
		ID:       "gpt-4-turbo",
		Provider: "openai",
		Name:     "gpt-4-turbo",
		CostTier: models.CostTierMedium,
		Capabilities: []models.Capability{
			models.CapabilityText,
			models.CapabilityVision,
			models.CapabilityFunctionCalling,
		},
		MaxTokens: 128000,
	})
	cat.RegisterModel(&models.ModelDescriptor{
		ID:       "o3-mini",
		Provider: "openai",
		Name:     "o3-mini",
		CostTier: models.CostTierMedium,
		Capabilities: []models.Capability{
			models.CapabilityText,
			models.CapabilityReasoning,
		},
		MaxTokens: 200000,
	})

	if err := cat.AddChain(&models.ChainDescriptor{
		Name:    "default",
		Models:  []string{"gpt-4o", "gpt-4-turbo", catalog.DefaultModelID},
		UseCase: "general chat traffic",
	}); err != nil {
		// Seed data is static; a failure here is a programming error.
		d.Logger.Error("failed to seed default chain", zap.Error(err))
	}
	if err := cat.AddChain(&models.ChainDescriptor{
		Name:    "reasoning",
		Models:  []string{"o3-mini", "gpt-4o", catalog.DefaultModelID},
		UseCase: "multi-step analytical queries",
	}); err != nil {
		d.Logger.Error("failed to seed reasoning chain", zap.Error(err))
	}

	d.Catalog = cat
	d.Logger.Info("catalog seeded",
		zap.Int("models", len(cat.ListModels())),
		zap.Int("chains", len(cat.ListChains())))
}

// initRouting wires the performance tracker, cost recorder, retry
// executor and fallback orchestrator.
func (d *Dependencies) initRouting(cfg *config.Config) {
	d.Tracker = performance.NewTracker()
	d.CostRecorder = costtrack.NewRecorder(d.Logger)
	d.RetryExecutor = retry.NewExecutor(retry.Config{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		BaseDelay:       cfg.Retry.BaseDelay,
		MaxDelay:        cfg.Retry.MaxDelay,
		ExponentialBase: cfg.Retry.ExponentialBase,
		Jitter:          cfg.Retry.Jitter,
		AttemptTimeout:  cfg.Retry.AttemptTimeout,
	}, d.Logger)
	d.Orchestrator = fallback.NewOrchestrator(
		d.Catalog, d.Tracker, d.CostRecorder, d.RetryExecutor, d.Logger)
}

// initProviders registers the configured LLM providers
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry := providers.NewRegistry()

	if cfg.Providers.OpenAI.APIKey != "" {
		adapter := openai.New(openai.Config{
			APIKey:  cfg.Providers.OpenAI.APIKey,
			BaseURL: cfg.Providers.OpenAI.BaseURL,
			Timeout: cfg.Providers.OpenAI.Timeout,
		})
		if err := registry.Register(adapter); err != nil {
			return err
		}
		d.Logger.Info("registered OpenAI provider")
	}

	if registry.Count() == 0 {
		d.Logger.Warn("no LLM providers configured")
	}

	d.ProviderRegistry = registry
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	if !cfg.Auth.Enabled() {
		d.Logger.Warn("JWT secret not configured, protected routes will reject all requests")
		d.AuthMiddleware = middleware.NewAuthMiddleware(&rejectAllValidator{}, d.Logger)
		return
	}

	validator := auth.NewJWTValidator([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, cfg.Auth.Audience)
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
	d.Logger.Info("JWT authentication initialized")
}

// rejectAllValidator rejects all tokens (used when auth is not configured)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*middleware.Claims, error) {
	return nil, fmt.Errorf("authentication not configured")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
