package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"shoppa-backend/internal/analyzer"
	"shoppa-backend/internal/catalog"
	"shoppa-backend/internal/events"
	"shoppa-backend/internal/faq"
	"shoppa-backend/internal/llm"
	openai "shoppa-backend/internal/llm/openai"
	"shoppa-backend/internal/onboarding"
	"shoppa-backend/internal/recommend"
	"shoppa-backend/internal/searches"
	"shoppa-backend/internal/services/health"
	"shoppa-backend/internal/shared/config"
	"shoppa-backend/internal/shared/resilience"
	"shoppa-backend/internal/shared/server"
	"shoppa-backend/internal/shared/storage/db"
	"shoppa-backend/internal/shared/telemetry"
)

const redisPingTimeout = 3 * time.Second

// App holds shared dependencies and the wired router.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Redis             redis.UniversalClient
	Events            events.Publisher
	Catalog           *catalog.Store
	Analyzer          *analyzer.Analyzer
	Generator         *recommend.Generator
	SearchesService   *searches.Service
	OnboardingService *onboarding.Service
	FAQ               *faq.Cache
}

// Overrides replaces externally backed collaborators, mainly for tests and the
// CLI. Nil fields are built from configuration.
type Overrides struct {
	Primary  llm.Client
	Fallback llm.Client
	Events   events.Publisher
}

// Build wires every dependency from configuration.
func Build(cfg config.Config) (*App, error) {
	return BuildWith(cfg, Overrides{})
}

// BuildWith wires every dependency, preferring the given overrides.
func BuildWith(cfg config.Config, o Overrides) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	store, err := BuildCatalog(cfg)
	if err != nil {
		return nil, err
	}
	primary, fallback, err := BuildProviders(cfg, o)
	if err != nil {
		return nil, err
	}
	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rdb, err := buildRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pub := o.Events
	if pub == nil {
		pub, err = buildEvents(cfg)
		if err != nil {
			return nil, err
		}
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Redis:   rdb,
		Events:  pub,
		Catalog: store,
		FAQ:     faq.NewCache(nil),
	}
	app.Analyzer = analyzer.New(primary.Client, cfg.AnalyzerTimeout)
	app.Generator = &recommend.Generator{
		Catalog:  store,
		Primary:  primary,
		Fallback: fallback,
		Breaker:  resilience.NewBreaker(resilience.DefaultBreakerOptions),
		Events:   pub,
	}

	var searchRepo searches.Repo = searches.NewMemoryRepo()
	if sqlDB != nil {
		searchRepo = &searches.PGRepo{DB: sqlDB}
	}
	searchSvc := searches.NewService(searchRepo)
	app.SearchesService = searchSvc

	var flowStore onboarding.Store = onboarding.NewMemoryStore(cfg.OnboardingTTL)
	if rdb != nil {
		flowStore = onboarding.NewRedisStore(rdb, cfg.OnboardingTTL)
	}
	app.OnboardingService = onboarding.NewService(app.Analyzer, flowStore, pub)
	app.OnboardingService.FAQ = app.FAQ

	app.Router = server.NewRouter(server.RouterDeps{
		Config: cfg,
		Handlers: []server.RouteRegistrar{
			health.NewService(readinessChecks(app)),
			catalog.NewHandler(store),
			analyzer.NewHandler(app.Analyzer, pub),
			onboarding.NewHandler(app.OnboardingService),
			recommend.NewHandler(app.Generator, searchSvc),
			searches.NewHandler(searchSvc),
			faq.NewHandler(app.FAQ),
		},
	})
	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var errs []error
	if a.Events != nil {
		errs = append(errs, a.Events.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func readinessChecks(app *App) map[string]health.Check {
	checks := map[string]health.Check{
		"catalog": func(context.Context) error {
			if app.Catalog.Len() == 0 {
				return catalog.ErrUnavailable
			}
			return nil
		},
	}
	if app.DB != nil {
		checks["postgres"] = app.DB.PingContext
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

// BuildCatalog loads CATALOG_FILE when set and the embedded catalog otherwise.
func BuildCatalog(cfg config.Config) (*catalog.Store, error) {
	if path := strings.TrimSpace(cfg.CatalogFile); path != "" {
		return catalog.LoadFile(path)
	}
	return catalog.Embedded()
}

// BuildProviders returns the primary and fallback providers.
func BuildProviders(cfg config.Config, o Overrides) (recommend.Provider, recommend.Provider, error) {
	primary, err := buildProvider(cfg.Primary, cfg.LLMTimeout, o.Primary)
	if err != nil {
		return recommend.Provider{}, recommend.Provider{}, fmt.Errorf("primary provider: %w", err)
	}
	fallback, err := buildProvider(cfg.Fallback, cfg.LLMTimeout, o.Fallback)
	if err != nil {
		return recommend.Provider{}, recommend.Provider{}, fmt.Errorf("fallback provider: %w", err)
	}
	return primary, fallback, nil
}

func buildProvider(p config.Provider, timeout time.Duration, override llm.Client) (recommend.Provider, error) {
	out := recommend.Provider{Name: p.Name, Model: p.Model, Timeout: timeout, Client: override}
	if override != nil {
		return out, nil
	}
	client, err := openai.NewClient(openai.Options{
		Name:    p.Name,
		APIKey:  p.APIKey,
		Model:   p.Model,
		BaseURL: p.BaseURL,
	})
	if err != nil {
		return recommend.Provider{}, err
	}
	out.Client = client
	return out, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Info("bootstrap.memory_searches", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_searches", map[string]any{"reason": "database connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildRedis(ctx context.Context, cfg config.Config) (redis.UniversalClient, error) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_onboarding", map[string]any{"reason": "redis ping failed", "error": err})
			return nil, nil
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func buildEvents(cfg config.Config) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.LogPublisher{}, nil
	}
	pub, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}
	return pub, nil
}
