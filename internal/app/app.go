package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/pawquest-backend/internal/content"
	"github.com/yungbote/pawquest-backend/internal/data/repos"
	"github.com/yungbote/pawquest-backend/internal/db"
	"github.com/yungbote/pawquest-backend/internal/domain"
	"github.com/yungbote/pawquest-backend/internal/engine"
	"github.com/yungbote/pawquest-backend/internal/handlers"
	"github.com/yungbote/pawquest-backend/internal/memwatch"
	"github.com/yungbote/pawquest-backend/internal/observability"
	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
	"github.com/yungbote/pawquest-backend/internal/platform/envutil"
	"github.com/yungbote/pawquest-backend/internal/server"
	"github.com/yungbote/pawquest-backend/internal/services"
)

type App struct {
	Log     *logger.Logger
	DB      *gorm.DB
	Router  *gin.Engine
	Cfg     Config
	Cache   *content.Cache
	Monitor *memwatch.Monitor
	Session *services.SessionService

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig()

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	})

	database, err := db.New(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := database.DB()

	repository := content.NewRepository(log, content.RepositoryConfig{
		PrimaryPath: cfg.ContentPrimaryPath,
		LegacyPath:  cfg.ContentLegacyPath,
		LoadTimeout: cfg.ContentLoadTimeout,
	})
	cache := content.NewCache(log, repository, content.CacheConfig{
		MaxCachedCategories: cfg.MaxCachedCategories,
		MaxItemsPerCategory: cfg.MaxItemsPerCategory,
		Expiration:          cfg.CacheExpiration,
		PreloadParallelism:  cfg.PreloadParallelism,
	})

	monitor := memwatch.NewMonitor(log, memwatch.Config{
		Interval:    cfg.MemoryCheckInterval,
		MediumBytes: cfg.MemoryMediumBytes,
		HighBytes:   cfg.MemoryHighBytes,
	})
	monitor.Register(cache)

	pool := engine.NewPoolManager(log, cache, cfg.RandSeed)
	selector := engine.NewDifficultySelector(cfg.RandSeed + 1)
	rewards := engine.NewRewardCalculator()
	fallback := engine.NewFallbackController(log, pool, rewards, engine.FallbackConfig{
		MaxLives: cfg.MaxLives,
	})

	progressRepo := repos.NewPathProgressRepo(theDB, log)
	sessionStore := newSessionStore(log, cfg)

	sessionSvc := services.NewSessionService(
		log,
		sessionStore,
		pool,
		selector,
		fallback,
		rewards,
		engine.DefaultPaths(),
		progressRepo,
		services.SessionConfig{
			MaxLives:     cfg.MaxLives,
			RecentWindow: cfg.RecentWindow,
			MaxBatchSize: cfg.MaxBatchSize,
		},
	)

	sessionHandler := handlers.NewSessionHandler(log, sessionSvc)
	contentHandler := handlers.NewContentHandler(log, cache, monitor)

	router := server.NewRouter(server.RouterConfig{
		ServiceName:    cfg.ServiceName,
		SessionHandler: sessionHandler,
		ContentHandler: contentHandler,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Cache:        cache,
		Monitor:      monitor,
		Session:      sessionSvc,
		otelShutdown: otelShutdown,
	}, nil
}

// newSessionStore prefers redis when REDIS_ADDR is reachable and falls back
// to the in-memory store.
func newSessionStore(log *logger.Logger, cfg Config) services.SessionStore {
	if envutil.Str("REDIS_ADDR", "") != "" {
		store, err := services.NewRedisSessionStore(log, cfg.SessionTTL)
		if err == nil {
			log.Info("using redis session store")
			return store
		}
		log.Warn("redis session store unavailable, using memory", "error", err)
	}
	return services.NewMemorySessionStore(cfg.SessionTTL)
}

// Start launches background work: the memory monitor and the optional
// content preload.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Monitor.Start(ctx)

	if a.Cfg.PreloadOnStart {
		go func() {
			if err := a.Cache.Preload(ctx, domain.AllCategories()); err != nil {
				a.Log.Warn("content preload incomplete", "error", err)
			}
		}()
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Monitor != nil {
		a.Monitor.Stop()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
