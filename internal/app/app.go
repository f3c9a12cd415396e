package app

import (
	"context"
	"strconv"

	"resume-optimizer/internal/auth"
	"resume-optimizer/internal/common/logging"
	"resume-optimizer/internal/config"
	"resume-optimizer/internal/database"
	"resume-optimizer/internal/handlers"
	"resume-optimizer/internal/optimizer"
	"resume-optimizer/internal/pdf"
	"resume-optimizer/internal/ratelimit"
	"resume-optimizer/internal/redis"
)

// App holds all the application dependencies
type App struct {
	Config         *config.Config
	DB             *database.DB
	RedisClient    *redis.Client
	Auth           *auth.Auth
	Optimizer      *optimizer.Service
	PDF            pdf.Renderer
	Handlers       *handlers.Handlers
	RateLimitStore ratelimit.Store
	Logger         logging.Logger

	purge *purgeJob
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "app"}),
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, err
	}

	if err := app.initializeRedis(); err != nil {
		// Redis is optional, the optimizer cache and distributed rate
		// limiting degrade without it
		app.Logger.Warn("Redis initialization failed, continuing without Redis",
			logging.Field{Key: "error", Value: err.Error()})
	}

	app.Auth = auth.New(app.DB, cfg.JWTSecret)
	app.initializeOptimizer()
	app.PDF = pdf.NewClient(cfg.PDFServiceURL)

	if err := app.initializeRateLimiting(); err != nil {
		return nil, err
	}

	app.Handlers = handlers.New(app.DB, app.Auth, app.Optimizer, app.PDF)
	if app.RedisClient != nil {
		app.Handlers.SetRedisHealth(func(ctx context.Context) error {
			return app.RedisClient.Health()
		})
	}

	return app, nil
}

func (app *App) initializeDatabase() error {
	dsn := app.Config.DatabasePath
	if app.Config.DatabaseType == "postgres" || app.Config.DatabaseType == "postgresql" {
		dsn = database.PostgresDSN(app.Config.PostgresHost, app.Config.PostgresPort,
			app.Config.PostgresDB, app.Config.PostgresUser, app.Config.PostgresPassword,
			app.Config.PostgresSSLMode)
	}

	db, err := database.Init(app.Config.DatabaseType, dsn)
	if err != nil {
		return err
	}

	app.DB = db
	app.Logger.Info("Database initialized",
		logging.Field{Key: "type", Value: app.Config.DatabaseType})
	return nil
}

func (app *App) initializeRedis() error {
	redisDB, _ := strconv.Atoi(app.Config.RedisDB)
	poolSize, _ := strconv.Atoi(app.Config.RedisPoolSize)

	client, err := redis.NewClient(&redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       redisDB,
		PoolSize: poolSize,
	})
	if err != nil {
		return err
	}

	app.RedisClient = client
	app.Logger.Info("Redis connected",
		logging.Field{Key: "address", Value: app.Config.RedisAddress})
	return nil
}

func (app *App) initializeOptimizer() {
	ai := optimizer.NewClient(app.Config.AIAPIURL, app.Config.AIAPIKey, app.Config.AIModel)

	var cache optimizer.Cache
	if app.RedisClient != nil {
		cache = app.RedisClient
	}

	app.Optimizer = optimizer.NewService(ai, cache)
}

// Shutdown stops background jobs.
func (app *App) Shutdown(ctx context.Context) error {
	if app.purge != nil {
		app.purge.Stop()
	}
	return nil
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.purge != nil {
		app.purge.Stop()
	}
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
	if app.DB != nil {
		app.DB.Close()
	}
}
