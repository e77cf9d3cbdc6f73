package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmaster-platform/auth-service/app/cache"
	database "github.com/taskmaster-platform/auth-service/app/db"
	"github.com/taskmaster-platform/auth-service/config"
	"github.com/taskmaster-platform/auth-service/internal/api/auth"
	"github.com/taskmaster-platform/auth-service/internal/api/user"
	"github.com/taskmaster-platform/auth-service/internal/gateway"
)

// Container holds all application dependencies.
type Container struct {
	Config      *config.Config
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	Cache       *cache.Client
	AuthHandler *auth.HandlerImpl
	UserHandler *user.HandlerImpl
	UserService user.UserService
	Middleware  *auth.Middleware
}

// NewContainer initializes and returns a new dependency container.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	cacheClient := cache.New(cfg, logger)
	if err := cacheClient.Ping(context.Background()); err != nil {
		logger.Warn("Redis unreachable at startup, continuing without warm cache", slog.Any("error", err))
	}

	tokenService, err := auth.NewTokenService(cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	emailService := gateway.NewEmailService(cfg, logger)
	todoService := gateway.NewTodoService(cfg, logger)

	userRepo := user.NewCachedUserRepo(user.NewPostgresUserRepo(pool, logger), cacheClient, logger)

	authService := auth.NewAuthService(userRepo, tokenService, emailService, logger)
	authHandler := auth.NewHandlerImpl(authService, *cfg, logger)

	userService := user.NewUserService(userRepo, todoService, cfg.Admin, logger)
	userHandler := user.NewHandlerImpl(userService, logger)

	authMiddleware := auth.NewMiddleware(tokenService, cfg.Cookie.Name, logger)

	return &Container{
		Config:      cfg,
		Logger:      logger,
		Pool:        pool,
		Cache:       cacheClient,
		AuthHandler: authHandler,
		UserHandler: userHandler,
		UserService: userService,
		Middleware:  authMiddleware,
	}, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Warn("Failed to close cache client", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready.
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations.
func (c *Container) RunMigrations() error {
	dbConfig, err := database.NewDatabaseConfig(c.Config, c.Logger)
	if err != nil {
		return err
	}
	return database.RunMigrations(dbConfig.ConnectionURL, c.Logger)
}

// InitializeAdmin seeds the bootstrap admin account.
func (c *Container) InitializeAdmin(ctx context.Context) error {
	return c.UserService.InitializeAdmin(ctx)
}
