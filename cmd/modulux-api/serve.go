package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/auth"
	"github.com/MarcoPoloResearchLab/modulux/internal/cache"
	"github.com/MarcoPoloResearchLab/modulux/internal/config"
	"github.com/MarcoPoloResearchLab/modulux/internal/database"
	"github.com/MarcoPoloResearchLab/modulux/internal/logging"
	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"github.com/MarcoPoloResearchLab/modulux/internal/server"
	"github.com/MarcoPoloResearchLab/modulux/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	// Identities always live in SQLite; database.driver selects the portfolio store.
	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var repository portfolios.Repository
	switch appConfig.DatabaseDriver {
	case config.DatabaseDriverMongo:
		client, mongoDatabase, err := database.OpenMongo(ctx, appConfig.MongoURI, appConfig.MongoDatabase, logger)
		if err != nil {
			return err
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()
		mongoRepository := portfolios.NewMongoRepository(mongoDatabase)
		if err := mongoRepository.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("mongo indexes: %w", err)
		}
		repository = mongoRepository
	default:
		repository = portfolios.NewGormRepository(db)
	}

	publishedCache, closeCache, err := openCache(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	portfolioService, err := portfolios.NewService(portfolios.ServiceConfig{
		Repository: repository,
		Cache:      publishedCache,
		Clock:      time.Now,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	userService, err := users.NewService(users.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}

	sessionValidator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(appConfig.TAuthSigningKey),
		Issuer:        appConfig.TAuthIssuer,
		CookieName:    appConfig.TAuthCookieName,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		SessionValidator: sessionValidator,
		OwnerResolver:    userService,
		Portfolios:       portfolioService,
		Realtime:         server.NewRealtimeDispatcher(),
		Metrics:          server.NewMetrics(),
		AllowedOrigins:   appConfig.AllowedOrigins,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("database_driver", appConfig.DatabaseDriver),
			zap.String("cache_driver", appConfig.CacheDriver),
		)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("server stopping")
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func openCache(ctx context.Context, appConfig config.AppConfig, logger *zap.Logger) (portfolios.PublishedCache, func(), error) {
	switch appConfig.CacheDriver {
	case config.CacheDriverRedis:
		client := cache.NewRedisClient(appConfig.RedisAddress, appConfig.RedisPassword, appConfig.RedisDB)
		redisCache := cache.NewRedis(client, appConfig.CacheTTL)
		if err := redisCache.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("published cache ready", zap.String("driver", "redis"), zap.String("address", appConfig.RedisAddress))
		return redisCache, func() { _ = client.Close() }, nil
	case config.CacheDriverNone:
		return cache.Noop{}, func() {}, nil
	default:
		logger.Info("published cache ready", zap.String("driver", "memory"), zap.Duration("ttl", appConfig.CacheTTL))
		return cache.NewMemory(appConfig.CacheTTL), func() {}, nil
	}
}
