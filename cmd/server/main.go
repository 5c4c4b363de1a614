// Package main Inventory API
//
// @title           Inventory API
// @version         1.0
// @description     Inventory tracking service: items, users and JWT authentication.
//
// @BasePath  /api
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/inventory-app/inventory-system/docs"
	"github.com/inventory-app/inventory-system/internal/api"
	"github.com/inventory-app/inventory-system/internal/api/handler"
	"github.com/inventory-app/inventory-system/internal/core/ports"
	"github.com/inventory-app/inventory-system/internal/core/service"
	mongodb "github.com/inventory-app/inventory-system/internal/infrastructure/db/mongo"
	redisdb "github.com/inventory-app/inventory-system/internal/infrastructure/db/redis"
	"github.com/inventory-app/inventory-system/internal/infrastructure/queue"
	"github.com/inventory-app/inventory-system/internal/pkg/config"
	"github.com/inventory-app/inventory-system/internal/pkg/token"
	"github.com/inventory-app/inventory-system/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.New(logger.Options{})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "inventory-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	users := mongodb.NewUserRepository(db)
	items := mongodb.NewItemRepository(db)
	audits := mongodb.NewAuditRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, audits); err != nil {
		return err
	}

	checks := []handler.DependencyCheck{handler.MongoCheck(db)}

	var idem ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer func(rdb *goredis.Client) {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("redis close failed")
			}
		}(rdb)
		idem = redisdb.NewIdempotencyStore(rdb)
		checks = append(checks, handler.RedisCheck(rdb))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	} else {
		log.Warn().Msg("REDIS_ADDR is empty, idempotent item creation disabled")
	}

	tokens, err := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, audits, log.With().Str("component", "audit").Logger())
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	dispatcher.Start(workerCtx)

	authService := service.NewAuthService(users, tokens, log)
	itemService := service.NewItemService(items, audits, dispatcher, idem, log)

	e := api.NewRouter(api.Deps{
		AuthService:   authService,
		ItemService:   itemService,
		Checks:        checks,
		Logger:        log,
		CORSOrigins:   cfg.CORSOrigins,
		AuthRateLimit: cfg.AuthRateLimit,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			dispatcher.Stop()
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	dispatcher.Stop()
	return nil
}
