package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog/repository"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog/service"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/config"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/database"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/revocation"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/server"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/tokens"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	mongoAttempts = 5
	mongoBackoff  = time.Second
)

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Infof("config loaded: env=%s mongo=%v redis=%v rate_limit=%v", cfg.Server.Environment, cfg.MongoDB.Configured(), cfg.Redis.Host != "", cfg.RateLimit.Enabled)

	if !cfg.MongoDB.Configured() {
		logger.Fatalf("MongoDB not configured: set MONGODB_URI or DB_USER/DB_PASS")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.ConnectionURI(), cfg.MongoDB.Timeout, mongoAttempts, mongoBackoff)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			logger.Warnf("mongo disconnect: %v", err)
		}
	}()
	logger.Infof("connected to MongoDB, database %q", cfg.MongoDB.Database)

	db := client.Database(cfg.MongoDB.Database)
	services := repository.NewMongoRepo(db.Collection(catalog.ServicesCollection))
	reviews := repository.NewMongoRepo(db.Collection(catalog.ReviewsCollection))
	if err := reviews.EnsureIndexes(ctx, catalog.FieldServiceID, catalog.FieldReviewerUserID); err != nil {
		logger.Warnf("could not create review indexes: %v", err)
	}

	deps := server.Deps{
		Catalog:   service.New(services, reviews),
		Issuer:    tokens.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL),
		RateLimit: cfg.RateLimit,
		Checks: map[string]server.Check{
			"mongo": func(ctx context.Context) error { return database.Ping(ctx, client) },
		},
	}

	// Redis is optional: it backs token revocation and the shared rate limiter.
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v; revocation and shared rate limiting disabled", addr, err)
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			deny := revocation.NewDenylist(rdb, "")
			deps.Redis = rdb
			deps.Denylist = deny
			deps.Checks["redis"] = deny.Ping
			logger.Infof("connected to Redis at %s", addr)
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("cloudkitchen listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Infof("shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Errorf("graceful shutdown: %v", err)
	}
}
