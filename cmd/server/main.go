// Command server runs the docmesh clustering API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/docmesh/docmesh/internal/api"
	"github.com/docmesh/docmesh/internal/config"
	"github.com/docmesh/docmesh/pkg/cache"
	"github.com/docmesh/docmesh/pkg/labeling"
	"github.com/docmesh/docmesh/pkg/observability"
	"github.com/docmesh/docmesh/pkg/repository"
	"github.com/docmesh/docmesh/pkg/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewStandardLogger("startup").Fatal("Failed to load configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger := observability.NewStandardLoggerWithLevel("docmesh", cfg.Logging.Level)
	metrics := observability.NewInMemoryMetricsClient()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	defer func() { _ = db.Close() }()

	store := repository.NewPostgresStore(db, logger.WithPrefix("document_store"))

	var resultCache *cache.ClusterCache
	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Address,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Redis unavailable, running without result cache", map[string]interface{}{
				"address": cfg.Cache.Address,
				"error":   err.Error(),
			})
		} else {
			resultCache = cache.NewClusterCache(client, cfg.Cache.TTL, logger.WithPrefix("cluster_cache"))
			defer func() { _ = client.Close() }()
		}
	}

	var labeler labeling.Generator
	if cfg.Labeler.Enabled {
		generator, err := labeling.NewBedrockGenerator(cfg.Labeler.Region, cfg.Labeler.ModelID)
		if err != nil {
			logger.Warn("Label generator unavailable, using fallback labels", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			labeler = generator
		}
	}

	handler := api.NewHandler(
		services.NewClusterService(store, labeler, resultCache, logger.WithPrefix("cluster_service"), metrics),
		services.NewSimilarityService(store, logger.WithPrefix("similarity_service"), metrics),
		services.NewTopicService(store, logger.WithPrefix("topic_service"), metrics),
		logger.WithPrefix("api"),
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.API.ListenAddress,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
	}

	go func() {
		logger.Info("Server listening", map[string]interface{}{
			"address": cfg.API.ListenAddress,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
