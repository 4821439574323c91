package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-planner-api/api/swagger"
	"github.com/noah-isme/course-planner-api/internal/client"
	"github.com/noah-isme/course-planner-api/internal/handler"
	internalmiddleware "github.com/noah-isme/course-planner-api/internal/middleware"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/planner"
	"github.com/noah-isme/course-planner-api/internal/repository"
	"github.com/noah-isme/course-planner-api/internal/service"
	"github.com/noah-isme/course-planner-api/pkg/cache"
	"github.com/noah-isme/course-planner-api/pkg/config"
	"github.com/noah-isme/course-planner-api/pkg/database"
	"github.com/noah-isme/course-planner-api/pkg/jobs"
	"github.com/noah-isme/course-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-planner-api/pkg/middleware/requestid"
)

const shutdownTimeout = 15 * time.Second

// @title Course Planner API
// @version 1.0.0
// @description Builds, scores and ranks conflict-free course schedules.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()
	validate := validator.New()
	checks := map[string]handler.HealthCheck{}

	var db *sqlx.DB
	if cfg.Catalog.DatabaseEnabled {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("catalog database unavailable", zap.Error(err))
		}
		defer db.Close()
		checks["postgres"] = db.PingContext
	}

	var redisClient *redis.Client
	if cfg.Catalog.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("catalog cache disabled, redis unavailable", zap.Error(err))
		} else {
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, redisClient != nil)

	var (
		loader      interface{ LoadCourses(context.Context, string, []string) ([]models.Course, error) }
		invalidator interface{ InvalidateTerm(context.Context, string) error }
	)
	if db != nil {
		catalogSvc := service.NewCatalogService(repository.NewCatalogRepository(db), cacheSvc, metrics, logr)
		if cacheSvc.Enabled() {
			fills := jobs.NewQueue(service.JobTypeCacheFill, catalogSvc.HandleCacheFill, jobs.QueueConfig{
				Workers:    cfg.Catalog.WarmWorkers,
				MaxRetries: 2,
				Logger:     logr,
			})
			fills.Start(ctx)
			defer fills.Stop()
			catalogSvc.UseFillQueue(fills)
		}
		loader, invalidator = catalogSvc, catalogSvc
	}

	var suggestions interface {
		Suggest(context.Context, client.SuggestionRequest) ([][]string, error)
	}
	if cfg.Suggestion.Enabled {
		suggestions = client.NewSuggestionClient(client.SuggestionConfig{
			URL:     cfg.Suggestion.URL,
			APIKey:  cfg.Suggestion.APIKey,
			Timeout: cfg.Suggestion.Timeout,
		}, nil, logr)
	}

	engine := planner.NewEngine(planner.Config{
		Workers:             cfg.Planner.Workers,
		DefaultMaxOptions:   cfg.Planner.DefaultMaxOptions,
		MaxOptionsCap:       cfg.Planner.MaxOptionsCap,
		DefaultSearchBudget: cfg.Planner.DefaultSearchBudget,
		MaxSearchBudget:     cfg.Planner.MaxSearchBudget,
	}, logr.Named("planner"))

	plannerSvc := service.NewPlannerService(engine, loader, suggestions, validate, metrics, service.PlannerConfig{
		DefaultDeadline:    cfg.Planner.DefaultDeadline,
		PlanTTL:            cfg.Planner.PlanTTL,
		SuggestionsEnabled: cfg.Suggestion.Enabled,
	}, logr)
	go purgePlans(ctx, plannerSvc, cfg.Planner.PlanTTL, logr)

	exportSvc := service.NewTimetableExportService(plannerSvc, validate, logr, nil, nil)

	plannerHandler := handler.NewPlannerHandler(plannerSvc, exportSvc, invalidator)
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	schedules := api.Group("/schedules")
	schedules.POST("/plans", plannerHandler.Generate)
	schedules.GET("/plans/:id", plannerHandler.GetPlan)
	schedules.GET("/plans/:id/options/:rank/export", plannerHandler.ExportOption)
	schedules.POST("/conflicts", plannerHandler.CheckConflicts)
	schedules.GET("/preferences/defaults", plannerHandler.DefaultPreferences)
	api.DELETE("/catalog/terms/:termId/cache", plannerHandler.InvalidateCatalog)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func purgePlans(ctx context.Context, svc *service.PlannerService, ttl time.Duration, logr *zap.Logger) {
	interval := max(ttl/2, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.PurgeExpired(); n > 0 {
				logr.Debug("expired plans purged", zap.Int("count", n))
			}
		}
	}
}
