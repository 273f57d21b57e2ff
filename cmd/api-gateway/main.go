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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	_ "github.com/noah-isme/journey-analytics-api/api/swagger"
	"github.com/noah-isme/journey-analytics-api/internal/handler"
	"github.com/noah-isme/journey-analytics-api/internal/middleware"
	"github.com/noah-isme/journey-analytics-api/internal/repository"
	"github.com/noah-isme/journey-analytics-api/internal/service"
	"github.com/noah-isme/journey-analytics-api/pkg/cache"
	"github.com/noah-isme/journey-analytics-api/pkg/config"
	"github.com/noah-isme/journey-analytics-api/pkg/database"
	"github.com/noah-isme/journey-analytics-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/journey-analytics-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/journey-analytics-api/pkg/middleware/requestid"
)

// @title Journey Analytics API
// @version 1.0.0
// @description Faculty dashboard KPIs and activity feed
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Tracing.SampleRatio))))
	otel.SetTracerProvider(tp)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	dependencies := map[string]handler.Pinger{"postgres": db}

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.KPI.ScopeCacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, scope cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, "journey", logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.KPI.ScopeCacheTTL, logr, true)
			dependencies["redis"] = handler.PingFunc(cacheRepo.Ping)
		}
	}

	validate := validator.New()
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})

	kpiRepo := repository.NewKPIRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	scopeResolver := service.NewScopeResolver(kpiRepo, cacheSvc, cfg.KPI.ScopeCacheTTL, metricsSvc, logr)
	kpiSvc := service.NewKPIService(kpiRepo, scopeResolver, validate, metricsSvc, logr, service.KPIConfig{
		TimeSavedMinutes: cfg.KPI.TimeSavedMinutes,
	})
	feedSvc := service.NewActivityFeedService(activityRepo, validate, metricsSvc, logr, service.ActivityFeedConfig{
		DefaultLimit: cfg.Activity.DefaultLimit,
		MaxLimit:     cfg.Activity.MaxLimit,
	})

	kpiHandler := handler.NewKPIHandler(kpiSvc)
	activityHandler := handler.NewActivityHandler(feedSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc.Handler(), dependencies, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.Tracing(otel.Tracer("journey-analytics-api/http")))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(authSvc))
	handler.RegisterDashboardRoutes(api, kpiHandler, activityHandler)
	r.NoRoute(handler.NotFound)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
