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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/yoga-escrow-api/api/swagger"
	"github.com/noah-isme/yoga-escrow-api/internal/handler"
	"github.com/noah-isme/yoga-escrow-api/internal/middleware"
	"github.com/noah-isme/yoga-escrow-api/internal/models"
	"github.com/noah-isme/yoga-escrow-api/internal/repository"
	"github.com/noah-isme/yoga-escrow-api/internal/service"
	"github.com/noah-isme/yoga-escrow-api/pkg/cache"
	"github.com/noah-isme/yoga-escrow-api/pkg/config"
	"github.com/noah-isme/yoga-escrow-api/pkg/database"
	"github.com/noah-isme/yoga-escrow-api/pkg/jobs"
	"github.com/noah-isme/yoga-escrow-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/yoga-escrow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/yoga-escrow-api/pkg/middleware/requestid"
	"github.com/noah-isme/yoga-escrow-api/pkg/relayer"
)

// @title Yoga Escrow Teacher API
// @version 1.0.0
// @description Teacher dashboards, class history and escrow actions over the yoga escrow ledger
// @BasePath /api/v1
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

	if cfg.Ledger.ContractAddress == "" {
		logr.Warn("ESCROW_CONTRACT_ADDRESS is empty; ledger reads will match no escrows")
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to escrow index", zap.Error(err))
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var redisClient *redis.Client
	if cfg.Dashboard.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, snapshot cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, fmt.Sprintf("yoga-escrow:%d:%s", cfg.Ledger.ChainID, cfg.Ledger.ContractAddress))
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.SnapshotCacheTTL, logr, redisClient != nil)

	escrowRepo := repository.NewEscrowRepository(db, cfg.Ledger.ContractAddress, logr)
	ledger := &timeoutLedger{repo: escrowRepo, timeout: cfg.Ledger.QueryTimeout}

	validate := validator.New()
	authSvc := service.NewAuthService(validate, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Ledger:  ledger,
		Cache:   cacheSvc,
		Metrics: metricsSvc,
		Logger:  logr.Named("dashboard"),
		Config: service.DashboardServiceConfig{
			SnapshotTTL: cfg.Dashboard.SnapshotCacheTTL,
			Pipeline: service.PipelineConfig{
				TokenDecimals:      cfg.Pipeline.TokenDecimals,
				NormalizeLocations: cfg.Pipeline.NormalizeLocations,
			},
		},
	})
	exportSvc := service.NewExportService(dashboardSvc, logr.Named("export"), nil, nil)

	actionSvc := service.NewActionService(service.ActionServiceParams{
		Ledger:      ledger,
		Submitter:   relayer.NewClient(relayer.Config{BaseURL: cfg.Relayer.BaseURL, APIKey: cfg.Relayer.APIKey, Timeout: cfg.Relayer.Timeout}),
		Invalidator: dashboardSvc,
		Validator:   validate,
		Metrics:     metricsSvc,
		Logger:      logr.Named("actions"),
	})
	var actionQueue *jobs.Queue
	if cfg.Actions.Enabled {
		actionQueue = jobs.NewQueue("escrow-actions", actionSvc.HandleJob, jobs.QueueConfig{
			Workers:     cfg.Actions.WorkerConcurrency,
			MaxRetries:  cfg.Actions.WorkerRetries,
			RetryDelay:  cfg.Actions.RetryDelay,
			Logger:      logr.Named("queue"),
			OnExhausted: actionSvc.OnExhausted,
		})
		actionQueue.Start(ctx)
		actionSvc.AttachQueue(actionQueue)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc.Handler(), map[string]handler.Pinger{
		"postgres": escrowRepo,
		"redis":    cacheRepo,
	}, logr)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	actionHandler := handler.NewActionHandler(actionSvc)
	escrowHandler := handler.NewEscrowHandler(ledger)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(authSvc))
	{
		teachers := api.Group("/teachers")
		teachers.GET("/me/dashboard", middleware.RequireRoles(models.RoleTeacher), dashboardHandler.Mine)
		teachers.POST("/me/dashboard/refresh", middleware.RequireRoles(models.RoleTeacher), dashboardHandler.Refresh)
		teachers.GET("/me/history/export", middleware.RequireRoles(models.RoleTeacher), exportHandler.History)
		teachers.GET("/:handle/dashboard", middleware.RequireRoles(models.RoleAdmin), dashboardHandler.ForTeacher)

		api.POST("/actions", middleware.RequireRoles(models.RoleTeacher), actionHandler.Submit)
		api.GET("/actions/:id", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), actionHandler.Get)

		api.GET("/escrows", escrowHandler.ByStudent)
		api.GET("/escrows/:id", escrowHandler.Get)

		api.GET("/admin/overview", middleware.RequireRoles(models.RoleAdmin), dashboardHandler.Overview)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.Bool("actions", cfg.Actions.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if actionQueue != nil {
		actionQueue.Stop()
	}
}
