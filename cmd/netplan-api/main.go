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

	_ "github.com/airops/netplan-api/api/swagger"
	"github.com/airops/netplan-api/internal/handler"
	"github.com/airops/netplan-api/internal/middleware"
	"github.com/airops/netplan-api/internal/models"
	"github.com/airops/netplan-api/internal/repository"
	"github.com/airops/netplan-api/internal/service"
	"github.com/airops/netplan-api/pkg/cache"
	"github.com/airops/netplan-api/pkg/config"
	"github.com/airops/netplan-api/pkg/database"
	"github.com/airops/netplan-api/pkg/logger"
	corsmiddleware "github.com/airops/netplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/airops/netplan-api/pkg/middleware/requestid"
	"github.com/airops/netplan-api/pkg/storage"
)

// @title NetPlan API
// @version 1.0.0
// @description Network planning backend for the rotation building console
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	rotationRepo := repository.NewRotationRepository(db)
	flightRepo := repository.NewFlightRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Unassigned.CacheTTL, logr, cfg.Unassigned.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "netplan-api",
	})
	rotationSvc := service.NewRotationService(rotationRepo, flightRepo, cacheSvc, metricsSvc, validate, logr, cfg.Rotations.MaxLegs)
	flightSvc := service.NewFlightService(flightRepo, cacheSvc, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, storeErr := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if storeErr != nil {
			logr.Sugar().Fatalw("failed to prepare export storage", "error", storeErr)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(rotationRepo, store, signer, metricsSvc, validate, logr, service.ExportConfig{
			SignedURLTTL: cfg.Exports.SignedURLTTL,
			Workers:      cfg.Exports.WorkerConcurrency,
			MaxRetries:   cfg.Exports.WorkerRetries,
		})
		exportSvc.Start(ctx)
		defer exportSvc.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					exportSvc.Cleanup()
				}
			}
		}()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	rotationHandler := handler.NewRotationHandler(rotationSvc)
	flightHandler := handler.NewFlightHandler(flightSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.POST("/auth/change-password", authHandler.ChangePassword)
	protected.GET("/auth/me", authHandler.Me)

	protected.GET("/rotations", rotationHandler.List)
	protected.GET("/rotations/next-number", rotationHandler.NextNumber)
	protected.GET("/rotations/:number", rotationHandler.Get)
	protected.POST("/flights/unassigned", flightHandler.Unassigned)

	planners := protected.Group("")
	planners.Use(middleware.RequireRoles(models.RoleAdmin, models.RolePlanner))
	planners.POST("/rotations/legs", rotationHandler.AppendLeg)
	planners.DELETE("/rotations/legs", rotationHandler.RemoveLastLeg)
	planners.DELETE("/rotations", rotationHandler.Delete)
	planners.PUT("/rotations/summary", rotationHandler.SaveSummary)
	planners.POST("/rotations/:number/unlock", rotationHandler.Unlock)

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		planners.POST("/exports", exportHandler.Create)
		// downloads authenticate via the signed token itself
		api.GET("/exports/download", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}
