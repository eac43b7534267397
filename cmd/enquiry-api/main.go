package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kgadmissions/enquiry-api/api/swagger"
	"github.com/kgadmissions/enquiry-api/internal/handler"
	"github.com/kgadmissions/enquiry-api/internal/middleware"
	"github.com/kgadmissions/enquiry-api/internal/models"
	"github.com/kgadmissions/enquiry-api/internal/repository"
	"github.com/kgadmissions/enquiry-api/internal/service"
	"github.com/kgadmissions/enquiry-api/pkg/cache"
	"github.com/kgadmissions/enquiry-api/pkg/config"
	"github.com/kgadmissions/enquiry-api/pkg/database"
	"github.com/kgadmissions/enquiry-api/pkg/logger"
	corsmiddleware "github.com/kgadmissions/enquiry-api/pkg/middleware/cors"
	reqidmiddleware "github.com/kgadmissions/enquiry-api/pkg/middleware/requestid"
	"github.com/kgadmissions/enquiry-api/pkg/storage"
)

// @title Admission Enquiry API
// @version 1.0.0
// @description Admission enquiry portal: application intake, staff dashboard and counselor assistant
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logr.Sugar().Fatalw("failed to prepare schema", "error", err)
	}

	var cacheRepo *repository.CacheRepository
	if cfg.Stats.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, statistics caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	exportStore, err := storage.NewExportStore(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	enquiryRepo := repository.NewEnquiryRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()
	statsSvc := service.NewStatsService(enquiryRepo, cacheRepo, cfg.Stats.CacheTTL, cfg.Stats.CacheEnabled && cacheRepo != nil, logr)
	enquirySvc := service.NewEnquiryService(enquiryRepo, statsSvc, logr)
	assistantSvc := service.NewAssistantService(enquiryRepo, commentRepo, logr)
	schoolSvc := service.NewSchoolService(schoolRepo, logr)
	authSvc := service.NewAuthService(userRepo, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
	})
	exportSvc := service.NewExportService(enquiryRepo, exportStore, signer, service.ExportConfig{
		Workers: cfg.Exports.WorkerConcurrency,
		Retries: cfg.Exports.WorkerRetries,
	}, logr)
	exportSvc.Start(ctx)
	defer exportSvc.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	enquiryHandler := handler.NewEnquiryHandler(enquirySvc)
	statsHandler := handler.NewStatsHandler(statsSvc, metricsSvc)
	assistantHandler := handler.NewAssistantHandler(assistantSvc, cfg.Assistant.ReplyDelay)
	schoolHandler := handler.NewSchoolHandler(schoolSvc)
	exportHandler := handler.NewExportHandler(exportSvc, metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
	{
		api.POST("/auth/login", authHandler.Login)

		// Public intake surface used by the application form.
		api.POST("/enquiries", enquiryHandler.Submit)
		api.GET("/school-blocks", schoolHandler.Suggestions)

		staff := api.Group("", middleware.JWT(authSvc))
		{
			staff.GET("/enquiries", enquiryHandler.List)
			staff.GET("/enquiries/:id", enquiryHandler.Get)
			staff.GET("/stats/enquiries", statsHandler.Overview)
			staff.POST("/assistant/messages", assistantHandler.Message)
			staff.POST("/exports/enquiries", exportHandler.Request)
			staff.GET("/exports/:id", exportHandler.Status)
		}

		admin := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
		{
			admin.POST("/enquiries/:id/approve", enquiryHandler.Approve)
			admin.POST("/school-blocks/import", schoolHandler.Import)
		}

		// Download authorisation travels in the signed token itself.
		api.GET("/exports/:id/download", exportHandler.Download)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
