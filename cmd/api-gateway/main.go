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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-vaccination-api/api/swagger"
	"github.com/noah-isme/school-vaccination-api/internal/handler"
	internalmiddleware "github.com/noah-isme/school-vaccination-api/internal/middleware"
	"github.com/noah-isme/school-vaccination-api/internal/repository"
	"github.com/noah-isme/school-vaccination-api/internal/service"
	"github.com/noah-isme/school-vaccination-api/pkg/cache"
	"github.com/noah-isme/school-vaccination-api/pkg/config"
	"github.com/noah-isme/school-vaccination-api/pkg/database"
	"github.com/noah-isme/school-vaccination-api/pkg/export"
	"github.com/noah-isme/school-vaccination-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-vaccination-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-vaccination-api/pkg/middleware/requestid"
)

// @title School Vaccination Portal API
// @version 1.0.0
// @description Student vaccination tracking: students, drives, vaccinations, dashboard and reports
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const cacheNamespace = "vax"

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

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrator, err := database.NewMigrator(db.DB, cfg.Database.MigrationsDir, logr)
		if err != nil {
			return err
		}
		if err := migrator.Up(ctx); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		redisClient = nil
	}

	studentRepo := repository.NewStudentRepository(db)
	driveRepo := repository.NewDriveRepository(db)
	vaccinationRepo := repository.NewVaccinationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, cacheNamespace, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)
	validate := service.NewValidator()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, validate, logr)
	driveSvc := service.NewDriveService(driveRepo, cacheSvc, validate, logr)
	vaccinationSvc := service.NewVaccinationService(vaccinationRepo, studentRepo, driveRepo, cacheSvc, metricsSvc, logr)
	dashboardSvc := service.NewDashboardService(reportRepo, driveRepo, cacheSvc, service.DashboardConfig{
		UpcomingLimit: cfg.Dashboard.UpcomingDriveLimit,
		CacheTTL:      cfg.Dashboard.CacheTTL,
	}, logr)
	reportSvc := service.NewReportService(reportRepo, service.ReportConfig{
		Title:      cfg.Reports.Title,
		PDFEnabled: cfg.Reports.PDFEnabled,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())
	importSvc := service.NewImportService(studentSvc, metricsSvc, service.ImportConfig{
		Concurrency: cfg.Import.Concurrency,
		MaxRows:     cfg.Import.MaxRows,
	}, logr)

	if err := authSvc.Bootstrap(ctx, service.AdminSeed{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
		FullName: cfg.Admin.FullName,
	}); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))
	r.Use(internalmiddleware.WithResponseMeta())

	checks := map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)}
	if redisClient != nil {
		checks["redis"] = cacheRepo
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Students:     handler.NewStudentHandler(studentSvc),
		Vaccinations: handler.NewVaccinationHandler(vaccinationSvc),
		Imports: handler.NewImportHandler(importSvc, handler.ImportLimits{
			MaxFileSize: cfg.Import.MaxFileSize,
			MaxRows:     cfg.Import.MaxRows,
		}),
		Drives:    handler.NewDriveHandler(driveSvc),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Reports:   handler.NewReportHandler(reportSvc),
	}, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}
