package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/vaxdrive-console/api/swagger"
	"github.com/noah-isme/vaxdrive-console/internal/handler"
	"github.com/noah-isme/vaxdrive-console/internal/repository"
	"github.com/noah-isme/vaxdrive-console/internal/service"
	"github.com/noah-isme/vaxdrive-console/pkg/cache"
	"github.com/noah-isme/vaxdrive-console/pkg/config"
	"github.com/noah-isme/vaxdrive-console/pkg/database"
	"github.com/noah-isme/vaxdrive-console/pkg/directory"
	"github.com/noah-isme/vaxdrive-console/pkg/jobs"
	"github.com/noah-isme/vaxdrive-console/pkg/logger"
	"github.com/noah-isme/vaxdrive-console/pkg/storage"
)

// @title VaxDrive Console API
// @version 1.0.0
// @description Administrative console for school vaccination drives, backed by the student directory.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const exportCleanupInterval = time.Hour

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

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()
	readiness := map[string]handler.ReadinessCheck{}

	client := directory.New(directory.Config{
		BaseURL:  cfg.Directory.BaseURL,
		Timeout:  cfg.Directory.Timeout,
		Observer: metrics,
		Logger:   logr.Named("directory"),
	})
	authRepo := repository.NewAuthRepository(client)
	studentRepo := repository.NewStudentRepository(client)
	driveRepo := repository.NewDriveRepository(client)
	recordRepo := repository.NewRecordRepository(client)
	classRepo := repository.NewClassRepository(client)
	vaccineRepo := repository.NewVaccineRepository(client)
	dashboardRepo := repository.NewDashboardRepository(client)

	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.Session.Store == config.SessionStoreRedis {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close() //nolint:errcheck
	}

	var sessionStore service.SessionStore = repository.NewMemorySessionStore()
	if cfg.Session.Store == config.SessionStoreRedis {
		sessionStore = repository.NewRedisSessionStore(redisClient, cfg.Session.TTL)
	}
	sessions := service.NewSessionService(sessionStore, cfg.Session.TTL, logr.Named("session"))

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		redisCache := repository.NewCacheRepository(redisClient, logr.Named("cache"))
		readiness["redis"] = redisCache.Ping
		cacheRepo = redisCache
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.DashboardTTL, logr.Named("cache"), cfg.Cache.Enabled)

	auditSvc := service.NewAuditService(nil, metrics, false, logr.Named("audit"))
	if cfg.Audit.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect database", zap.Error(err))
		}
		defer db.Close() //nolint:errcheck
		if err := database.EnsureAuditSchema(ctx, db); err != nil {
			logr.Fatal("failed to prepare audit schema", zap.Error(err))
		}
		auditSvc = service.NewAuditService(repository.NewAuditRepository(db), metrics, true, logr.Named("audit"))
		readiness["database"] = db.PingContext
	}

	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to init export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exporter := service.NewExportService(objects, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		PublicURL: cfg.Reports.PublicURL,
	}, logr.Named("export"))

	exportJobs := repository.NewExportJobStore()
	reports := service.NewReportService(sessions, recordRepo, exportJobs, nil, exporter, metrics, logr.Named("report"), service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: exportCleanupInterval,
	})
	worker := service.NewReportWorker(exportJobs, exporter, metrics, cfg.Reports.WorkerRetries, logr.Named("report_worker"))
	queue := jobs.NewQueue(service.ExportJobType, worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
		OnDepth:    metrics.SetExportQueueDepth,
		OnDrop: func(job jobs.Job, err error) {
			logr.Warn("export job dropped", zap.String("export_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
		},
	})
	queue.Start(ctx)
	defer queue.Stop()
	reports.SetQueue(queue)
	reports.StartCleanup(ctx)

	auth := service.NewAuthService(authRepo, studentRepo, sessions, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	roster := service.NewRosterService(service.RosterServiceParams{
		Students:       studentRepo,
		Sessions:       sessions,
		Cache:          cacheSvc,
		Metrics:        metrics,
		Validator:      validate,
		Logger:         logr.Named("roster"),
		MaxUploadBytes: cfg.Roster.MaxUploadBytes,
	})
	drives := service.NewDriveService(service.DriveServiceParams{
		Drives:         driveRepo,
		Records:        recordRepo,
		Students:       studentRepo,
		Sessions:       sessions,
		Cache:          cacheSvc,
		Validator:      validate,
		Logger:         logr.Named("drive"),
		StatusLabels:   cfg.Drives.StatusLabels,
		HorizonDays:    cfg.Drives.HorizonDays,
		DefaultBatchID: cfg.Drives.DefaultBatchID,
	})
	references := service.NewReferenceService(classRepo, vaccineRepo, sessions, cacheSvc, cfg.Cache.ReferenceTTL, logr.Named("reference"))
	dashboard := service.NewDashboardService(dashboardRepo, driveRepo, sessions, cacheSvc, cfg.Cache.DashboardTTL, service.HorizonFromDays(cfg.Drives.HorizonDays), logr.Named("dashboard"))

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Auth:           auth,
		Metrics:        metrics,
		Reporter:       service.NewErrorReporter(logr.Named("errors"), metrics),
		Audit:          auditSvc,
		Readiness:      readiness,
		Dashboard:      dashboard,
		Roster:         roster,
		Drives:         drives,
		References:     references,
		Reports:        reports,
		AuditLogs:      auditSvc,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
	stop()
}

func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.Reports.StorageDriver == config.StorageDriverMinIO {
		return storage.NewMinIOStorage(ctx, storage.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
	}
	return storage.NewLocalStorage(cfg.Reports.StorageDir)
}
