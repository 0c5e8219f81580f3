package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/vaxdrive-console/internal/middleware"
	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/internal/service"
	"github.com/noah-isme/vaxdrive-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/vaxdrive-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/vaxdrive-console/pkg/middleware/requestid"
)

// RouterConfig collects everything the HTTP surface needs.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger

	Auth       *service.AuthService
	Metrics    *service.MetricsService
	Reporter   *service.ErrorReporter
	Audit      *service.AuditService
	Readiness  map[string]ReadinessCheck
	Dashboard  dashboardService
	Roster     rosterService
	Drives     driveService
	References referenceService
	Reports    reportService
	AuditLogs  auditService
}

// NewRouter builds the gin engine with the console routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.ReportErrors(cfg.Reporter))

	ops := NewMetricsHandler(cfg.Metrics, cfg.Readiness)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(cfg.Audit, action, resource)
	}

	auth := NewAuthHandler(cfg.Auth)
	dashboard := NewDashboardHandler(cfg.Dashboard)
	roster := NewRosterHandler(cfg.Roster)
	drives := NewDriveHandler(cfg.Drives)
	refs := NewReferenceHandler(cfg.References)
	reports := NewReportHandler(cfg.Reports)
	auditLogs := NewAuditHandler(cfg.AuditLogs)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", audit(models.AuditActionLogin, "session"), auth.Login)
	// Signed tokens authorise downloads on their own.
	api.GET("/exports/:token", reports.Download)

	secured := api.Group("")
	secured.Use(middleware.SessionAuth(cfg.Auth))
	{
		secured.POST("/auth/logout", audit(models.AuditActionLogout, "session"), auth.Logout)
		secured.GET("/dashboard", dashboard.Summary)

		secured.GET("/roster", roster.List)
		secured.POST("/roster/refresh", audit(models.AuditActionRefresh, "roster"), roster.Refresh)
		secured.POST("/roster/import", audit(models.AuditActionImport, "roster"), roster.Import)
		secured.POST("/roster/upload", audit(models.AuditActionUpload, "roster"), roster.Upload)
		secured.POST("/roster/sync", audit(models.AuditActionSync, "roster"), roster.Sync)

		secured.POST("/students", audit(models.AuditActionStudentSave, "student"), roster.CreateStudent)
		secured.PUT("/students/:id", audit(models.AuditActionStudentSave, "student"), roster.UpdateStudent)
		secured.DELETE("/students/:id", audit(models.AuditActionStudentDrop, "student"), roster.DeleteStudent)

		secured.GET("/classes", refs.Classes)
		secured.GET("/vaccines", refs.Vaccines)

		secured.GET("/drives", drives.List)
		secured.GET("/drives/upcoming", drives.Upcoming)
		secured.GET("/drives/statuses", drives.Statuses)
		secured.POST("/drives", audit(models.AuditActionDriveCreate, "drive"), drives.Create)
		secured.PUT("/drives/:id", audit(models.AuditActionDriveUpdate, "drive"), drives.Update)
		secured.DELETE("/drives/:id", audit(models.AuditActionDriveDelete, "drive"), drives.Delete)
		secured.GET("/drives/:id/students", drives.Students)
		secured.POST("/drives/:id/entries", audit(models.AuditActionEntry, "record"), drives.RecordEntry)
		secured.GET("/records", drives.Records)

		secured.GET("/reports", reports.Report)
		secured.POST("/reports/exports", audit(models.AuditActionExport, "report"), reports.CreateExport)
		secured.GET("/reports/exports/:id", reports.ExportStatus)

		secured.GET("/audit-logs", auditLogs.List)
	}

	return r
}
