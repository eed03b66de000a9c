package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-import-api/api/swagger"
	"github.com/noah-isme/sma-import-api/internal/bootstrap"
	"github.com/noah-isme/sma-import-api/internal/handler"
	"github.com/noah-isme/sma-import-api/internal/middleware"
	"github.com/noah-isme/sma-import-api/internal/models"
	"github.com/noah-isme/sma-import-api/pkg/cache"
	"github.com/noah-isme/sma-import-api/pkg/config"
	"github.com/noah-isme/sma-import-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-import-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-import-api/pkg/middleware/requestid"
)

func newRouter(c *bootstrap.Container) *gin.Engine {
	cfg := c.Config

	r := gin.New()
	// multipart parts above this spill to temp files
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(c.Logger))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(c.Metrics))
	r.Use(middleware.WithResponseMeta())

	var cacheHealth handler.Pinger
	if c.Redis != nil {
		cacheHealth = cache.Health{Client: c.Redis}
	}
	metricsHandler := handler.NewMetricsHandler(c.Metrics, c.DB, cacheHealth)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	imports := handler.NewImportHandler(c.Imports, c.Reports, cfg.Imports.MaxFileSizeBytes, c.Logger)
	marks := handler.NewHistoricalMarkHandler(c.HistoricalMarks, cfg.Imports.MaxFileSizeBytes, c.Logger)

	api := r.Group(cfg.APIPrefix)
	// signed links authorize themselves
	api.GET("/import/reports/:token", middleware.OptionalJWT(c.Auth),
		middleware.Audit(c.Audit, c.Logger, models.AuditActionImportReportFetch, "import_report"),
		imports.DownloadReport)

	secured := api.Group("")
	secured.Use(middleware.JWT(c.Auth), middleware.ImportOperators())
	secured.POST("/import", middleware.Audit(c.Audit, c.Logger, models.AuditActionImportRun, "import"), imports.Import)
	secured.GET("/import", imports.Stats)
	secured.GET("/historical-marks/import", middleware.Audit(c.Audit, c.Logger, models.AuditActionTemplateDownload, "historical_marks"), marks.Template)
	secured.POST("/historical-marks/import", middleware.Audit(c.Audit, c.Logger, models.AuditActionHistoricalImport, "historical_marks"), marks.Import)

	return r
}
