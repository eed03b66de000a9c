// Package bootstrap assembles the database, cache, services and background
// queue shared by the HTTP server and the import CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-import-api/internal/repository"
	"github.com/noah-isme/sma-import-api/internal/service"
	"github.com/noah-isme/sma-import-api/pkg/cache"
	"github.com/noah-isme/sma-import-api/pkg/config"
	"github.com/noah-isme/sma-import-api/pkg/database"
	"github.com/noah-isme/sma-import-api/pkg/jobs"
	"github.com/noah-isme/sma-import-api/pkg/storage"
)

// Container holds the wired application graph.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	DB    *sqlx.DB
	Redis *redis.Client

	Metrics         *service.MetricsService
	Auth            *service.AuthService
	Imports         *service.ImportService
	HistoricalMarks *service.HistoricalMarkImportService
	Reports         *service.ImportReportWriter
	Audit           *repository.AuditRepository
	Queue           *jobs.Queue
}

// New connects to Postgres (and Redis when enabled) and builds every
// service. Close releases what New opened.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// the stats cache is optional; imports keep working without it
		logger.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	c := &Container{Config: cfg, Logger: logger, DB: db, Redis: redisClient}
	c.Metrics = service.NewMetricsService()
	c.Auth = service.NewAuthService(nil, logger, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.AccessTokenTTL,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})
	c.Audit = repository.NewAuditRepository(db)

	var statsCache *service.StatsCache
	if redisClient != nil {
		statsCache = service.NewStatsCache(repository.NewStatsCacheRepository(redisClient, ""), c.Metrics, cfg.Imports.StatsCacheTTL, logger)
	}

	var reportStore *storage.LocalStorage
	if cfg.Imports.ReportsEnabled {
		reportStore, err = storage.NewLocalStorage(cfg.Imports.ReportsStorageDir)
		if err != nil {
			c.Close()
			return nil, err
		}
		signer := storage.NewSignedURLSigner(cfg.Imports.ReportsSignedURLKey, cfg.Imports.ReportsSignedURLTTL)
		c.Reports = service.NewImportReportWriter(reportStore, signer, cfg.APIPrefix, logger)
	}

	subjects := repository.NewSubjectRepository(db)
	classes := repository.NewClassRepository(db)
	students := repository.NewStudentRepository(db)

	c.Imports = service.NewImportService(service.ImportRepositories{
		Identities: repository.NewIdentityRepository(db),
		Teachers:   repository.NewTeacherRepository(db),
		Students:   students,
		Parents:    repository.NewParentRepository(db),
		Subjects:   subjects,
		Grades:     repository.NewGradeRepository(db),
		Classes:    classes,
		Stats:      repository.NewStatsRepository(db),
	}, service.NewRowValidator(), c.Reports, statsCache, c.Metrics, logger, service.ImportConfig{
		DefaultClassCapacity: cfg.Imports.DefaultClassCapacity,
		LoginNameMaxLength:   cfg.Imports.LoginNameMaxLength,
	})

	c.HistoricalMarks = service.NewHistoricalMarkImportService(service.HistoricalMarkRepositories{
		Classes:  classes,
		Students: students,
		Subjects: subjects,
		Terms:    repository.NewTermRepository(db),
		Marks:    repository.NewHistoricalMarkRepository(db),
	}, nil, c.Metrics, logger)

	if reportStore != nil {
		c.Queue = jobs.NewQueue("import-reports", jobs.QueueConfig{Workers: 1, BufferSize: 16, Logger: logger})
		c.Queue.Register(jobs.TypeReportCleanup, reportCleanup(reportStore, cfg.Imports.ReportsCleanupOlderBy, logger))
		c.Queue.Start(context.Background())
		c.Imports.UseCleanupQueue(c.Queue)
	}

	return c, nil
}

// Close stops the queue and closes connections.
func (c *Container) Close() {
	if c.Queue != nil {
		c.Queue.Stop()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
}
