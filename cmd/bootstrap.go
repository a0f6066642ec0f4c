package cmd

import (
	"fmt"
	"time"

	"bulkmerge/core/config"
	"bulkmerge/core/database"
	"bulkmerge/core/logger"
	"bulkmerge/core/merge"
	"bulkmerge/core/report"
	"bulkmerge/core/storage"
	"bulkmerge/feature/invoice"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const slowQuery = 2 * time.Second

// deps is what every command needs to run a merge.
type deps struct {
	cfg      *config.Config
	logger   *zap.Logger
	engine   *merge.Engine
	reporter report.Reporter
	// store is nil unless report.upload is set.
	store *report.StorageReporter
}

func bootstrap() (*deps, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	level := gormlogger.Warn
	if cfg.Log.Level == "debug" {
		level = gormlogger.Info
	}
	db.Logger = logger.NewGormLogger(logg, level, slowQuery)
	logg.Info("Connected to database",
		zap.String("driver", cfg.Database.Driver),
		zap.String("name", cfg.Database.Name),
	)

	rt := &deps{
		cfg:    cfg,
		logger: logg,
		engine: merge.NewEngine(db, cfg.Merge, logg),
	}

	reporters := report.Multi{report.NewLogReporter(logg)}
	if cfg.Report.Upload {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		rt.store = report.NewStorageReporter(client, cfg.Storage.Bucket, cfg.Storage.Region, cfg.Report.Prefix)
		reporters = append(reporters, rt.store)
	}
	rt.reporter = reporters

	return rt, nil
}

// lister returns the report store as an invoice.Lister, or nil.
func (rt *deps) lister() invoice.Lister {
	if rt.store == nil {
		return nil
	}
	return rt.store
}
