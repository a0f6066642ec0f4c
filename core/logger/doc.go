// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber web framework and with GORM.
//
// # Context Awareness
//
// The WithRayID helper extracts the RayID from a Fiber context and attaches it to the
// log entry, so all logs related to a specific request can be correlated.
//
// # SQL Logging
//
// GormLogger implements gorm's logger interface on top of zap. Failed statements are
// logged as errors, slow ones as warnings, everything else at debug level.
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	db.Logger = logger.NewGormLogger(log, gormlogger.Warn, 200*time.Millisecond)
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
