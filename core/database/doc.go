// Package database handles database connections and schema inspection.
//
// It wraps GORM to open MySQL, PostgreSQL or SQLite connections from the application's
// configuration. Connections are opened with gorm's error translation enabled, so
// constraint violations surface as gorm.ErrDuplicatedKey and friends where the dialector
// supports it.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns for the active dialect. The merge engine uses it
// to verify a mapping against the live schema before sending any batch.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "invoices")
package database
