// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure sqlite (the default, a local
// file) or MySQL connections based on the application's configuration.
//
// # Connect
//
// Connect opens the configured driver and pings it. sqlite connections are
// limited to a single connection and run in WAL mode with a busy timeout.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table for either dialect, and
// MissingColumns reports which expected columns a table lacks. Feature
// packages use it to refuse to work against a database of the wrong shape.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//
//	missing, err := database.MissingColumns(db, "post_versions", []string{"id", "post_id", "version"})
package database
