// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly
// configure MySQL and SQLite connections based on the application's
// configuration.
//
// # Connect
//
// The generic Connect function establishes a connection to the configured
// backend. It is agnostic to the backpack schema regarding connection
// establishment; the dialect-specific statement shapes live with the query
// builder, not here.
//
// # Schema Inspection
//
// The package includes tools to inspect the live schema, which the startup
// check uses to verify that the configured table and column names actually
// exist before the gateway starts serving.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.VerifyColumns(db, "backpacks", []string{"owner", "its", "version"})
package database
