// Package database handles connections to the destination database.
//
// It provides a wrapper around GORM to configure MySQL connections (the
// production destination backend) and SQLite connections (local files and
// the in-memory databases the tests run against).
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
