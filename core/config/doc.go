// Package config provides configuration management for inventory-sync.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file, with defaults driven by struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: destination database connection details
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: logging level and format
//   - Sync: source-of-truth backend and audit settings
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
