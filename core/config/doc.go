// Package config provides configuration management for the backpack
// gateway.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file, with defaults declared as struct tags on the
// partial configuration types.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - Server: admin HTTP server settings (port, API key)
//   - Database: MySQL / SQLite connection details
//   - Worker: async worker pool sizing
//   - Backpack: table/field names, identity mode, retention, serializer
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Driver)
package config
