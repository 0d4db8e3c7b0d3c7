// Package config provides configuration management for the reconciler.
//
// It utilizes Viper for loading configuration from environment variables
// and a local .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all settings, divided
// into subsections:
//   - Api: remote API base URL, tokens, retry and pagination tuning
//   - Database: MySQL connection details for the extractor store
//   - Log: logging level and format
//   - Report: run artifact directory
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Api.BaseURL)
package config
