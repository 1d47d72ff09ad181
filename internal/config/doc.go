// Package config provides centralized configuration management for SalesPulse.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is layered, later sources overriding earlier ones:
//
//	1. Defaults from Default()
//	2. YAML file (config.yaml or configs/config.yaml)
//	3. A .env file in the working directory (never overrides real env vars)
//	4. Environment variables (highest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SALESPULSE_<SECTION>_<FIELD>:
//
//	SALESPULSE_SERVER_PORT=8080
//	SALESPULSE_DATA_SOURCE_FILE=/srv/data/Products_2025.csv
//	SALESPULSE_LOGGING_LEVEL=debug
//	SALESPULSE_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests should use Default() or LoadFrom with a temp file.
package config
