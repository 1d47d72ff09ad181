package config

import "time"

// Application constants
const (
	AppName = "SalesPulse"

	// EnvPrefix namespaces every environment variable, e.g. SALESPULSE_SERVER_PORT.
	EnvPrefix = "SALESPULSE"

	// DotEnvFile is read before the environment is processed. Missing is fine.
	DotEnvFile = ".env"

	// Data defaults
	DefaultSourceFile      = "Products_2025.csv"
	DefaultExportDir       = "exports"
	DefaultCacheMaxEntries = 8
	DefaultMaxFileBytes    = 256 * 1024 * 1024 // 256MB

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Timeouts
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 30 * time.Second

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"
	DefaultLogFile   = "logs/salespulse.log"

	// Telemetry
	DefaultServiceName   = "salespulse"
	TraceExporterNone    = "none"
	TraceExporterStdout  = "stdout"
	DefaultTraceExporter = TraceExporterNone

	// API Endpoints
	APIBasePath       = "/api"
	DashboardEndpoint = "/api/dashboard"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
)
