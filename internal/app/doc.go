// Package app wires the SalesPulse server together and owns its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, config.yaml, .env, SALESPULSE_* env)
//	2. Initialize the slog logger and OpenTelemetry providers
//	3. Build the normalizer, table cache and dashboard/health services
//	4. Set up the chi router, middleware chain and handlers
//	5. Create the HTTP server
//
// # Routes
//
//	/api/health, /api/health/ready, /api/health/live, /api/version
//	/api/dashboard/...   dashboard views, query and exports
//	/metrics             Prometheus exposition when metrics are enabled
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// Server.ShutdownTimeout and flushes telemetry.
package app
