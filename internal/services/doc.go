// Package services implements the dashboard use cases on top of the table
// cache and the report views.
//
// DashboardService resolves the configured source file through a
// TableSource, picks the default month when none is requested and wraps
// every view with the advisories of the table it came from:
//
//	svc := services.NewDashboardService(cache, cfg.Data.SourceFile, logger)
//	res, err := svc.Overview(ctx, "")
//	if errors.Is(err, services.ErrNoMonthData) {
//		// the file has no parsable months
//	}
//
// HealthService reports liveness, version and readiness. The service is
// ready only while the source file loads.
package services
