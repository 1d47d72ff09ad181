// Package shared holds helpers used across SalesPulse packages that belong to
// no single layer.
//
// # Test Utilities
//
// The testutil subpackage provides BufferedSlogHandler, a slog.Handler that
// captures records so tests can assert on log output:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    svc := NewService(logger)
//	    svc.Do()
//	    testutil.AssertLogContains(t, handler, slog.LevelInfo, "done")
//	}
package shared
