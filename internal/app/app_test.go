package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	"salespulse/internal/shared/testutil"
)

const appCSV = "\ufeffProduct;Branch;Sales;Quantity;Visitors;Month\n" +
	"Shirt;Downtown;100;30;120;01/08/25\n" +
	"Hat;Downtown;0;0;120;01/08/25\n" +
	"Shirt;Mall;50;7;85;01/08/25\n" +
	"Shirt;Downtown;80;10;100;01/09/25\n"

func testConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := config.Default()
	cfg.Data.SourceFile = path
	cfg.Data.ExportDir = t.TempDir()
	cfg.Telemetry.Enabled = false
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	app, err := NewApplicationWithConfig(cfg, logger)
	require.NoError(t, err)
	return app
}

func doRequest(t *testing.T, app *Application, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestNewApplicationWithConfig(t *testing.T) {
	_, err := NewApplicationWithConfig(nil, nil)
	assert.Error(t, err)

	app := newTestApp(t, testConfig(t, appCSV))
	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Dashboard)
	assert.NotNil(t, app.Health)
	assert.Equal(t, app.Config.Addr(), app.Server.Addr)
	assert.True(t, filepath.IsAbs(app.Dashboard.SourcePath()))
}

func TestRoutes_Health(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		target   string
		wantCode int
		wantKey  string
		wantVal  string
	}{
		{name: "health", content: appCSV, target: "/api/health", wantCode: http.StatusOK, wantKey: "status", wantVal: "ok"},
		{name: "live", content: appCSV, target: "/api/health/live", wantCode: http.StatusOK, wantKey: "status", wantVal: "alive"},
		{name: "ready", content: appCSV, target: "/api/health/ready", wantCode: http.StatusOK, wantKey: "status", wantVal: "ready"},
		{name: "not ready without source", target: "/api/health/ready", wantCode: http.StatusServiceUnavailable, wantKey: "status", wantVal: "not_ready"},
		{name: "version", content: appCSV, target: "/api/version", wantCode: http.StatusOK, wantKey: "version", wantVal: VERSION},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, testConfig(t, tt.content))
			rec := doRequest(t, app, http.MethodGet, tt.target, "")

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantVal, decode(t, rec)[tt.wantKey])
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestRoutes_Dashboard(t *testing.T) {
	app := newTestApp(t, testConfig(t, appCSV))

	t.Run("months", func(t *testing.T) {
		rec := doRequest(t, app, http.MethodGet, "/api/dashboard/months", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, []interface{}{}, body["advisories"])
	})

	t.Run("overview of requested month", func(t *testing.T) {
		rec := doRequest(t, app, http.MethodGet, "/api/dashboard/overview?month=August+2025", "")
		require.Equal(t, http.StatusOK, rec.Code)

		data := decode(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, "August 2025", data["month"])
		assert.Equal(t, float64(150), data["total_sales"])
		assert.Equal(t, float64(37), data["total_quantity"])
		assert.Equal(t, float64(205), data["visitors"])
	})

	t.Run("overview defaults to latest month", func(t *testing.T) {
		rec := doRequest(t, app, http.MethodGet, "/api/dashboard/overview", "")
		require.Equal(t, http.StatusOK, rec.Code)

		data := decode(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, "September 2025", data["month"])
		assert.Equal(t, float64(80), data["total_sales"])
	})

	t.Run("invalid month", func(t *testing.T) {
		rec := doRequest(t, app, http.MethodGet, "/api/dashboard/overview?month=2025-08", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, float64(http.StatusBadRequest), decode(t, rec)["status"])
	})

	t.Run("query", func(t *testing.T) {
		rec := doRequest(t, app, http.MethodPost, "/api/dashboard/query",
			`{"group_by":["branch"],"aggregations":{"quantity":"sum"}}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, decode(t, rec)["data"], 2)
	})

	t.Run("query with invalid json", func(t *testing.T) {
		rec := doRequest(t, app, http.MethodPost, "/api/dashboard/query", `{"group_by":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reload without body", func(t *testing.T) {
		rec := doRequest(t, app, http.MethodPost, "/api/dashboard/reload", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		data := decode(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, float64(4), data["rows"])
	})

	t.Run("csv export", func(t *testing.T) {
		rec := doRequest(t, app, http.MethodGet, "/api/dashboard/export.csv?view=products&month=August+2025", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
		assert.True(t, strings.HasPrefix(rec.Body.String(), "\ufeff"))
	})
}

func TestRoutes_NoMonthData(t *testing.T) {
	app := newTestApp(t, testConfig(t, "Product;Branch;Sales;Quantity;Visitors;Month\nShirt;Mall;1;1;1;soon\n"))

	rec := doRequest(t, app, http.MethodGet, "/api/dashboard/overview", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NO_MONTH_DATA", decode(t, rec)["error_code"])
}

func TestRoutes_NotFound(t *testing.T) {
	app := newTestApp(t, testConfig(t, appCSV))

	rec := doRequest(t, app, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, app, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes_Metrics(t *testing.T) {
	cfg := testConfig(t, appCSV)
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.MetricsEnabled = true
	cfg.Telemetry.TraceExporter = config.TraceExporterNone
	app := newTestApp(t, cfg)
	t.Cleanup(func() { _ = app.Telemetry.Shutdown(context.Background()) })

	require.Equal(t, http.StatusOK, doRequest(t, app, http.MethodGet, "/api/dashboard/months", "").Code)

	rec := doRequest(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "salespulse_http_requests")
}

func TestStartStop(t *testing.T) {
	cfg := testConfig(t, appCSV)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	app := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	assert.Equal(t, 1, app.Cache.Stats().Entries)
	assert.NoError(t, app.Stop(context.Background()))
}

func freePort(t *testing.T) int {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	return srv.Listener.Addr().(*net.TCPAddr).Port
}
