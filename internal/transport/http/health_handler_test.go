package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

type stubProber struct {
	info domain.SourceInfo
	err  error
}

func (s stubProber) Source(context.Context) (services.Result[domain.SourceInfo], error) {
	return services.Result[domain.SourceInfo]{Data: s.info}, s.err
}

func (s stubProber) CacheStats() dataprocessing.CacheStats {
	return dataprocessing.CacheStats{Entries: 1, Misses: 1}
}

func TestHealthHandler(t *testing.T) {
	ready := NewHealthHandler(services.NewHealthService("v1.0.0-test",
		stubProber{info: domain.SourceInfo{Path: "/data/sales.csv", Rows: 12}}, nil), nil)
	broken := NewHealthHandler(services.NewHealthService("v1.0.0-test",
		stubProber{err: errors.New("open /data/sales.csv: no such file")}, nil), nil)

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "health",
			handler:    ready.HealthCheck,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "ok", body["status"])
				assert.Equal(t, "v1.0.0-test", body["version"])
			},
		},
		{
			name:       "ready",
			handler:    ready.ReadinessCheck,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "ready", body["status"])
				svc := body["services"].(map[string]interface{})
				source := svc["source"].(map[string]interface{})
				assert.Contains(t, source["message"], "12 rows")
				assert.Contains(t, svc, "cache")
			},
		},
		{
			name:       "not ready",
			handler:    broken.ReadinessCheck,
			wantStatus: http.StatusServiceUnavailable,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "not_ready", body["status"])
			},
		},
		{
			name:       "live",
			handler:    ready.LivenessCheck,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "alive", body["status"])
				assert.Contains(t, body, "runtime")
			},
		},
		{
			name:       "version",
			handler:    ready.Version,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "v1.0.0-test", body["version"])
				assert.Contains(t, body, "go_version")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			tt.check(t, body)
		})
	}
}
