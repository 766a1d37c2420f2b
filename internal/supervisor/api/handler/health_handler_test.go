package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"piview/internal/supervisor/model"
	"piview/internal/supervisor/state"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStatusCode(t *testing.T) {
	testCases := []struct {
		status model.Status
		code   int
	}{
		{model.StatusStarting, http.StatusOK},
		{model.StatusHealthy, http.StatusOK},
		{model.StatusDegraded, http.StatusOK},
		{model.StatusFailing, http.StatusServiceUnavailable},
		{model.StatusRebooting, http.StatusServiceUnavailable},
	}
	for _, tc := range testCases {
		t.Run(tc.status.String(), func(t *testing.T) {
			assert.Equal(t, tc.code, StatusCode(tc.status))
		})
	}
}

func TestGetHealth(t *testing.T) {
	testCases := []struct {
		name           string
		prepare        func(rec *state.Record)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "Healthy",
			prepare: func(rec *state.Record) {
				rec.SetMonitorStatus(model.StatusHealthy)
				rec.SetNetwork(model.NetworkPrimary)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "Healthy",
		},
		{
			name:           "Starting",
			prepare:        func(rec *state.Record) {},
			expectedStatus: http.StatusOK,
			expectedBody:   "Starting",
		},
		{
			name: "Failing",
			prepare: func(rec *state.Record) {
				rec.SetMonitorStatus(model.StatusFailing)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   "Failing",
		},
		{
			name: "Rebooting",
			prepare: func(rec *state.Record) {
				rec.SetRebooting()
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   "Rebooting",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			rec := state.NewRecord("run-1", "https://dash.example")
			tc.prepare(rec)
			h := NewHealthHandler(rec, prometheus.NewRegistry(), zap.NewNop())

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
			h.GetHealth()(c)

			assert.Equal(t, tc.expectedStatus, w.Code)
			var body model.HealthRecord
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.expectedBody, body.Status.String())
			assert.Equal(t, "run-1", body.RunID)
			assert.Equal(t, "https://dash.example", body.URL)
		})
	}
}

func TestGetMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: "piview_test_gauge", Help: "test"}, func() float64 { return 4 }))
	h := NewHealthHandler(state.NewRecord("run", "https://dash.example"), reg, zap.NewNop())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	h.GetMetrics()(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "piview_test_gauge 4"))
}
