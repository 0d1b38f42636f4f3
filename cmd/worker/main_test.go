package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	jobmetrics "github.com/gamestore/gamestore-admin/internal/jobs"
)

func TestMetricsServerExposesDrift(t *testing.T) {
	metrics, handler := jobmetrics.NewExporter()
	metrics.AddDrift("Moderator", 1)
	srv := newMetricsServer(":0", handler)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `gamestore_rbac_permission_drift_total{role="Moderator"} 1`)

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
