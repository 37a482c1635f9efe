package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-academic-api/internal/models"
)

func TestMetricsServiceGradingCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordFinalScore(true)
	m.RecordFinalScore(true)
	m.RecordFinalScore(false)
	m.RecordProgression(models.ProgressionApproved)
	m.RecordReportJob(models.ReportTypeProgression, models.ReportStatusFinished)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.finalScores.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.finalScores.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.progression.WithLabelValues("APPROVED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportJobs.WithLabelValues("progression", "FINISHED")))
}

func TestMetricsServiceCacheRatioAndHandler(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/students/:id/report-card", http.StatusOK, 5*time.Millisecond)

	assert.Equal(t, 0.5, testutil.ToFloat64(m.cacheHitRatio))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordFinalScore(true)
	m.RecordProgression(models.ProgressionNoEnrollments)
	m.ObserveHTTPRequest(http.MethodGet, "/", 200, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
