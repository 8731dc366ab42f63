package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Boatkungg/teerute-tpat13-checker/pkg/jobs"
)

func TestMetricsServiceTrackQueue(t *testing.T) {
	m := NewMetricsService()
	stats := jobs.Stats{Succeeded: 4, Failed: 1, Retried: 2}
	require.NoError(t, m.TrackQueue("maintenance", func() jobs.Stats { return stats }))

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "background_jobs_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" {
					got[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"succeeded": 4, "failed": 1, "retried": 2, "dropped": 0}, got)

	assert.Error(t, m.TrackQueue("maintenance", func() jobs.Stats { return stats }))
}

func TestMetricsServiceNilIsNoop(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	assert.NoError(t, m.TrackQueue("x", func() jobs.Stats { return jobs.Stats{} }))
	assert.Nil(t, m.Registry())

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
