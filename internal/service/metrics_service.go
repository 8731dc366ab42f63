package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
	"github.com/Boatkungg/teerute-tpat13-checker/pkg/jobs"
)

// MetricsService encapsulates Prometheus instrumentation. A nil *MetricsService is a no-op.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	inFlight        prometheus.Gauge
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	mergesTotal     prometheus.Counter
	mergeFiles      prometheus.Histogram
	mergeStudents   prometheus.Histogram
	mergeDuration   prometheus.Histogram
	skippedRows     *prometheus.CounterVec
	scoringsTotal   prometheus.Counter
	scoringDuration prometheus.Histogram
	scoredStudents  prometheus.Histogram
	keyQuestions    prometheus.Histogram
	unencoded       prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Requests currently being served",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for result store lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for result store writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total result store hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total result store misses",
	})

	mergesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "merges_total",
		Help: "Total completed merges",
	})

	mergeFiles := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "merge_input_files",
		Help:    "Number of files per merge",
		Buckets: []float64{1, 2, 3, 4, 5, 8, 12, 20},
	})

	mergeStudents := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "merge_students",
		Help:    "Distinct students per merged table",
		Buckets: prometheus.ExponentialBuckets(10, 2, 10),
	})

	mergeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "merge_duration_seconds",
		Help:    "Time spent merging tables",
		Buckets: prometheus.DefBuckets,
	})

	skippedRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "merge_skipped_total",
		Help: "Rows and tables dropped during merges",
	}, []string{"reason"})

	scoringsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scorings_total",
		Help: "Total completed scoring passes",
	})

	scoringDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scoring_duration_seconds",
		Help:    "Time spent scoring a table",
		Buckets: prometheus.DefBuckets,
	})

	scoredStudents := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scoring_students",
		Help:    "Students scored per pass",
		Buckets: prometheus.ExponentialBuckets(10, 2, 10),
	})

	keyQuestions := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "answer_key_questions",
		Help:    "Questions indexed per answer key",
		Buckets: []float64{10, 20, 40, 60, 80, 120, 200},
	})

	unencoded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scoring_unencoded_selections_total",
		Help: "Student selections the answer codec could not encode",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, inFlight, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		mergesTotal, mergeFiles, mergeStudents, mergeDuration, skippedRows,
		scoringsTotal, scoringDuration, scoredStudents, keyQuestions, unencoded, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		inFlight:        inFlight,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		mergesTotal:     mergesTotal,
		mergeFiles:      mergeFiles,
		mergeStudents:   mergeStudents,
		mergeDuration:   mergeDuration,
		skippedRows:     skippedRows,
		scoringsTotal:   scoringsTotal,
		scoringDuration: scoringDuration,
		scoredStudents:  scoredStudents,
		keyQuestions:    keyQuestions,
		unencoded:       unencoded,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// BeginRequest marks a request as in flight. The returned func ends it.
func (m *MetricsService) BeginRequest() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// RecordCacheOperation records result store hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for result store writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveMerge records one completed merge.
func (m *MetricsService) ObserveMerge(files int, table models.MergedTable, duration time.Duration) {
	if m == nil {
		return
	}
	m.mergesTotal.Inc()
	m.mergeFiles.Observe(float64(files))
	m.mergeStudents.Observe(float64(table.StudentCount()))
	m.mergeDuration.Observe(duration.Seconds())
	m.skippedRows.WithLabelValues("blank_identifier").Add(float64(table.Skipped.BlankIdentifiers))
	m.skippedRows.WithLabelValues("empty_table").Add(float64(table.Skipped.EmptyTables))
}

// ObserveScoring records one completed scoring pass.
func (m *MetricsService) ObserveScoring(questions int, result models.ScoreResult, duration time.Duration) {
	if m == nil {
		return
	}
	m.scoringsTotal.Inc()
	m.keyQuestions.Observe(float64(questions))
	m.scoringDuration.Observe(duration.Seconds())
	m.scoredStudents.Observe(float64(len(result.Rows)))
	m.unencoded.Add(float64(result.UnencodedSelections))
}

// TrackQueue exports the outcome counters of a background queue.
func (m *MetricsService) TrackQueue(name string, stats func() jobs.Stats) error {
	if m == nil {
		return nil
	}
	outcomes := map[string]func(jobs.Stats) uint64{
		"succeeded": func(s jobs.Stats) uint64 { return s.Succeeded },
		"failed":    func(s jobs.Stats) uint64 { return s.Failed },
		"retried":   func(s jobs.Stats) uint64 { return s.Retried },
		"dropped":   func(s jobs.Stats) uint64 { return s.Dropped },
	}
	for outcome, pick := range outcomes {
		pick := pick
		counter := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "background_jobs_total",
			Help:        "Background jobs by queue and outcome",
			ConstLabels: prometheus.Labels{"queue": name, "outcome": outcome},
		}, func() float64 {
			return float64(pick(stats()))
		})
		if err := m.registry.Register(counter); err != nil {
			return fmt.Errorf("register %s queue metrics: %w", name, err)
		}
	}
	return nil
}
