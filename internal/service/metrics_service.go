package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/campus-gatepass-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the API
// and the gate checkpoint flow.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	scanTotal       *prometheus.CounterVec
	passLifecycle   *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	sweepExpired    prometheus.Counter
}

// NewMetricsService registers the core Prometheus collectors.
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

	scanTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gate_scans_total",
		Help: "Gate scan outcomes",
	}, []string{"result"})

	passLifecycle := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pass_transitions_total",
		Help: "Pass lifecycle transitions applied",
	}, []string{"to"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	sweepExpired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pass_sweep_expired_total",
		Help: "Passes expired by the background sweep",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, scanTotal, passLifecycle, cacheHits, cacheMisses, sweepExpired, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		scanTotal:       scanTotal,
		passLifecycle:   passLifecycle,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		sweepExpired:    sweepExpired,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveScan counts a gate scan outcome.
func (m *MetricsService) ObserveScan(result models.ScanResult) {
	if m == nil {
		return
	}
	m.scanTotal.WithLabelValues(string(result)).Inc()
}

// ObserveTransition counts a lifecycle transition by target state.
func (m *MetricsService) ObserveTransition(to models.PassStatus) {
	if m == nil {
		return
	}
	m.passLifecycle.WithLabelValues(string(to)).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordSweep counts passes expired by the background sweep.
func (m *MetricsService) RecordSweep(expired int64) {
	if m == nil || expired <= 0 {
		return
	}
	m.sweepExpired.Add(float64(expired))
}
