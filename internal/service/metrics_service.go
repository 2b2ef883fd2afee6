package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-scheduling-api/internal/models"
)

const metricsNamespace = "scheduling"

// RealtimeStats is implemented by the change-notification channel registry.
type RealtimeStats interface {
	ActiveChannels() int
	TotalSubscribers() int
	Delivered() uint64
}

// MetricsService owns the Prometheus registry and keeps running totals for snapshots.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	holidayLoads    *prometheus.CounterVec
	schedules       *prometheus.CounterVec
	capacityChecks  *prometheus.CounterVec
	slotsResolved   prometheus.Counter

	realtimeMu sync.RWMutex
	realtime   RealtimeStats

	cacheHitCount        atomic.Uint64
	cacheMissCount       atomic.Uint64
	requestCount         atomic.Uint64
	requestDurationTotal atomic.Uint64
	dbQueryCount         atomic.Uint64
	dbQueryDurationTotal atomic.Uint64
}

// NewMetricsService registers the service collectors plus Go runtime collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	m := &MetricsService{registry: registry}

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "cache_read_seconds",
		Help:      "Latency of cache reads",
		Buckets:   prometheus.DefBuckets,
	})
	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "cache_write_seconds",
		Help:      "Latency of cache writes",
		Buckets:   prometheus.DefBuckets,
	})
	m.cacheLatency, m.cacheWrite = cacheLatency, cacheWrite

	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "cache_hit_ratio",
		Help:      "Ratio of cache hits to total cache lookups",
	})

	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by result",
	}, []string{"result"})

	m.dbQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "db_query_duration_seconds",
		Help:      "Duration of store queries",
		Buckets:   prometheus.DefBuckets,
	}, []string{"query"})

	m.holidayLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "holiday_year_loads_total",
		Help:      "Holiday year loads by the layer that answered",
	}, []string{"source"})

	m.schedules = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "course_schedules_total",
		Help:      "Course schedule computations by outcome",
	}, []string{"outcome"})

	m.capacityChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "capacity_checks_total",
		Help:      "Capacity checks by result",
	}, []string{"result"})

	m.slotsResolved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "slots_resolved_total",
		Help:      "Dated availability slots produced",
	})

	realtimeGauge := func(name, help string, read func(RealtimeStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Namespace: metricsNamespace, Name: name, Help: help}, func() float64 {
			m.realtimeMu.RLock()
			defer m.realtimeMu.RUnlock()
			if m.realtime == nil {
				return 0
			}
			return read(m.realtime)
		})
	}

	registry.MustRegister(
		m.requestDuration, m.requestTotal, cacheLatency, cacheWrite, m.cacheHitRatio, m.cacheLookups,
		m.dbQueryDuration, m.holidayLoads, m.schedules, m.capacityChecks, m.slotsResolved,
		realtimeGauge("realtime_channels", "Open teacher availability channels", func(r RealtimeStats) float64 { return float64(r.ActiveChannels()) }),
		realtimeGauge("realtime_subscribers", "Registered availability watchers", func(r RealtimeStats) float64 { return float64(r.TotalSubscribers()) }),
		realtimeGauge("realtime_deliveries", "Events handed to watchers", func(r RealtimeStats) float64 { return float64(r.Delivered()) }),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return m
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

// TrackRealtime attaches the channel registry whose counts the realtime gauges report.
func (m *MetricsService) TrackRealtime(stats RealtimeStats) {
	if m == nil {
		return
	}
	m.realtimeMu.Lock()
	m.realtime = stats
	m.realtimeMu.Unlock()
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	m.requestCount.Add(1)
	m.requestDurationTotal.Add(uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		m.cacheHitCount.Add(1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		m.cacheMissCount.Add(1)
	}
	hits := m.cacheHitCount.Load()
	if total := hits + m.cacheMissCount.Load(); total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records store query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.dbQueryCount.Add(1)
	m.dbQueryDurationTotal.Add(uint64(duration.Nanoseconds()))
}

// RecordHolidayLoad counts which layer (lru, redis, store) answered a holiday year load.
func (m *MetricsService) RecordHolidayLoad(source string) {
	if m == nil {
		return
	}
	m.holidayLoads.WithLabelValues(source).Inc()
}

// RecordSchedule counts a course schedule computation.
func (m *MetricsService) RecordSchedule(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.schedules.WithLabelValues(outcome).Inc()
}

// RecordCapacityCheck counts a capacity check by whether it would exceed.
func (m *MetricsService) RecordCapacityCheck(exceeds bool) {
	if m == nil {
		return
	}
	result := "fits"
	if exceeds {
		result = "exceeds"
	}
	m.capacityChecks.WithLabelValues(result).Inc()
}

// RecordSlotsResolved adds n produced slots.
func (m *MetricsService) RecordSlotsResolved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.slotsResolved.Add(float64(n))
}

// Snapshot aggregates counters for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := m.cacheHitCount.Load()
	misses := m.cacheMissCount.Load()
	requests := m.requestCount.Load()
	dbCount := m.dbQueryCount.Load()

	out := models.SystemMetrics{
		CacheHits:     hits,
		CacheMisses:   misses,
		RequestsTotal: requests,
		DBQueryCount:  dbCount,
		Goroutines:    runtime.NumGoroutine(),
		GeneratedAt:   time.Now().UTC(),
	}
	if total := hits + misses; total > 0 {
		out.CacheHitRatio = float64(hits) / float64(total)
	}
	if requests > 0 {
		out.AverageRequestDurationMs = float64(m.requestDurationTotal.Load()) / float64(requests) / float64(time.Millisecond)
	}
	if dbCount > 0 {
		out.AverageDBQueryDurationMs = float64(m.dbQueryDurationTotal.Load()) / float64(dbCount) / float64(time.Millisecond)
	}

	m.realtimeMu.RLock()
	if m.realtime != nil {
		out.ActiveChannels = int64(m.realtime.ActiveChannels())
		out.ActiveSubscribers = int64(m.realtime.TotalSubscribers())
		out.EventsDelivered = m.realtime.Delivered()
	}
	m.realtimeMu.RUnlock()
	return out
}
