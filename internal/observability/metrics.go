package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/platform/envutil"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests   *CounterVec
	apiLatency    *HistogramVec
	apiInflight   *Gauge
	apiReqError   *Counter
	checkout      *CounterVec
	checkoutMinor *CounterVec
	invoices      *CounterVec
	sideEffects   *CounterVec
	courseCache   *CounterVec
	jobs          *CounterVec
	jobLatency    *HistogramVec
	pgStats       *GaugeVec
	redisUp       *Gauge
	redisPing     *Gauge
}

// Counter is a CounterVec without labels.
type Counter = CounterVec

func NewCounter(name, help string) *Counter { return NewCounterVec(name, help, nil) }

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics, or nil when disabled. Every method
// is safe to call on nil.
func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

// New builds an unregistered metrics set. Init is the process-wide entry point.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("ab_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"ab_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		),
		apiInflight:   NewGauge("ab_api_inflight_requests", "In-flight API requests."),
		apiReqError:   NewCounter("ab_api_requests_error_total", "API requests answered with a 5xx status."),
		checkout:      NewCounterVec("ab_checkout_events_total", "Checkout events by step/region/status.", []string{"step", "region", "status"}),
		checkoutMinor: NewCounterVec("ab_checkout_revenue_minor_total", "Captured revenue in minor units by currency.", []string{"currency"}),
		invoices:      NewCounterVec("ab_invoices_total", "Invoice deliveries by kind/status.", []string{"kind", "status"}),
		sideEffects:   NewCounterVec("ab_side_effects_total", "Best-effort side effects by name/status.", []string{"name", "status"}),
		courseCache:   NewCounterVec("ab_course_cache_total", "Course cache lookups by result.", []string{"result"}),
		jobs:          NewCounterVec("ab_jobs_total", "Scheduled job runs by job/status.", []string{"job", "status"}),
		jobLatency: NewHistogramVec(
			"ab_job_duration_seconds",
			"Scheduled job duration in seconds.",
			[]string{"job"},
			[]float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		),
		pgStats:   NewGaugeVec("ab_postgres_stats", "Postgres connection pool stats.", []string{"metric"}),
		redisUp:   NewGauge("ab_redis_up", "Redis connectivity (1=up, 0=down)."),
		redisPing: NewGauge("ab_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqError,
		m.checkout, m.checkoutMinor, m.invoices, m.sideEffects, m.courseCache,
		m.jobs, m.jobLatency, m.pgStats, m.redisUp, m.redisPing,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
	if strings.HasPrefix(status, "5") {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncCheckout(step, region, status string) {
	if m == nil {
		return
	}
	m.checkout.Inc(step, region, status)
}

func (m *Metrics) AddRevenue(currency string, amountMinor int64) {
	if m == nil || amountMinor <= 0 {
		return
	}
	m.checkoutMinor.Add(float64(amountMinor), currency)
}

func (m *Metrics) IncInvoice(kind, status string) {
	if m == nil {
		return
	}
	m.invoices.Inc(kind, status)
}

func (m *Metrics) IncSideEffect(name, status string) {
	if m == nil {
		return
	}
	m.sideEffects.Inc(name, status)
}

func (m *Metrics) IncCourseCache(result string) {
	if m == nil {
		return
	}
	m.courseCache.Inc(result)
}

func (m *Metrics) ObserveJob(job, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.jobs.Inc(job, status)
	m.jobLatency.Observe(dur.Seconds(), job)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	interval := scrapeInterval()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
