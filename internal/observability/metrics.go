package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	// ScrapeInterval drives the postgres and redis collectors.
	ScrapeInterval      time.Duration `yaml:"scrape_interval"`
	APILatencySLOSecond float64       `yaml:"api_latency_slo_seconds"`
}

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	reg *registry

	apiRequests *vec
	apiLatency  *histVec
	apiInflight *vec
	apiTotal    *vec
	apiErrors   *vec
	apiGood     *vec

	aggOps       *vec
	aggLatency   *histVec
	aggConflicts *vec
	aggRetries   *vec

	transitions   *vec
	thumbUploads  *vec
	thumbBytes    *histVec
	notifications *vec
	cacheLookups  *vec

	pgPool    *vec
	redisUp   *vec
	redisPing *vec

	latencySLO     float64
	scrapeInterval time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics { return instance }

// Init builds the process-wide metrics once. Disabled metrics return nil.
func Init(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	initOnce.Do(func() { instance = newMetrics("cc", cfg) })
	return instance
}

func newMetrics(prefix string, cfg MetricsConfig) *Metrics {
	r := &registry{}
	n := func(name string) string { return prefix + "_" + name }
	route := []string{"method", "route", "status"}
	op := []string{"operation", "status"}
	m := &Metrics{
		reg: r,

		apiRequests: r.counter(n("api_requests_total"), "API requests by method, route and status.", route...),
		apiLatency:  r.histogram(n("api_request_duration_seconds"), "API latency in seconds.", []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}, route...),
		apiInflight: r.gauge(n("api_inflight_requests"), "Requests being served."),
		apiTotal:    r.counter(n("api_requests_total_all"), "All API requests."),
		apiErrors:   r.counter(n("api_requests_error_total"), "API requests answered with a 5xx status."),
		apiGood:     r.counter(n("api_requests_good_total"), "API requests answered within the latency objective."),

		aggOps:       r.counter(n("aggregate_operations_total"), "Course write attempts by operation and status.", op...),
		aggLatency:   r.histogram(n("aggregate_operation_duration_seconds"), "Course write attempt latency.", []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}, op...),
		aggConflicts: r.counter(n("aggregate_conflicts_total"), "Version conflicts by operation.", "operation"),
		aggRetries:   r.counter(n("aggregate_retries_total"), "Retryable write failures by operation.", "operation"),

		transitions:   r.counter(n("course_transitions_total"), "Course lifecycle transitions by target status.", "to"),
		thumbUploads:  r.counter(n("thumbnail_uploads_total"), "Thumbnail uploads by outcome.", "status"),
		thumbBytes:    r.histogram(n("thumbnail_upload_bytes"), "Accepted thumbnail sizes in bytes.", []float64{16 << 10, 64 << 10, 256 << 10, 512 << 10, 1 << 20, 2 << 20}),
		notifications: r.counter(n("notifications_total"), "Outbound notifications by kind and status.", "kind", "status"),
		cacheLookups:  r.counter(n("cache_lookups_total"), "Read cache lookups by cache and result.", "cache", "result"),

		pgPool:    r.gauge(n("postgres_pool"), "Database pool stats.", "stat"),
		redisUp:   r.gauge(n("redis_up"), "1 when the last redis ping succeeded."),
		redisPing: r.gauge(n("redis_ping_seconds"), "Last redis ping latency."),

		latencySLO:     cfg.APILatencySLOSecond,
		scrapeInterval: cfg.ScrapeInterval,
	}
	if m.latencySLO <= 0 {
		m.latencySLO = 0.5
	}
	if m.scrapeInterval <= 0 {
		m.scrapeInterval = 10 * time.Second
	}
	return m
}

// StartServer serves the exposition on addr until ctx ends.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	addr = strings.TrimSpace(addr)
	if m == nil || addr == "" {
		return
	}
	srv := &http.Server{Addr: addr, Handler: http.HandlerFunc(m.WriteHTTP), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		stop, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(stop)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && log != nil {
			log.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.reg.writeTo(w)
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method, route, status = orDefault(method, "UNKNOWN"), orDefault(route, "unknown"), orDefault(status, "0")
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiTotal.Inc()
	if strings.HasPrefix(status, "5") && len(status) == 3 {
		m.apiErrors.Inc()
	}
	if dur.Seconds() <= m.latencySLO {
		m.apiGood.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Add(1)
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Add(-1)
	}
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	name, status = orDefault(name, "unknown"), orDefault(status, "unknown")
	m.aggOps.Inc(name, status)
	m.aggLatency.Observe(dur.Seconds(), name, status)
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m != nil {
		m.aggConflicts.Inc(name)
	}
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m != nil {
		m.aggRetries.Inc(name)
	}
}

func (m *Metrics) IncCourseTransition(to string) {
	if m != nil {
		m.transitions.Inc(to)
	}
}

// ObserveThumbnailUpload records size only for accepted ("ok") uploads.
func (m *Metrics) ObserveThumbnailUpload(status string, size int64) {
	if m == nil {
		return
	}
	m.thumbUploads.Inc(status)
	if status == "ok" && size > 0 {
		m.thumbBytes.Observe(float64(size))
	}
}

func (m *Metrics) IncNotification(kind, status string) {
	if m != nil {
		m.notifications.Inc(kind, status)
	}
}

func (m *Metrics) IncCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(cache, result)
}

// StartPostgresCollector samples the sql.DB pool behind db.
func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("pool metrics disabled", "error", err)
		}
		return
	}
	go m.every(ctx, func() {
		s := sqlDB.Stats()
		m.pgPool.Set(float64(s.OpenConnections), "open")
		m.pgPool.Set(float64(s.InUse), "in_use")
		m.pgPool.Set(float64(s.Idle), "idle")
		m.pgPool.Set(float64(s.WaitCount), "wait_count")
		m.pgPool.Set(s.WaitDuration.Seconds(), "wait_seconds")
	})
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go m.every(ctx, func() {
		began := time.Now()
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			if log != nil {
				log.Warn("redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(began).Seconds())
	})
}

func (m *Metrics) every(ctx context.Context, fn func()) {
	t := time.NewTicker(m.scrapeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
