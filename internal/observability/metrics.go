package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/storyfeed-backend/internal/platform/envutil"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqError *Counter

	feedRequests    *CounterVec
	feedItems       *CounterVec
	feedStage       *HistogramVec
	feedPageStories *HistogramVec

	keywordCache   *CounterVec
	viewsRecorded  *CounterVec
	authRejected   *CounterVec
	rateLimited    *Counter
	storeStats     *GaugeVec
	redisUp        *Gauge
	redisPingDelay *Gauge

	writers []interface{ WritePrometheus(io.Writer) error }
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init returns the process-wide metrics registry, or nil when METRICS_ENABLED
// is off. Every method is safe on a nil *Metrics.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// New builds an independent registry.
func New() *Metrics {
	m := &Metrics{
		apiRequests: NewCounterVec("sf_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"sf_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("sf_api_inflight_requests", "In-flight API requests."),
		apiReqError: NewCounter("sf_api_requests_error_total", "API requests answered with a 5xx status."),
		feedRequests: NewCounterVec(
			"sf_feed_requests_total",
			"Feed page requests by outcome.",
			[]string{"outcome"},
		),
		feedItems: NewCounterVec(
			"sf_feed_items_total",
			"Feed items emitted by item type.",
			[]string{"type"},
		),
		feedStage: NewHistogramVec(
			"sf_feed_stage_duration_seconds",
			"Feed build stage latency in seconds.",
			[]string{"stage"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		),
		feedPageStories: NewHistogramVec(
			"sf_feed_page_stories",
			"Stories left on a page after the language filter.",
			[]string{"language"},
			[]float64{0, 1, 2, 5, 10, 20, 50},
		),
		keywordCache: NewCounterVec("sf_keyword_cache_total", "Keyword cache lookups by result.", []string{"result"}),
		viewsRecorded: NewCounterVec(
			"sf_view_records_total",
			"View records appended by content type.",
			[]string{"content_type"},
		),
		authRejected:   NewCounterVec("sf_auth_rejected_total", "Requests rejected by the auth middleware by reason.", []string{"reason"}),
		rateLimited:    NewCounter("sf_rate_limited_total", "Requests rejected by the rate limiter."),
		storeStats:     NewGaugeVec("sf_store_pool", "Content store connection pool stats.", []string{"stat"}),
		redisUp:        NewGauge("sf_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPingDelay: NewGauge("sf_redis_ping_seconds", "Redis ping round trip in seconds."),
	}
	m.writers = []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqError,
		m.feedRequests, m.feedItems, m.feedStage, m.feedPageStories,
		m.keywordCache, m.viewsRecorded, m.authRejected, m.rateLimited,
		m.storeStats, m.redisUp, m.redisPingDelay,
	}
	return m
}

func scrapeInterval() time.Duration {
	d := envutil.Duration("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
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
	for _, wr := range m.writers {
		if err := wr.WritePrometheus(w); err != nil {
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
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	if strings.HasPrefix(status, "5") {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// IncFeedRequest counts one feed request; outcome is ok, bad_request or error.
func (m *Metrics) IncFeedRequest(outcome string) {
	if m == nil {
		return
	}
	m.feedRequests.Inc(outcome)
}

func (m *Metrics) AddFeedItems(itemType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.feedItems.Add(float64(n), itemType)
}

func (m *Metrics) ObserveFeedStage(stage string, dur time.Duration) {
	if m == nil {
		return
	}
	m.feedStage.Observe(dur.Seconds(), stage)
}

func (m *Metrics) ObservePageStories(language string, n int) {
	if m == nil {
		return
	}
	m.feedPageStories.Observe(float64(n), language)
}

func (m *Metrics) IncKeywordCache(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.keywordCache.Add(float64(n), result)
}

func (m *Metrics) IncViewRecorded(contentType string) {
	if m == nil {
		return
	}
	m.viewsRecorded.Inc(contentType)
}

func (m *Metrics) IncAuthRejected(reason string) {
	if m == nil {
		return
	}
	m.authRejected.Inc(reason)
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) StartStoreCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
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
						log.Warn("metrics: store stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.storeStats.Set(float64(stats.OpenConnections), "open_connections")
				m.storeStats.Set(float64(stats.InUse), "in_use")
				m.storeStats.Set(float64(stats.Idle), "idle")
				m.storeStats.Set(float64(stats.WaitCount), "wait_count")
				m.storeStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.storeStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings the shared client on every scrape interval.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *goredis.Client) {
	if m == nil || rdb == nil {
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
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPingDelay.Set(time.Since(start).Seconds())
			}
		}
	}()
}
