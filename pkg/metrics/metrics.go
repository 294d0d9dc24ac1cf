package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/logger"
)

const namespace = "sebackup"

// Metrics holds the collectors updated by the API client and the backup run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ThrottleWaits   *prometheus.CounterVec
	ThrottleSeconds *prometheus.CounterVec
	QuotaRemaining  prometheus.Gauge
	Files           *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when it is not nil
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by endpoint and HTTP status code",
		}, []string{"endpoint", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		ThrottleWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "throttle_waits_total",
			Help:      "Blocking waits by kind (rate_limit, backoff, quota)",
		}, []string{"kind"}),
		ThrottleSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "throttle_seconds_total",
			Help:      "Seconds spent blocked by kind",
		}, []string{"kind"}),
		QuotaRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "quota_remaining",
			Help:      "Daily quota remaining as last reported by the server",
		}),
		Files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "files_total",
			Help:      "Backup files by kind (questions, answers) and result (written, skipped)",
		}, []string{"kind", "result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Requests,
			m.RequestDuration,
			m.ThrottleWaits,
			m.ThrottleSeconds,
			m.QuotaRemaining,
			m.Files,
		)
	}
	return m
}

// ObserveRequest records one completed API call
func (m *Metrics) ObserveRequest(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveThrottle records one blocking wait
func (m *Metrics) ObserveThrottle(kind string, wait time.Duration) {
	if m == nil {
		return
	}
	m.ThrottleWaits.WithLabelValues(kind).Inc()
	m.ThrottleSeconds.WithLabelValues(kind).Add(wait.Seconds())
}

// SetQuotaRemaining records the latest quota_remaining value
func (m *Metrics) SetQuotaRemaining(v int) {
	if m == nil {
		return
	}
	m.QuotaRemaining.Set(float64(v))
}

// ObserveFile records a backup file outcome
func (m *Metrics) ObserveFile(kind, result string) {
	if m == nil {
		return
	}
	m.Files.WithLabelValues(kind, result).Inc()
}

// Serve exposes g on addr at /metrics until ctx is cancelled
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.InfoWithFields("serving metrics", map[string]interface{}{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
