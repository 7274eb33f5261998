package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var stageBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5}

// Prometheus implements every hook interface on a private registry.
type Prometheus struct {
	Registry *prometheus.Registry

	StageDuration *prometheus.HistogramVec
	StageRows     *prometheus.GaugeVec
	StageErrors   *prometheus.CounterVec
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	CacheBytes    *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  prometheus.Histogram
	HTTPErrors    prometheus.Counter
}

// NewPrometheus creates the widetable metrics on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Prometheus{
		Registry: reg,
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "widetable_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: stageBuckets,
		}, []string{"stage"}),
		StageRows: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "widetable_stage_rows",
			Help: "Rows produced by the last run of each stage",
		}, []string{"stage"}),
		StageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "widetable_stage_errors_total",
			Help: "Total number of failed pipeline stages",
		}, []string{"stage"}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "widetable_cache_hits_total",
			Help: "Total number of cache hits",
		}, []string{"type"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "widetable_cache_misses_total",
			Help: "Total number of cache misses",
		}, []string{"type"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "widetable_cache_written_bytes_total",
			Help: "Total bytes written to the cache",
		}, []string{"type"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "widetable_http_requests_total",
			Help: "Source downloads by host and status code",
		}, []string{"host", "code"}),
		HTTPDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "widetable_http_request_duration_seconds",
			Help:    "Duration of source downloads",
			Buckets: prometheus.DefBuckets,
		}),
		HTTPErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "widetable_http_errors_total",
			Help: "Total number of failed source downloads",
		}),
	}
}

func (p *Prometheus) OnStageStart(context.Context, string) {}

func (p *Prometheus) OnStageComplete(_ context.Context, stage string, rows int, d time.Duration, err error) {
	p.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		p.StageErrors.WithLabelValues(stage).Inc()
		return
	}
	p.StageRows.WithLabelValues(stage).Set(float64(rows))
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.CacheHits.WithLabelValues(keyType).Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheMisses.WithLabelValues(keyType).Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	p.HTTPRequests.WithLabelValues(host, strconv.Itoa(code)).Inc()
	p.HTTPDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnError(context.Context, string, string, string, error) {
	p.HTTPErrors.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry to path for the node_exporter textfile
// collector. CLI runs use this instead of a scrape endpoint.
func (p *Prometheus) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("metrics file path is empty")
	}
	return prometheus.WriteToTextfile(path, p.Registry)
}
