// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordLogin(provider string)
	RecordBlogPublished(count int)
	RecordSweepFailure(blogID string)
	RecordSweepSkipped()
	RecordSweepDuration(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins         *prometheus.CounterVec
	blogsPublished prometheus.Counter
	sweepFail      prometheus.Counter
	sweepSkipped   prometheus.Counter
	sweepDuration  prometheus.Histogram
	httpStatus     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_login_total",
			Help: "プロバイダー別のログイン成功の合計数",
		}, []string{"provider"}),
		blogsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_blogs_published_total",
			Help: "予約公開スイープで公開されたブログの合計数",
		}),
		sweepFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_sweep_fail_total",
			Help: "予約公開スイープ中の個別ブログ公開失敗の合計数",
		}),
		sweepSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogman_sweep_skipped_total",
			Help: "前回実行中のためスキップされたスイープの合計数",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blogman_sweep_duration_seconds",
			Help:    "予約公開スイープの実行時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.logins,
		c.blogsPublished,
		c.sweepFail,
		c.sweepSkipped,
		c.sweepDuration,
		c.httpStatus,
	)

	return c
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin(provider string) {
	c.logins.WithLabelValues(provider).Inc()
}

// RecordBlogPublished はスイープで公開されたブログ数を記録する。
func (c *Collector) RecordBlogPublished(count int) {
	c.blogsPublished.Add(float64(count))
}

// RecordSweepFailure は個別ブログの公開失敗を記録する。
func (c *Collector) RecordSweepFailure(blogID string) {
	c.sweepFail.Inc()
}

// RecordSweepSkipped はスイープのスキップを記録する。
func (c *Collector) RecordSweepSkipped() {
	c.sweepSkipped.Inc()
}

// RecordSweepDuration はスイープの実行時間を記録する。
func (c *Collector) RecordSweepDuration(duration time.Duration) {
	c.sweepDuration.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
