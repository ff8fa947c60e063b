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
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordTokenIssued()
	RecordAuthRejection(reason string)
	RecordOwnershipDenied()
	RecordHTTPStatus(statusCode int)
	RecordStoreLatency(operation string, duration time.Duration)
	RecordStoreUnavailable()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	tokenIssued      prometheus.Counter
	authRejection    *prometheus.CounterVec
	ownershipDenied  prometheus.Counter
	httpStatus       *prometheus.CounterVec
	storeLatency     *prometheus.HistogramVec
	storeUnavailable prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		tokenIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worksquare_token_issued_total",
			Help: "発行されたセッショントークンの合計数",
		}),
		authRejection: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worksquare_auth_rejection_total",
			Help: "認証拒否の合計数（理由別: missing / invalid / expired）",
		}, []string{"reason"}),
		ownershipDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worksquare_ownership_denied_total",
			Help: "所有権チェックで拒否されたリクエストの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worksquare_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worksquare_store_latency_seconds",
			Help:    "ドキュメントストア操作のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		storeUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worksquare_store_unavailable_total",
			Help: "ストア到達不能と判定された操作の合計数",
		}),
	}

	reg.MustRegister(
		c.tokenIssued,
		c.authRejection,
		c.ownershipDenied,
		c.httpStatus,
		c.storeLatency,
		c.storeUnavailable,
	)

	return c
}

// RecordTokenIssued はトークン発行を記録する。
func (c *Collector) RecordTokenIssued() {
	c.tokenIssued.Inc()
}

// RecordAuthRejection は認証拒否を理由付きで記録する。
func (c *Collector) RecordAuthRejection(reason string) {
	c.authRejection.WithLabelValues(reason).Inc()
}

// RecordOwnershipDenied は所有権チェックによる拒否を記録する。
func (c *Collector) RecordOwnershipDenied() {
	c.ownershipDenied.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordStoreLatency はストア操作のレイテンシを記録する。
func (c *Collector) RecordStoreLatency(operation string, duration time.Duration) {
	c.storeLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordStoreUnavailable はストア到達不能を記録する。
func (c *Collector) RecordStoreUnavailable() {
	c.storeUnavailable.Inc()
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
