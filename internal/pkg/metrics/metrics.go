package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 決済試行の総数（status: succeeded, insufficient_funds, seat_conflict, validation_error, error）
	PaymentsTotal *prometheus.CounterVec

	// 決済のアトミックコミットにかかった時間
	PaymentCommitDuration prometheus.Histogram

	// 予約試行の総数（status: succeeded, seat_conflict, error）
	BookingsTotal *prometheus.CounterVec

	// ウォレット操作の総数（operation: debit/credit, status: success/failed）
	WalletOperationsTotal *prometheus.CounterVec

	// ランク変更通知の総数（tier）
	TierChangesTotal *prometheus.CounterVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		PaymentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_total",
				Help: "Total number of payment attempts",
			},
			[]string{"status"},
		),
		PaymentCommitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "payment_commit_duration_seconds",
				Help:    "Time spent inside the atomic payment commit",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of booking attempts",
			},
			[]string{"status"},
		),
		WalletOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_operations_total",
				Help: "Total number of wallet operations",
			},
			[]string{"operation", "status"},
		),
		TierChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tier_changes_total",
				Help: "Total number of loyalty tier changes",
			},
			[]string{"tier"},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PaymentsTotal,
		m.PaymentCommitDuration,
		m.BookingsTotal,
		m.WalletOperationsTotal,
		m.TierChangesTotal,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
