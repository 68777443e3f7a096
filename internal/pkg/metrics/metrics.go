package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 予約操作の結果ラベル
const (
	StatusBooked       = "booked"
	StatusEdited       = "edited"
	StatusPaid         = "paid"
	StatusCancelled    = "cancelled"
	StatusInsufficient = "insufficient"
	StatusInvalid      = "invalid"
	StatusLockFailed   = "lock_failed"
	StatusError        = "error"
)

// 座席数調整の理由ラベル
const (
	ReasonBook    = "book"
	ReasonEdit    = "edit"
	ReasonCancel  = "cancel"
	ReasonExpired = "expired"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約操作の総数（status）
	ReservationsTotal *prometheus.CounterVec

	// 座席数の調整量（reason）。返却・確保とも絶対値で加算する
	SeatAdjustmentsTotal *prometheus.CounterVec

	// 期限切れで削除された予約の総数
	ExpiredReservationsTotal prometheus.Counter

	// 列車ロックの操作時間（operation: acquire/release, status: success/failed）
	TripLockDuration *prometheus.HistogramVec
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
		ReservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservations_total",
				Help: "Total number of reservation operations by outcome",
			},
			[]string{"status"},
		),
		SeatAdjustmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_adjustments_total",
				Help: "Seats taken from or returned to trip inventory",
			},
			[]string{"reason"},
		),
		ExpiredReservationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "expired_reservations_total",
				Help: "Unpaid reservations removed by the expiry sweep",
			},
		),
		TripLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trip_lock_duration_seconds",
				Help:    "Time spent on per-trip lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationsTotal,
		m.SeatAdjustmentsTotal,
		m.ExpiredReservationsTotal,
		m.TripLockDuration,
	)

	return m
}

// RecordReservation は予約操作の結果を記録する。nil レシーバでは何もしない
func (m *Metrics) RecordReservation(status string) {
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(status).Inc()
}

// RecordSeatAdjustment は座席数の調整を記録する
func (m *Metrics) RecordSeatAdjustment(reason string, delta int) {
	if m == nil || delta == 0 {
		return
	}
	if delta < 0 {
		delta = -delta
	}
	m.SeatAdjustmentsTotal.WithLabelValues(reason).Add(float64(delta))
}

// RecordExpired は期限切れ削除の件数を記録する
func (m *Metrics) RecordExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ExpiredReservationsTotal.Add(float64(n))
}

// ObserveLock はロック操作の所要時間を記録する
func (m *Metrics) ObserveLock(operation string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failed"
	}
	m.TripLockDuration.WithLabelValues(operation, status).Observe(seconds)
}

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
