// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証・タスク操作の結果ラベル。
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// AuthRecorder は認証試行の記録インターフェース。
type AuthRecorder interface {
	RecordAuthAttempt(strategy, outcome string)
}

// TaskRecorder はタスク操作の記録インターフェース。
type TaskRecorder interface {
	RecordTaskOperation(operation, outcome string)
}

// HTTPRecorder はHTTPリクエストの記録インターフェース。
type HTTPRecorder interface {
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
}

// SessionRecorder はセッション掃除の記録インターフェース。
type SessionRecorder interface {
	RecordSessionsPurged(count int64)
}

// MetricsCollector はserveプロセスのサービス層・ミドルウェアから利用するメトリクス収集のインターフェース。
type MetricsCollector interface {
	AuthRecorder
	TaskRecorder
	HTTPRecorder
}

// Collector はserveプロセスのPrometheusメトリクスを収集する実装。
type Collector struct {
	authAttempts   *prometheus.CounterVec
	taskOperations *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	httpLatency    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todolist_auth_attempts_total",
			Help: "認証方式・結果別の認証試行数",
		}, []string{"strategy", "outcome"}),
		taskOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todolist_task_operations_total",
			Help: "操作・結果別のタスク操作数",
		}, []string{"operation", "outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todolist_http_requests_total",
			Help: "メソッド・ステータスコード別のHTTPレスポンス数",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "todolist_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.authAttempts,
		c.taskOperations,
		c.httpStatus,
		c.httpLatency,
	)

	return c
}

// RecordAuthAttempt は認証試行を記録する。
func (c *Collector) RecordAuthAttempt(strategy, outcome string) {
	c.authAttempts.WithLabelValues(strategy, outcome).Inc()
}

// RecordTaskOperation はタスク操作を記録する。
func (c *Collector) RecordTaskOperation(operation, outcome string) {
	c.taskOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordHTTPRequest はHTTPレスポンスのステータスと処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpStatus.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// SessionCollector はworkerプロセスが期限切れセッションの削除数を記録する実装。
type SessionCollector struct {
	sessionsPurged prometheus.Counter
}

// NewSessionCollector はSessionCollectorを生成し、指定されたレジストリに登録する。
func NewSessionCollector(reg prometheus.Registerer) *SessionCollector {
	c := &SessionCollector{
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todolist_sessions_purged_total",
			Help: "削除された期限切れセッションの合計数",
		}),
	}
	reg.MustRegister(c.sessionsPurged)
	return c
}

// RecordSessionsPurged は削除したセッション数を記録する。
func (c *SessionCollector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// Nop は何も記録しないMetricsCollector。テストや計測無効時に使う。
type Nop struct{}

func (Nop) RecordAuthAttempt(string, string)             {}
func (Nop) RecordTaskOperation(string, string)           {}
func (Nop) RecordHTTPRequest(string, int, time.Duration) {}
func (Nop) RecordSessionsPurged(int64)                   {}

// compile-time interface checks
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
	_ SessionRecorder  = (*SessionCollector)(nil)
	_ SessionRecorder  = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
