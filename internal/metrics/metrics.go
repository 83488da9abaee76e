// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// ルームライフサイクルサービスとSteam同期サービスのMetricsRecorderを満たす。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	roomsCreated     prometheus.Counter
	roomsJoined      prometheus.Counter
	roomsDeleted     prometheus.Counter
	steamLibrarySync *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gameswipe_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gameswipe_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gameswipe_rooms_created_total",
			Help: "作成されたルームの合計数",
		}),
		roomsJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gameswipe_rooms_joined_total",
			Help: "ルーム参加の合計数",
		}),
		roomsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gameswipe_rooms_deleted_total",
			Help: "削除されたルームの合計数",
		}),
		steamLibrarySync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gameswipe_steam_library_sync_total",
			Help: "Steamライブラリ同期の結果別合計数",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.roomsCreated,
		c.roomsJoined,
		c.roomsDeleted,
		c.steamLibrarySync,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordRoomCreated はルーム作成を記録する。
func (c *Collector) RecordRoomCreated() {
	c.roomsCreated.Inc()
}

// RecordRoomJoined はルーム参加を記録する。
func (c *Collector) RecordRoomJoined() {
	c.roomsJoined.Inc()
}

// RecordRoomDeleted はルーム削除を記録する。
func (c *Collector) RecordRoomDeleted() {
	c.roomsDeleted.Inc()
}

// RecordLibrarySync はSteamライブラリ同期の結果を記録する。
// outcomeは ok / not_visible / upstream_error のいずれか。
func (c *Collector) RecordLibrarySync(outcome string) {
	c.steamLibrarySync.WithLabelValues(outcome).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
