package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/metrics"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionVerifier   middleware.SessionVerifier
	JoinRateLimiter   *middleware.JoinRateLimiter
	CORSAllowedOrigin string
	Logger            *slog.Logger

	// メトリクス。MetricsRecorderがnilの場合、計測ミドルウェアは挿入しない
	MetricsRecorder middleware.HTTPMetricsRecorder
	MetricsGatherer prometheus.Gatherer

	// サービス
	RoomService  RoomServiceInterface
	SteamService SteamServiceInterface

	// セッションCookie設定
	SessionCookie SessionCookieConfig
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//
// ルーム作成・参加・ヘルスチェックは認証不要。参加にはIP単位のレート制限がかかる。
// それ以外のルートはセッションミドルウェアを通過する必要がある。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}

	roomHandler := NewRoomHandler(deps.RoomService, deps.SessionCookie)
	steamHandler := NewSteamHandler(deps.SteamService)

	// --- 認証不要のルート ---

	r.Get("/health", Health)
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Post("/rooms", roomHandler.Create)
	r.With(deps.JoinRateLimiter.Middleware()).Post("/rooms/join", roomHandler.Join)

	// --- 認証が必要なルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionCookie.Name, deps.SessionVerifier))

		r.Route("/rooms/{roomID}", func(r chi.Router) {
			r.Get("/", roomHandler.Get)
			r.Delete("/", roomHandler.Delete)
		})

		r.Route("/steam", func(r chi.Router) {
			r.Put("/identity", steamHandler.PutIdentity)
			r.Get("/identity", steamHandler.GetIdentity)
			r.Post("/library/sync", steamHandler.SyncLibrary)
		})
	})

	return r
}
