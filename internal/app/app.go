// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/auth"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/config"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/database"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/handler"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/logger"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/metrics"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/middleware"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/repository"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/room"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/security"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/steam"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "3000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	roomRepo := repository.NewPostgresRoomRepo(db)
	memberRepo := repository.NewPostgresMemberRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	identityRepo := repository.NewPostgresSteamIdentityRepo(db)
	gamesRepo := repository.NewPostgresOwnedGamesRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	hasher := auth.NewTokenHasher(cfg.SessionSecret)
	authService := auth.NewService(sessionRepo, hasher, auth.ServiceConfig{
		SessionTTL: time.Duration(cfg.SessionTTLDays) * 24 * time.Hour,
	})

	sanitizer := security.NewDisplayNameSanitizer()
	roomService := room.NewService(roomRepo, memberRepo, authService, sanitizer, collector, room.ServiceConfig{
		CodeLength:      cfg.RoomCodeLength,
		DefaultTTLHours: cfg.RoomDefaultTTLHours,
		MaxTTLHours:     cfg.RoomMaxTTLHours,
	})

	steamClient := steam.NewClient(
		&http.Client{Timeout: 10 * time.Second},
		slog.Default(),
		cfg.SteamAPIKey,
	)
	if cfg.SteamAPIKey == "" {
		slog.Warn("STEAM_WEB_API_KEY is not set, steam endpoints will fail")
	}
	steamService := steam.NewService(identityRepo, gamesRepo, steamClient, collector)

	// 5. ルーターの構築
	joinLimiter := middleware.NewJoinRateLimiter(
		middleware.DefaultJoinRateLimiterConfig(cfg.JoinRateLimitPerMin),
	)
	defer joinLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		SessionVerifier:   authService,
		JoinRateLimiter:   joinLimiter,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Logger:            slog.Default(),
		MetricsRecorder:   collector,
		MetricsGatherer:   registry,
		RoomService:       roomService,
		SteamService:      steamService,
		SessionCookie: handler.SessionCookieConfig{
			Name:    cfg.SessionCookieName,
			TTLDays: cfg.SessionTTLDays,
			Secure:  cfg.CookieSecure,
		},
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
