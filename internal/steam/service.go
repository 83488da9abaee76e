package steam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/repository"
)

// APIClient はSteam Web API呼び出しのインターフェース。
// Clientの部分集合として定義する。
type APIClient interface {
	AccountExists(ctx context.Context, steamID64 string) (bool, error)
	FetchOwnedGames(ctx context.Context, steamID64 string) ([]model.OwnedGame, error)
}

// MetricsRecorder はライブラリ同期のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordLibrarySync(outcome string)
}

// 同期結果メトリクスのoutcomeラベル値
const (
	syncOutcomeOK         = "ok"
	syncOutcomeNotVisible = "not_visible"
	syncOutcomeUpstream   = "upstream_error"
)

// Service はSteam ID紐付けと所持ゲームライブラリの同期を提供する。
type Service struct {
	identityRepo repository.SteamIdentityRepository
	gamesRepo    repository.OwnedGamesRepository
	client       APIClient
	metrics      MetricsRecorder
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	identityRepo repository.SteamIdentityRepository,
	gamesRepo repository.OwnedGamesRepository,
	client APIClient,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		identityRepo: identityRepo,
		gamesRepo:    gamesRepo,
		client:       client,
		metrics:      metrics,
	}
}

// Link はメンバーにsteamid64を紐付ける。既存の紐付けは常に置き換える。
// 紐付け前にSteam APIでアカウントの実在を確認し、存在しないIDは
// STEAM_ACCOUNT_NOT_FOUNDとして拒否する。手入力の紐付けは未検証（verified=false）。
func (s *Service) Link(ctx context.Context, memberID, steamID64 string) (*model.SteamIdentity, error) {
	exists, err := s.client.AccountExists(ctx, steamID64)
	if err != nil {
		return nil, s.upstreamError("account lookup", err)
	}
	if !exists {
		return nil, model.NewSteamAccountNotFoundError()
	}

	identity := &model.SteamIdentity{
		MemberID:  memberID,
		SteamID64: steamID64,
		Verified:  false,
		Provider:  model.ProviderManual,
		LinkedAt:  time.Now(),
	}

	saved, err := s.identityRepo.Upsert(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert steam identity: %w", err)
	}

	slog.Info("steam identity linked",
		slog.String("member_id", memberID),
		slog.String("steam_id64", steamID64),
	)

	return saved, nil
}

// GetIdentity はメンバーの現在のSteam紐付けを取得する。
// 未紐付けの場合はSTEAM_IDENTITY_NOT_FOUNDを返す。
func (s *Service) GetIdentity(ctx context.Context, memberID string) (*model.SteamIdentity, error) {
	identity, err := s.identityRepo.FindByMemberID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to find steam identity: %w", err)
	}
	if identity == nil {
		return nil, model.NewSteamIdentityNotFoundError()
	}
	return identity, nil
}

// SyncLibrary は紐付け済みSteamアカウントの所持ゲームを取得し、キャッシュを全置き換えする。
// 空のゲームリストは「0本所持」ではなく「読めない」と解釈し、
// STEAM_GAMES_NOT_VISIBLEを返して既存キャッシュには触れない。
func (s *Service) SyncLibrary(ctx context.Context, memberID string) (*model.OwnedGamesCache, error) {
	identity, err := s.identityRepo.FindByMemberID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to find steam identity: %w", err)
	}
	if identity == nil {
		return nil, model.NewSteamIdentityNotFoundError()
	}

	games, err := s.client.FetchOwnedGames(ctx, identity.SteamID64)
	if err != nil {
		s.recordSync(syncOutcomeUpstream)
		return nil, s.upstreamError("owned games fetch", err)
	}
	if len(games) == 0 {
		s.recordSync(syncOutcomeNotVisible)
		return nil, model.NewSteamGamesNotVisibleError()
	}

	cache := &model.OwnedGamesCache{
		MemberID:  memberID,
		SteamID64: identity.SteamID64,
		GameCount: len(games),
		Games:     games,
		FetchedAt: time.Now(),
	}

	saved, err := s.gamesRepo.Upsert(ctx, cache)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert owned games cache: %w", err)
	}

	slog.Info("owned games library synced",
		slog.String("member_id", memberID),
		slog.Int("game_count", saved.GameCount),
	)
	s.recordSync(syncOutcomeOK)

	return saved, nil
}

// upstreamError はSteam APIクライアントのエラーをAPIエラーに変換する。
// APIキー未設定は設定上の問題なので上流エラーではなく内部エラーとして扱う。
func (s *Service) upstreamError(operation string, err error) error {
	if errors.Is(err, ErrAPIKeyMissing) {
		slog.Error("steam api key is not configured",
			slog.String("operation", operation),
		)
		return model.NewInternalError("Steam integration is not configured")
	}

	status := 0
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		status = statusErr.StatusCode
	}

	slog.Error("steam api call failed",
		slog.String("operation", operation),
		slog.Int("http_status", status),
		slog.String("error", err.Error()),
	)
	return model.NewSteamUpstreamError(status)
}

func (s *Service) recordSync(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordLibrarySync(outcome)
	}
}
