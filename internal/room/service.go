package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/auth"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/repository"
)

// maxCodeAttempts はコード衝突時の再生成リトライ上限。
// 一意性制約違反をリトライ可能イベントに変えつつ、最悪レイテンシを抑える。
const maxCodeAttempts = 8

// SessionIssuer はセッションレコードの構築インターフェース。
// auth.Serviceの部分集合として定義する。
type SessionIssuer interface {
	Issue(memberID string, now time.Time) (*auth.IssuedSession, error)
}

// NameSanitizer は表示名のサニタイズインターフェース。
type NameSanitizer interface {
	Sanitize(displayName string) string
}

// MetricsRecorder はルーム操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordRoomCreated()
	RecordRoomJoined()
	RecordRoomDeleted()
}

// ServiceConfig はルームライフサイクルサービスの設定。
type ServiceConfig struct {
	CodeLength      int // ルームコードの長さ
	DefaultTTLHours int // expiresInHours未指定時の有効期間
	MaxTTLHours     int // 指定可能な有効期間の上限。0は無制限
}

// Service はルームのライフサイクル操作を提供する。
// 複数行の不変条件（ルーム+creator+セッション、削除+失効）はリポジトリの
// トランザクションメソッドが守る。サービス層はその上の制御フローのみを持つ。
type Service struct {
	roomRepo   repository.RoomRepository
	memberRepo repository.MemberRepository
	issuer     SessionIssuer
	sanitizer  NameSanitizer
	metrics    MetricsRecorder
	config     ServiceConfig
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	roomRepo repository.RoomRepository,
	memberRepo repository.MemberRepository,
	issuer SessionIssuer,
	sanitizer NameSanitizer,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		roomRepo:   roomRepo,
		memberRepo: memberRepo,
		issuer:     issuer,
		sanitizer:  sanitizer,
		metrics:    metrics,
		config:     config,
	}
}

// CreateResult はルーム作成の結果。Tokenは一度だけ返される生トークン。
type CreateResult struct {
	Room   *model.Room
	Member *model.Member
	Token  string
}

// Create はルームを作成し、creatorメンバーとセッションを同時に発行する。
// コード衝突時は再生成してリトライし、上限超過でINTERNAL_ERRORを返す。
// expiresInHoursが0の場合はデフォルトの有効期間、上限超過はINVALID_REQUESTを返す。
func (s *Service) Create(ctx context.Context, expiresInHours int) (*CreateResult, error) {
	now := time.Now()

	hours := expiresInHours
	if hours == 0 {
		hours = s.config.DefaultTTLHours
	}
	if s.config.MaxTTLHours > 0 && hours > s.config.MaxTTLHours {
		return nil, model.NewInvalidRequestError(nil)
	}
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := NewCode(s.config.CodeLength)
		if err != nil {
			return nil, err
		}

		room := &model.Room{
			ID:        uuid.New().String(),
			Code:      code,
			CreatedAt: now,
			ExpiresAt: expiresAt,
		}
		creator := &model.Member{
			ID:         uuid.New().String(),
			RoomID:     room.ID,
			Role:       model.RoleCreator,
			JoinedAt:   now,
			LastSeenAt: now,
		}

		issued, err := s.issuer.Issue(creator.ID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to issue session: %w", err)
		}

		err = s.roomRepo.CreateWithCreator(ctx, room, creator, issued.Session)
		if errors.Is(err, repository.ErrDuplicateRoomCode) {
			slog.Warn("room code collision, retrying",
				slog.String("code", code),
				slog.Int("attempt", attempt+1),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		slog.Info("room created",
			slog.String("room_id", room.ID),
			slog.String("code", room.Code),
			slog.Time("expires_at", room.ExpiresAt),
		)
		if s.metrics != nil {
			s.metrics.RecordRoomCreated()
		}

		return &CreateResult{Room: room, Member: creator, Token: issued.Token}, nil
	}

	return nil, model.NewInternalError("Failed to allocate unique room code")
}

// JoinResult はルーム参加の結果。
// 参加は同一オリジンのブラウザコンテキストとは限らないため、
// Cookieに加えてTokenをレスポンスボディでも返す。
type JoinResult struct {
	Room   *model.Room
	Member *model.Member
	Token  string
}

// Join はコードでルームに参加する。コードは大文字に正規化して照合する。
// 未知のコードはROOM_NOT_FOUND、削除済み・期限切れはROOM_GONEを返す。
func (s *Service) Join(ctx context.Context, code, displayName string) (*JoinResult, error) {
	now := time.Now()

	normalized := strings.ToUpper(strings.TrimSpace(code))
	room, err := s.roomRepo.FindByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to find room by code: %w", err)
	}
	if room == nil {
		return nil, model.NewRoomNotFoundError()
	}
	if !room.IsLive(now) {
		return nil, model.NewRoomGoneError()
	}

	// マークアップのみの表示名はサニタイズで空になる。
	// 黙って匿名参加にせず、不正値として拒否する。
	name := s.sanitizer.Sanitize(displayName)
	if name == "" && strings.TrimSpace(displayName) != "" {
		return nil, model.NewInvalidRequestError(nil)
	}

	member := &model.Member{
		ID:          uuid.New().String(),
		RoomID:      room.ID,
		Role:        model.RoleMember,
		DisplayName: name,
		JoinedAt:    now,
		LastSeenAt:  now,
	}

	issued, err := s.issuer.Issue(member.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	if err := s.memberRepo.CreateWithSession(ctx, member, issued.Session); err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	slog.Info("member joined room",
		slog.String("room_id", room.ID),
		slog.String("member_id", member.ID),
	)
	if s.metrics != nil {
		s.metrics.RecordRoomJoined()
	}

	return &JoinResult{Room: room, Member: member, Token: issued.Token}, nil
}

// FetchResult はルーム取得の結果。Membersは参加時刻順。
type FetchResult struct {
	Room    *model.Room
	Me      *model.Member
	Members []*model.Member
}

// Fetch は認証済みメンバーとしてルームと全メンバー一覧を取得する。
// 別ルームのメンバーによるアクセスはFORBIDDEN、死んだルームはROOM_GONE。
func (s *Service) Fetch(ctx context.Context, memberID, roomID string) (*FetchResult, error) {
	now := time.Now()

	me, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	if me == nil {
		return nil, model.NewUnauthorisedError()
	}

	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	if room == nil {
		return nil, model.NewRoomNotFoundError()
	}
	if me.RoomID != room.ID {
		return nil, model.NewForbiddenError("Not a member of this room")
	}
	if !room.IsLive(now) {
		return nil, model.NewRoomGoneError()
	}

	members, err := s.memberRepo.ListByRoomID(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	// last_seenの更新は取得結果に影響しないベストエフォート
	if err := s.memberRepo.TouchLastSeen(ctx, me.ID, now); err != nil {
		slog.Warn("failed to touch last_seen_at",
			slog.String("member_id", me.ID),
			slog.String("error", err.Error()),
		)
	}

	return &FetchResult{Room: room, Me: me, Members: members}, nil
}

// Delete はルームをソフト削除し、所属全メンバーのセッションを失効させる。
// creator以外の呼び出しはFORBIDDEN。削除後のルーム取得はROOM_GONEとなり、
// 発行済みセッションは以後すべてUNAUTHORISEDとなる。
func (s *Service) Delete(ctx context.Context, memberID, roomID string) error {
	now := time.Now()

	me, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("failed to find member: %w", err)
	}
	if me == nil {
		return model.NewUnauthorisedError()
	}

	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to find room: %w", err)
	}
	if room == nil {
		return model.NewRoomNotFoundError()
	}
	if me.RoomID != room.ID || me.Role != model.RoleCreator {
		return model.NewForbiddenError("Only the room creator can delete the room")
	}
	if !room.IsLive(now) {
		return model.NewRoomGoneError()
	}

	if err := s.roomRepo.SoftDeleteWithSessions(ctx, room.ID, now); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	slog.Info("room deleted",
		slog.String("room_id", room.ID),
		slog.String("member_id", me.ID),
	)
	if s.metrics != nil {
		s.metrics.RecordRoomDeleted()
	}

	return nil
}
