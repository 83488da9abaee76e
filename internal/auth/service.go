package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/repository"
)

// ServiceConfig はセッションサービスの設定。
type ServiceConfig struct {
	SessionTTL time.Duration // セッション有効期間
}

// Service はセッションの発行と検証を提供する。
// セッション行の挿入自体はルーム作成・参加トランザクションに含まれるため、
// Issueは挿入可能なセッションレコードと生トークンの組を構築するだけで副作用を持たない。
type Service struct {
	sessionRepo repository.SessionRepository
	hasher      *TokenHasher
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(sessionRepo repository.SessionRepository, hasher *TokenHasher, config ServiceConfig) *Service {
	return &Service{
		sessionRepo: sessionRepo,
		hasher:      hasher,
		config:      config,
	}
}

// IssuedSession は発行済みセッションと、一度だけ返される生トークンの組。
type IssuedSession struct {
	Session *model.Session
	Token   string
}

// Issue は指定メンバー向けのセッションレコードを構築する。
// 生トークンはこの戻り値でのみ得られ、以後はハッシュ照合でしか検証できない。
func (s *Service) Issue(memberID string, now time.Time) (*IssuedSession, error) {
	token, err := NewSessionToken()
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		ID:        uuid.New().String(),
		MemberID:  memberID,
		TokenHash: s.hasher.Hash(token),
		ExpiresAt: now.Add(s.config.SessionTTL),
		CreatedAt: now,
	}

	return &IssuedSession{Session: session, Token: token}, nil
}

// Verify は提示された生トークンを検証し、所有メンバーのIDを返す。
// トークンの不正・未知・期限切れ・失効はすべて同一のUNAUTHORISEDとして扱い、
// どのケースかを呼び出し元にも漏らさない。
func (s *Service) Verify(ctx context.Context, rawToken string) (string, error) {
	if rawToken == "" {
		return "", model.NewUnauthorisedError()
	}

	session, err := s.sessionRepo.FindValidByTokenHash(ctx, s.hasher.Hash(rawToken))
	if err != nil {
		return "", fmt.Errorf("failed to verify session: %w", err)
	}
	if session == nil {
		return "", model.NewUnauthorisedError()
	}

	return session.MemberID, nil
}
