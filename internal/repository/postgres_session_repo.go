package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// FindValidByTokenHash はトークンハッシュに一致する有効なセッションを取得する。
// 失効済み・期限切れの行はDB側の条件で除外する。該当がない場合はnilを返す。
func (r *PostgresSessionRepo) FindValidByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, member_id, token_hash, expires_at, created_at
		 FROM member_sessions
		 WHERE token_hash = $1
		   AND revoked_at IS NULL
		   AND expires_at > now()`,
		tokenHash,
	).Scan(&session.ID, &session.MemberID, &session.TokenHash, &session.ExpiresAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return session, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
