package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
)

// PostgresSteamIdentityRepo はPostgreSQLを使用したSteam ID紐付けリポジトリ。
type PostgresSteamIdentityRepo struct {
	db *sql.DB
}

// NewPostgresSteamIdentityRepo はPostgresSteamIdentityRepoを生成する。
func NewPostgresSteamIdentityRepo(db *sql.DB) *PostgresSteamIdentityRepo {
	return &PostgresSteamIdentityRepo{db: db}
}

// Upsert はmember_idをキーに紐付けを挿入または置き換える。
// 再紐付けは常に置き換えであり、verified/providerも渡された値でリセットされる。
func (r *PostgresSteamIdentityRepo) Upsert(ctx context.Context, identity *model.SteamIdentity) (*model.SteamIdentity, error) {
	saved := &model.SteamIdentity{}
	var provider string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO steam_identities (member_id, steamid64, verified, provider, linked_at, last_verified_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now(), now())
		 ON CONFLICT (member_id)
		 DO UPDATE SET
		   steamid64 = EXCLUDED.steamid64,
		   verified = EXCLUDED.verified,
		   provider = EXCLUDED.provider,
		   last_verified_at = now(),
		   updated_at = now()
		 RETURNING member_id, steamid64, verified, provider, linked_at, last_verified_at`,
		identity.MemberID, identity.SteamID64, identity.Verified, string(identity.Provider),
	).Scan(&saved.MemberID, &saved.SteamID64, &saved.Verified, &provider, &saved.LinkedAt, &saved.LastVerifiedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert steam identity: %w", err)
	}

	saved.Provider = model.SteamProvider(provider)
	return saved, nil
}

// FindByMemberID は指定メンバーの紐付けを取得する。見つからない場合はnilを返す。
func (r *PostgresSteamIdentityRepo) FindByMemberID(ctx context.Context, memberID string) (*model.SteamIdentity, error) {
	identity := &model.SteamIdentity{}
	var provider string
	err := r.db.QueryRowContext(ctx,
		`SELECT member_id, steamid64, verified, provider, linked_at, last_verified_at
		 FROM steam_identities
		 WHERE member_id = $1`,
		memberID,
	).Scan(&identity.MemberID, &identity.SteamID64, &identity.Verified, &provider, &identity.LinkedAt, &identity.LastVerifiedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find steam identity: %w", err)
	}

	identity.Provider = model.SteamProvider(provider)
	return identity, nil
}

// compile-time interface check
var _ SteamIdentityRepository = (*PostgresSteamIdentityRepo)(nil)
