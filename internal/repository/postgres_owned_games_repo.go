package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
)

// PostgresOwnedGamesRepo はPostgreSQLを使用した所持ゲームキャッシュリポジトリ。
type PostgresOwnedGamesRepo struct {
	db *sql.DB
}

// NewPostgresOwnedGamesRepo はPostgresOwnedGamesRepoを生成する。
func NewPostgresOwnedGamesRepo(db *sql.DB) *PostgresOwnedGamesRepo {
	return &PostgresOwnedGamesRepo{db: db}
}

// Upsert はmember_idをキーにキャッシュを全置き換えし、保存後の行を返す。
// 追記ログではなくポイントインタイムのスナップショットとして扱う。
func (r *PostgresOwnedGamesRepo) Upsert(ctx context.Context, cache *model.OwnedGamesCache) (*model.OwnedGamesCache, error) {
	gamesJSON, err := json.Marshal(cache.Games)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal games: %w", err)
	}

	saved := &model.OwnedGamesCache{Games: cache.Games}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO steam_owned_games (member_id, steamid64, game_count, games, fetched_at, updated_at)
		 VALUES ($1, $2, $3, $4::jsonb, now(), now())
		 ON CONFLICT (member_id)
		 DO UPDATE SET
		   steamid64 = EXCLUDED.steamid64,
		   game_count = EXCLUDED.game_count,
		   games = EXCLUDED.games,
		   fetched_at = now(),
		   updated_at = now()
		 RETURNING member_id, steamid64, game_count, fetched_at`,
		cache.MemberID, cache.SteamID64, cache.GameCount, gamesJSON,
	).Scan(&saved.MemberID, &saved.SteamID64, &saved.GameCount, &saved.FetchedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert owned games: %w", err)
	}

	return saved, nil
}

// compile-time interface check
var _ OwnedGamesRepository = (*PostgresOwnedGamesRepo)(nil)
