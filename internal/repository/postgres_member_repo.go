package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
)

// PostgresMemberRepo はPostgreSQLを使用したメンバーリポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

// CreateWithSession はメンバーとセッションを同一トランザクションで作成する。
// どちらかの挿入が失敗した場合は両方ロールバックされる。
func (r *PostgresMemberRepo) CreateWithSession(ctx context.Context, member *model.Member, session *model.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertMember(ctx, tx, member); err != nil {
		return err
	}

	if err := insertSession(ctx, tx, session); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByID は指定IDのメンバーを取得する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByID(ctx context.Context, id string) (*model.Member, error) {
	member := &model.Member{}
	var displayName sql.NullString
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, room_id, role, display_name, joined_at, last_seen_at
		 FROM members WHERE id = $1`,
		id,
	).Scan(&member.ID, &member.RoomID, &role, &displayName, &member.JoinedAt, &member.LastSeenAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	member.Role = model.MemberRole(role)
	member.DisplayName = displayName.String
	return member, nil
}

// ListByRoomID は指定ルームの全メンバーを参加時刻順で取得する。
func (r *PostgresMemberRepo) ListByRoomID(ctx context.Context, roomID string) ([]*model.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_id, role, display_name, joined_at, last_seen_at
		 FROM members WHERE room_id = $1
		 ORDER BY joined_at, id`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*model.Member
	for rows.Next() {
		member := &model.Member{}
		var displayName sql.NullString
		var role string
		if err := rows.Scan(&member.ID, &member.RoomID, &role, &displayName, &member.JoinedAt, &member.LastSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		member.Role = model.MemberRole(role)
		member.DisplayName = displayName.String
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// TouchLastSeen はメンバーの最終アクセス時刻を更新する。
func (r *PostgresMemberRepo) TouchLastSeen(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE members SET last_seen_at = $2 WHERE id = $1`,
		id, now,
	)
	if err != nil {
		return fmt.Errorf("failed to touch last_seen_at: %w", err)
	}
	return nil
}

// compile-time interface check
var _ MemberRepository = (*PostgresMemberRepo)(nil)
