package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
)

// uniqueViolation はPostgreSQLの一意性制約違反のエラーコード。
const uniqueViolation = "23505"

// roomCodeConstraint はrooms.codeの一意性制約名。
const roomCodeConstraint = "rooms_code_key"

// PostgresRoomRepo はPostgreSQLを使用したルームリポジトリ。
type PostgresRoomRepo struct {
	db *sql.DB
}

// NewPostgresRoomRepo はPostgresRoomRepoを生成する。
func NewPostgresRoomRepo(db *sql.DB) *PostgresRoomRepo {
	return &PostgresRoomRepo{db: db}
}

// CreateWithCreator はルーム・creatorメンバー・セッションを同一トランザクションで作成する。
// いずれかの挿入が失敗した場合は全てロールバックされ、部分的な状態は残らない。
// コード列の一意性制約違反の場合はErrDuplicateRoomCodeを返す。
func (r *PostgresRoomRepo) CreateWithCreator(ctx context.Context, room *model.Room, creator *model.Member, session *model.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// ルームを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO rooms (id, code, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		room.ID, room.Code, room.CreatedAt, room.ExpiresAt,
	)
	if err != nil {
		if isRoomCodeViolation(err) {
			return ErrDuplicateRoomCode
		}
		return fmt.Errorf("failed to insert room: %w", err)
	}

	// creatorメンバーを作成
	if err := insertMember(ctx, tx, creator); err != nil {
		return err
	}

	// セッションを作成
	if err := insertSession(ctx, tx, session); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByID は指定IDのルームを取得する。見つからない場合はnilを返す。
func (r *PostgresRoomRepo) FindByID(ctx context.Context, id string) (*model.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx,
		`SELECT id, code, created_at, expires_at, deleted_at FROM rooms WHERE id = $1`,
		id,
	))
}

// FindByCode は指定コードのルームを取得する。見つからない場合はnilを返す。
func (r *PostgresRoomRepo) FindByCode(ctx context.Context, code string) (*model.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx,
		`SELECT id, code, created_at, expires_at, deleted_at FROM rooms WHERE code = $1`,
		code,
	))
}

// SoftDeleteWithSessions はルームをソフト削除し、所属全メンバーのセッションを
// 同一トランザクションで失効させる。行は削除しない（Gone判定のため）。
func (r *PostgresRoomRepo) SoftDeleteWithSessions(ctx context.Context, roomID string, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE rooms SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		roomID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to soft-delete room: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("room not found or already deleted: %s", roomID)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE member_sessions
		 SET revoked_at = $2
		 WHERE revoked_at IS NULL
		   AND member_id IN (SELECT id FROM members WHERE room_id = $1)`,
		roomID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke room sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// isRoomCodeViolation はコード列の一意性制約違反かどうかを判定する。
func isRoomCodeViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && pqErr.Constraint == roomCodeConstraint
}

// scanRoom は1行のルームをスキャンする。行がない場合はnilを返す。
func scanRoom(row *sql.Row) (*model.Room, error) {
	room := &model.Room{}
	var deletedAt sql.NullTime
	err := row.Scan(&room.ID, &room.Code, &room.CreatedAt, &room.ExpiresAt, &deletedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan room: %w", err)
	}

	if deletedAt.Valid {
		room.DeletedAt = &deletedAt.Time
	}
	return room, nil
}

// insertMember はトランザクション内でメンバー行を挿入する。
func insertMember(ctx context.Context, tx *sql.Tx, member *model.Member) error {
	displayName := sql.NullString{String: member.DisplayName, Valid: member.DisplayName != ""}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO members (id, room_id, role, display_name, joined_at, last_seen_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		member.ID, member.RoomID, string(member.Role), displayName, member.JoinedAt, member.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// insertSession はトランザクション内でセッション行を挿入する。
func insertSession(ctx context.Context, tx *sql.Tx, session *model.Session) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO member_sessions (id, member_id, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.MemberID, session.TokenHash, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RoomRepository = (*PostgresRoomRepo)(nil)
