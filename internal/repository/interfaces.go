// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
)

// ErrDuplicateRoomCode はルームコードの一意性制約違反を表すセンチネルエラー。
// 呼び出し元（ルームライフサイクルサービス）がコードを再生成してリトライする。
var ErrDuplicateRoomCode = errors.New("room code already exists")

// RoomRepository はルームデータの永続化インターフェース。
type RoomRepository interface {
	// CreateWithCreator はルーム・creatorメンバー・セッションを同一トランザクションで作成する。
	// コード列の一意性制約違反の場合はErrDuplicateRoomCodeを返す。
	CreateWithCreator(ctx context.Context, room *model.Room, creator *model.Member, session *model.Session) error

	// FindByID は指定IDのルームを取得する。見つからない場合はnilを返す。
	// 削除済み・期限切れのルームも返す（生死判定は呼び出し元が行う）。
	FindByID(ctx context.Context, id string) (*model.Room, error)

	// FindByCode は指定コードのルームを取得する。見つからない場合はnilを返す。
	FindByCode(ctx context.Context, code string) (*model.Room, error)

	// SoftDeleteWithSessions はルームをソフト削除し、所属全メンバーのセッションを
	// 失効させる。両方を同一トランザクションで行う。
	SoftDeleteWithSessions(ctx context.Context, roomID string, now time.Time) error
}

// MemberRepository はメンバーデータの永続化インターフェース。
type MemberRepository interface {
	// CreateWithSession はメンバーとセッションを同一トランザクションで作成する。
	CreateWithSession(ctx context.Context, member *model.Member, session *model.Session) error

	// FindByID は指定IDのメンバーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Member, error)

	// ListByRoomID は指定ルームの全メンバーを参加時刻順で取得する。
	ListByRoomID(ctx context.Context, roomID string) ([]*model.Member, error)

	// TouchLastSeen はメンバーの最終アクセス時刻を更新する。
	TouchLastSeen(ctx context.Context, id string, now time.Time) error
}

// SessionRepository はセッションデータの永続化インターフェース。
// セッションの作成はルーム作成・参加トランザクションに含まれるため、ここには現れない。
type SessionRepository interface {
	// FindValidByTokenHash はトークンハッシュに一致する有効な（未失効かつ期限内の）
	// セッションを取得する。該当がない場合はnilを返す。
	FindValidByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
}

// SteamIdentityRepository はSteam ID紐付けの永続化インターフェース。
type SteamIdentityRepository interface {
	// Upsert はmember_idをキーに紐付けを挿入または置き換え、保存後の行を返す。
	Upsert(ctx context.Context, identity *model.SteamIdentity) (*model.SteamIdentity, error)

	// FindByMemberID は指定メンバーの紐付けを取得する。見つからない場合はnilを返す。
	FindByMemberID(ctx context.Context, memberID string) (*model.SteamIdentity, error)
}

// OwnedGamesRepository は所持ゲームキャッシュの永続化インターフェース。
// キャッシュの読み出し側APIは現状存在しないため、書き込み操作のみを持つ。
type OwnedGamesRepository interface {
	// Upsert はmember_idをキーにキャッシュを全置き換えし、保存後の行を返す。
	Upsert(ctx context.Context, cache *model.OwnedGamesCache) (*model.OwnedGamesCache, error)
}
