// Package model はドメインモデルを定義する。
package model

import "time"

// Room は短命のコード参加型グループコンテナを表す。
type Room struct {
	ID        string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	DeletedAt *time.Time
}

// IsLive はルームが生存中（未削除かつ有効期限内）かどうかを返す。
func (r *Room) IsLive(now time.Time) bool {
	return r.DeletedAt == nil && r.ExpiresAt.After(now)
}

// MemberRole はルーム内のメンバー種別を表す。
type MemberRole string

const (
	// RoleCreator はルーム作成者。ルームごとに必ず1人。
	RoleCreator MemberRole = "creator"
	// RoleMember はコードで参加したメンバー。
	RoleMember MemberRole = "member"
)

// Member はルームの参加者を表す。
// 作成後はlast_seen_atの更新を除き不変。ルーム削除時にCASCADE削除される。
type Member struct {
	ID          string
	RoomID      string
	Role        MemberRole
	DisplayName string
	JoinedAt    time.Time
	LastSeenAt  time.Time
}

// Session はメンバーシップの証明となるベアラーセッションを表す。
// 生トークンは保存されず、HMACハッシュのみを保持する。
type Session struct {
	ID        string
	MemberID  string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// IsValid はセッションが有効（未失効かつ有効期限内）かどうかを返す。
func (s *Session) IsValid(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}
