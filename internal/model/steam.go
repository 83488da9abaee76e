// Package model はドメインモデルを定義する。
package model

import "time"

// SteamProvider はSteam ID紐付けの取得経路を表す。
type SteamProvider string

const (
	// ProviderManual は手入力によるSteam ID紐付け。
	ProviderManual SteamProvider = "manual"
	// ProviderOpenID はSteam OpenIDログインによる紐付け。
	// 現状このパスは未実装だが、スキーマ上の値として予約されている。
	ProviderOpenID SteamProvider = "openid"
)

// SteamIdentity はメンバーとSteamアカウントの紐付けを表す。
// メンバーと1対1で、再紐付けは常に置き換えとなる。
type SteamIdentity struct {
	MemberID       string
	SteamID64      string
	Verified       bool
	Provider       SteamProvider
	LinkedAt       time.Time
	LastVerifiedAt time.Time
}

// OwnedGame はSteamライブラリ内の1タイトルを表す。
type OwnedGame struct {
	AppID           int `json:"appid"`
	PlaytimeForever int `json:"playtime_forever"`
}

// OwnedGamesCache はメンバーごとの所持ゲームスナップショットを表す。
// 同期のたびに全置き換えされるポイントインタイムのキャッシュ。
type OwnedGamesCache struct {
	MemberID  string
	SteamID64 string
	GameCount int
	Games     []OwnedGame
	FetchedAt time.Time
}
