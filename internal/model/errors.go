// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// HTTP境界で {"error":{"code","message","details"}} エンベロープとして描画される。
type APIError struct {
	Code    string // 機械可読なエラーコード
	Message string // 人間向けメッセージ
	Details any    // フィールド単位のバリデーション詳細など（省略可）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeUnauthorised         = "UNAUTHORISED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeRoomNotFound         = "ROOM_NOT_FOUND"
	ErrCodeRoomGone             = "ROOM_GONE"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeSteamIdentityMissing = "STEAM_IDENTITY_NOT_FOUND"
	ErrCodeSteamAccountMissing  = "STEAM_ACCOUNT_NOT_FOUND"
	ErrCodeSteamGamesHidden     = "STEAM_GAMES_NOT_VISIBLE"
	ErrCodeSteamUpstream        = "STEAM_UPSTREAM_ERROR"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// NewInvalidRequestError はスキーマ検証失敗エラーを生成する。
// detailsにはフィールド単位の検証結果を渡す。
func NewInvalidRequestError(details any) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidRequest,
		Message: "Invalid request body",
		Details: details,
	}
}

// NewUnauthorisedError は認証失敗エラーを生成する。
// トークンの欠落・不正・期限切れ・失効を意図的に区別しない（情報漏洩防止）。
func NewUnauthorisedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorised,
		Message: "Invalid or expired session",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
	}
}

// NewRoomNotFoundError はルーム未検出エラーを生成する。
func NewRoomNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeRoomNotFound,
		Message: "Room not found",
	}
}

// NewRoomGoneError は削除済みまたは期限切れルームへのアクセスエラーを生成する。
// 「存在したが終了した」を「存在しない」と区別するためROOM_NOT_FOUNDとは別コード。
func NewRoomGoneError() *APIError {
	return &APIError{
		Code:    ErrCodeRoomGone,
		Message: "Room has been deleted or expired",
	}
}

// NewSteamIdentityNotFoundError はSteam ID未紐付けエラーを生成する。
func NewSteamIdentityNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeSteamIdentityMissing,
		Message: "No Steam identity linked for this member",
	}
}

// NewSteamAccountNotFoundError はSteamアカウント未検出エラーを生成する。
func NewSteamAccountNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeSteamAccountMissing,
		Message: "Steam account not found for this steamid64",
	}
}

// NewSteamGamesNotVisibleError は所持ゲーム非公開エラーを生成する。
// 空リストは「0本所持」ではなく「読めない」と解釈する（プロフィール非公開と区別不能のため）。
func NewSteamGamesNotVisibleError() *APIError {
	return &APIError{
		Code:    ErrCodeSteamGamesHidden,
		Message: "Could not read owned games. Ensure Steam profile + game details are public.",
	}
}

// NewSteamUpstreamError はSteam API呼び出し失敗エラーを生成する。
func NewSteamUpstreamError(status int) *APIError {
	return &APIError{
		Code:    ErrCodeSteamUpstream,
		Message: fmt.Sprintf("Steam API error (%d)", status),
	}
}

// NewInternalError は不変条件違反などの内部エラーを生成する。
// 内部詳細はログのみに記録し、レスポンスには含めない。
func NewInternalError(message string) *APIError {
	return &APIError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}
