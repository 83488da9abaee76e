package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// memberIDContextKey はリクエストコンテキストにメンバーIDを格納するためのキー。
var memberIDContextKey = contextKey("member_id")

// SessionVerifier はセッショントークンの検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type SessionVerifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッショントークンを読み取り、
// 検証するミドルウェアを返す。認証済みメンバーIDをリクエストコンテキストに注入する。
// Cookie欠落・不正・期限切れ・失効はすべて同一の401レスポンスになる。
func NewSessionMiddleware(cookieName string, verifier SessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				writeAPIError(w, http.StatusUnauthorized, model.NewUnauthorisedError())
				return
			}

			memberID, err := verifier.Verify(r.Context(), cookie.Value)
			if err != nil {
				writeAPIError(w, http.StatusUnauthorized, model.NewUnauthorisedError())
				return
			}

			ctx := context.WithValue(r.Context(), memberIDContextKey, memberID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MemberIDFromContext はリクエストコンテキストからメンバーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func MemberIDFromContext(ctx context.Context) (string, error) {
	memberID, ok := ctx.Value(memberIDContextKey).(string)
	if !ok || memberID == "" {
		return "", fmt.Errorf("member ID not found in context")
	}
	return memberID, nil
}

// ContextWithMemberID はコンテキストにメンバーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithMemberID(ctx context.Context, memberID string) context.Context {
	return context.WithValue(ctx, memberIDContextKey, memberID)
}
