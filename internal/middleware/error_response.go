// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
)

// errorEnvelope は統一エラーレスポンスの外形。
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// writeAPIError はAPIErrorを統一エンベロープでレスポンスに書き込む。
// ミドルウェア内で発生するエラー（認証・レート制限・panic回復）用。
func writeAPIError(w http.ResponseWriter, status int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(errorEnvelope{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	}); err != nil {
		slog.Error("failed to encode error response",
			slog.String("error", err.Error()),
		)
	}
}
