package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/middleware"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/room"
)

// RoomServiceInterface はルームハンドラーが必要とするサービスインターフェース。
type RoomServiceInterface interface {
	// Create はルームとcreatorメンバーを作成し、セッションを発行する。
	Create(ctx context.Context, expiresInHours int) (*room.CreateResult, error)
	// Join はコードでルームに参加し、セッションを発行する。
	Join(ctx context.Context, code, displayName string) (*room.JoinResult, error)
	// Fetch はルームと全メンバー一覧を取得する。
	Fetch(ctx context.Context, memberID, roomID string) (*room.FetchResult, error)
	// Delete はルームをソフト削除し、全セッションを失効させる。
	Delete(ctx context.Context, memberID, roomID string) error
}

// SessionCookieConfig はセッションCookieの発行設定。
type SessionCookieConfig struct {
	Name    string
	TTLDays int
	Secure  bool
}

// RoomHandler はルームライフサイクルのHTTPハンドラー。
type RoomHandler struct {
	service   RoomServiceInterface
	validator *requestValidator
	cookie    SessionCookieConfig
}

// NewRoomHandler はRoomHandlerを生成する。
func NewRoomHandler(service RoomServiceInterface, cookie SessionCookieConfig) *RoomHandler {
	return &RoomHandler{
		service:   service,
		validator: newRequestValidator(),
		cookie:    cookie,
	}
}

// createRoomRequest はルーム作成リクエストのボディ。ボディ自体が省略可能。
// ExpiresInHoursはポインタで受けて「未指定」と「明示的な0」を区別する。
// 0は省略扱いにならずmin=1に違反するため、INVALID_REQUESTで拒否される。
type createRoomRequest struct {
	ExpiresInHours *int `json:"expiresInHours" validate:"omitempty,min=1,max=168"`
}

// joinRoomRequest はルーム参加リクエストのボディ。
type joinRoomRequest struct {
	Code        string `json:"code" validate:"required,min=3,max=32"`
	DisplayName string `json:"displayName" validate:"omitempty,min=1,max=48"`
}

// roomResponse はルーム情報のAPIレスポンス。
type roomResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// memberSummary はメンバーの最小表現。作成レスポンスで使用する。
type memberSummary struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// memberResponse はメンバーの完全表現。参加・取得レスポンスで使用する。
type memberResponse struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"displayName,omitempty"`
	JoinedAt    time.Time `json:"joinedAt"`
}

func toRoomResponse(r *model.Room) roomResponse {
	return roomResponse{
		ID:        r.ID,
		Code:      r.Code,
		ExpiresAt: r.ExpiresAt,
	}
}

func toMemberResponse(m *model.Member) memberResponse {
	return memberResponse{
		ID:          m.ID,
		Role:        string(m.Role),
		DisplayName: m.DisplayName,
		JoinedAt:    m.JoinedAt,
	}
}

// setSessionCookie はセッショントークンをHTTP Only Cookieとして設定する。
func (h *RoomHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   h.cookie.TTLDays * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Create はルーム作成を処理する。
// POST /rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	// ボディなしのリクエストも許容する
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(nil))
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleServiceError(w, err)
		return
	}

	hours := 0
	if req.ExpiresInHours != nil {
		hours = *req.ExpiresInHours
	}

	result, err := h.service.Create(r.Context(), hours)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, map[string]any{
		"room": toRoomResponse(result.Room),
		"member": memberSummary{
			ID:   result.Member.ID,
			Role: string(result.Member.Role),
		},
	})
}

// Join はルーム参加を処理する。
// POST /rooms/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(nil))
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Join(r.Context(), req.Code, req.DisplayName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// Cookieに加えてボディでもトークンを返す。参加は同一オリジンの
	// ブラウザコンテキストとは限らないため。
	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, map[string]any{
		"room":   toRoomResponse(result.Room),
		"member": toMemberResponse(result.Member),
		"session": map[string]string{
			"token": result.Token,
		},
	})
}

// Get はルームとメンバー一覧の取得を処理する。
// GET /rooms/{roomID}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	memberID, err := middleware.MemberIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorisedError())
		return
	}

	roomID := chi.URLParam(r, "roomID")

	result, err := h.service.Fetch(r.Context(), memberID, roomID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	members := make([]memberResponse, 0, len(result.Members))
	for _, m := range result.Members {
		members = append(members, toMemberResponse(m))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"room":    toRoomResponse(result.Room),
		"me":      toMemberResponse(result.Me),
		"members": members,
	})
}

// Delete はルーム削除を処理する。
// DELETE /rooms/{roomID}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	memberID, err := middleware.MemberIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorisedError())
		return
	}

	roomID := chi.URLParam(r, "roomID")

	if err := h.service.Delete(r.Context(), memberID, roomID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
