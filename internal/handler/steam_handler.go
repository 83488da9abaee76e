package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/middleware"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
)

// SteamServiceInterface はSteamハンドラーが必要とするサービスインターフェース。
type SteamServiceInterface interface {
	// Link はメンバーにsteamid64を紐付ける。既存の紐付けは置き換える。
	Link(ctx context.Context, memberID, steamID64 string) (*model.SteamIdentity, error)
	// GetIdentity はメンバーの現在の紐付けを取得する。
	GetIdentity(ctx context.Context, memberID string) (*model.SteamIdentity, error)
	// SyncLibrary は所持ゲームを取得してキャッシュを置き換える。
	SyncLibrary(ctx context.Context, memberID string) (*model.OwnedGamesCache, error)
}

// SteamHandler はSteam連携のHTTPハンドラー。
type SteamHandler struct {
	service   SteamServiceInterface
	validator *requestValidator
}

// NewSteamHandler はSteamHandlerを生成する。
func NewSteamHandler(service SteamServiceInterface) *SteamHandler {
	return &SteamHandler{
		service:   service,
		validator: newRequestValidator(),
	}
}

// putIdentityRequest はSteam ID紐付けリクエストのボディ。
// steamid64は17桁の数字文字列。
type putIdentityRequest struct {
	SteamID64 string `json:"steamid64" validate:"required,len=17,numeric"`
}

// identityResponse はSteam紐付け情報のAPIレスポンス。
type identityResponse struct {
	SteamID64 string `json:"steamid64"`
	Verified  bool   `json:"verified"`
	Provider  string `json:"provider"`
}

// syncResponse はライブラリ同期結果のAPIレスポンス。
type syncResponse struct {
	SteamID64 string    `json:"steamid64"`
	GameCount int       `json:"gameCount"`
	FetchedAt time.Time `json:"fetchedAt"`
}

func toIdentityResponse(identity *model.SteamIdentity) identityResponse {
	return identityResponse{
		SteamID64: identity.SteamID64,
		Verified:  identity.Verified,
		Provider:  string(identity.Provider),
	}
}

// PutIdentity はSteam ID紐付けを処理する。
// PUT /steam/identity
func (h *SteamHandler) PutIdentity(w http.ResponseWriter, r *http.Request) {
	memberID, err := middleware.MemberIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorisedError())
		return
	}

	var req putIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(nil))
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleServiceError(w, err)
		return
	}

	identity, err := h.service.Link(r.Context(), memberID, req.SteamID64)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toIdentityResponse(identity))
}

// GetIdentity はSteam紐付けの取得を処理する。
// GET /steam/identity
func (h *SteamHandler) GetIdentity(w http.ResponseWriter, r *http.Request) {
	memberID, err := middleware.MemberIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorisedError())
		return
	}

	identity, err := h.service.GetIdentity(r.Context(), memberID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toIdentityResponse(identity))
}

// SyncLibrary は所持ゲームライブラリの同期を処理する。
// POST /steam/library/sync
func (h *SteamHandler) SyncLibrary(w http.ResponseWriter, r *http.Request) {
	memberID, err := middleware.MemberIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorisedError())
		return
	}

	cache, err := h.service.SyncLibrary(r.Context(), memberID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{
		SteamID64: cache.SteamID64,
		GameCount: cache.GameCount,
		FetchedAt: cache.FetchedAt,
	})
}
