package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/middleware"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
	"github.com/Coding-Kitties-Club/GameSwipe/internal/room"
)

// --- モック ---

type mockRoomService struct {
	createFn func(ctx context.Context, expiresInHours int) (*room.CreateResult, error)
	joinFn   func(ctx context.Context, code, displayName string) (*room.JoinResult, error)
	fetchFn  func(ctx context.Context, memberID, roomID string) (*room.FetchResult, error)
	deleteFn func(ctx context.Context, memberID, roomID string) error
}

func (m *mockRoomService) Create(ctx context.Context, expiresInHours int) (*room.CreateResult, error) {
	if m.createFn != nil {
		return m.createFn(ctx, expiresInHours)
	}
	return nil, model.NewInternalError("not implemented")
}
func (m *mockRoomService) Join(ctx context.Context, code, displayName string) (*room.JoinResult, error) {
	if m.joinFn != nil {
		return m.joinFn(ctx, code, displayName)
	}
	return nil, model.NewInternalError("not implemented")
}
func (m *mockRoomService) Fetch(ctx context.Context, memberID, roomID string) (*room.FetchResult, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, memberID, roomID)
	}
	return nil, model.NewInternalError("not implemented")
}
func (m *mockRoomService) Delete(ctx context.Context, memberID, roomID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, memberID, roomID)
	}
	return model.NewInternalError("not implemented")
}

var testCookieConfig = SessionCookieConfig{
	Name:    "gs_session",
	TTLDays: 30,
	Secure:  false,
}

func testRoom() *model.Room {
	return &model.Room{
		ID:        "room-1",
		Code:      "ABC234",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

func decodeEnvelopeCode(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details any    `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return envelope.Error.Code
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieConfig.Name {
			return c
		}
	}
	return nil
}

// --- Create ---

func TestRoomHandler_Create_ReturnsRoomAndSetsCookie(t *testing.T) {
	service := &mockRoomService{
		createFn: func(ctx context.Context, expiresInHours int) (*room.CreateResult, error) {
			if expiresInHours != 48 {
				t.Errorf("expiresInHours = %d, want 48", expiresInHours)
			}
			return &room.CreateResult{
				Room:   testRoom(),
				Member: &model.Member{ID: "member-1", Role: model.RoleCreator},
				Token:  "raw-token",
			}, nil
		},
	}
	h := NewRoomHandler(service, testCookieConfig)

	req := httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader(`{"expiresInHours":48}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp struct {
		Room struct {
			ID   string `json:"id"`
			Code string `json:"code"`
		} `json:"room"`
		Member struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"member"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Room.Code != "ABC234" {
		t.Errorf("room.code = %q, want %q", resp.Room.Code, "ABC234")
	}
	if resp.Member.Role != "creator" {
		t.Errorf("member.role = %q, want %q", resp.Member.Role, "creator")
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected session cookie to be set")
	}
	if cookie.Value != "raw-token" {
		t.Errorf("cookie value = %q, want %q", cookie.Value, "raw-token")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Error("session cookie must be SameSite=Lax")
	}
	if cookie.MaxAge != 30*24*60*60 {
		t.Errorf("cookie MaxAge = %d, want %d", cookie.MaxAge, 30*24*60*60)
	}
}

func TestRoomHandler_Create_EmptyBodyUsesDefaults(t *testing.T) {
	service := &mockRoomService{
		createFn: func(ctx context.Context, expiresInHours int) (*room.CreateResult, error) {
			if expiresInHours != 0 {
				t.Errorf("expiresInHours = %d, want 0 (service applies the default)", expiresInHours)
			}
			return &room.CreateResult{
				Room:   testRoom(),
				Member: &model.Member{ID: "member-1", Role: model.RoleCreator},
				Token:  "raw-token",
			}, nil
		},
	}
	h := NewRoomHandler(service, testCookieConfig)

	req := httptest.NewRequest(http.MethodPost, "/rooms", nil)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
}

func TestRoomHandler_Create_ExplicitZeroTTL_Returns400(t *testing.T) {
	// 明示的な0は「未指定」ではなく不正値として拒否する
	serviceCalled := false
	service := &mockRoomService{
		createFn: func(ctx context.Context, expiresInHours int) (*room.CreateResult, error) {
			serviceCalled = true
			return nil, model.NewInternalError("not reached")
		},
	}
	h := NewRoomHandler(service, testCookieConfig)

	req := httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader(`{"expiresInHours":0}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
	if code := decodeEnvelopeCode(t, rec.Body.Bytes()); code != model.ErrCodeInvalidRequest {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeInvalidRequest)
	}
	if serviceCalled {
		t.Error("explicit zero TTL must not reach the service")
	}
}

func TestRoomHandler_Create_TTLBeyondMax_Returns400(t *testing.T) {
	h := NewRoomHandler(&mockRoomService{}, testCookieConfig)

	req := httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader(`{"expiresInHours":169}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if code := decodeEnvelopeCode(t, rec.Body.Bytes()); code != model.ErrCodeInvalidRequest {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeInvalidRequest)
	}
}

// --- Join ---

func TestRoomHandler_Join_ReturnsTokenInBodyAndCookie(t *testing.T) {
	service := &mockRoomService{
		joinFn: func(ctx context.Context, code, displayName string) (*room.JoinResult, error) {
			if code != "ABC234" {
				t.Errorf("code = %q, want %q", code, "ABC234")
			}
			if displayName != "Alice" {
				t.Errorf("displayName = %q, want %q", displayName, "Alice")
			}
			return &room.JoinResult{
				Room:   testRoom(),
				Member: &model.Member{ID: "member-2", Role: model.RoleMember, DisplayName: "Alice"},
				Token:  "join-token",
			}, nil
		},
	}
	h := NewRoomHandler(service, testCookieConfig)

	req := httptest.NewRequest(http.MethodPost, "/rooms/join", strings.NewReader(`{"code":"ABC234","displayName":"Alice"}`))
	rec := httptest.NewRecorder()
	h.Join(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Session struct {
			Token string `json:"token"`
		} `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Session.Token != "join-token" {
		t.Errorf("session.token = %q, want %q", resp.Session.Token, "join-token")
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil || cookie.Value != "join-token" {
		t.Error("expected session cookie with the join token")
	}
}

func TestRoomHandler_Join_MissingCode_Returns400WithDetails(t *testing.T) {
	h := NewRoomHandler(&mockRoomService{}, testCookieConfig)

	req := httptest.NewRequest(http.MethodPost, "/rooms/join", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Join(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details []struct {
				Field string `json:"field"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if envelope.Error.Code != model.ErrCodeInvalidRequest {
		t.Errorf("error code = %q, want %q", envelope.Error.Code, model.ErrCodeInvalidRequest)
	}
	if len(envelope.Error.Details) == 0 || envelope.Error.Details[0].Field != "code" {
		t.Errorf("expected field-level detail for code, got %+v", envelope.Error.Details)
	}
}

func TestRoomHandler_Join_UnknownCode_Returns404(t *testing.T) {
	service := &mockRoomService{
		joinFn: func(ctx context.Context, code, displayName string) (*room.JoinResult, error) {
			return nil, model.NewRoomNotFoundError()
		},
	}
	h := NewRoomHandler(service, testCookieConfig)

	req := httptest.NewRequest(http.MethodPost, "/rooms/join", strings.NewReader(`{"code":"NOSUCH"}`))
	rec := httptest.NewRecorder()
	h.Join(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRoomHandler_Join_DeadRoom_Returns410(t *testing.T) {
	service := &mockRoomService{
		joinFn: func(ctx context.Context, code, displayName string) (*room.JoinResult, error) {
			return nil, model.NewRoomGoneError()
		},
	}
	h := NewRoomHandler(service, testCookieConfig)

	req := httptest.NewRequest(http.MethodPost, "/rooms/join", strings.NewReader(`{"code":"ABC234"}`))
	rec := httptest.NewRecorder()
	h.Join(rec, req)

	if rec.Code != http.StatusGone {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusGone)
	}
	if code := decodeEnvelopeCode(t, rec.Body.Bytes()); code != model.ErrCodeRoomGone {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeRoomGone)
	}
}

// --- Get / Delete ---

func TestRoomHandler_Get_ReturnsRoomMeAndMembers(t *testing.T) {
	service := &mockRoomService{
		fetchFn: func(ctx context.Context, memberID, roomID string) (*room.FetchResult, error) {
			if memberID != "member-1" {
				t.Errorf("memberID = %q, want %q", memberID, "member-1")
			}
			me := &model.Member{ID: "member-1", RoomID: "room-1", Role: model.RoleCreator}
			return &room.FetchResult{
				Room: testRoom(),
				Me:   me,
				Members: []*model.Member{
					me,
					{ID: "member-2", RoomID: "room-1", Role: model.RoleMember, DisplayName: "Bob"},
				},
			}, nil
		},
	}
	h := NewRoomHandler(service, testCookieConfig)

	req := httptest.NewRequest(http.MethodGet, "/rooms/room-1", nil)
	req = req.WithContext(middleware.ContextWithMemberID(req.Context(), "member-1"))
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Me struct {
			ID string `json:"id"`
		} `json:"me"`
		Members []struct {
			ID string `json:"id"`
		} `json:"members"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Me.ID != "member-1" {
		t.Errorf("me.id = %q, want %q", resp.Me.ID, "member-1")
	}
	if len(resp.Members) != 2 {
		t.Errorf("len(members) = %d, want 2", len(resp.Members))
	}
}

func TestRoomHandler_Get_NoSessionContext_Returns401(t *testing.T) {
	h := NewRoomHandler(&mockRoomService{}, testCookieConfig)

	req := httptest.NewRequest(http.MethodGet, "/rooms/room-1", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRoomHandler_Delete_Returns204(t *testing.T) {
	service := &mockRoomService{
		deleteFn: func(ctx context.Context, memberID, roomID string) error {
			return nil
		},
	}
	h := NewRoomHandler(service, testCookieConfig)

	req := httptest.NewRequest(http.MethodDelete, "/rooms/room-1", nil)
	req = req.WithContext(middleware.ContextWithMemberID(req.Context(), "member-1"))
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestRoomHandler_Delete_NonCreator_Returns403(t *testing.T) {
	service := &mockRoomService{
		deleteFn: func(ctx context.Context, memberID, roomID string) error {
			return model.NewForbiddenError("Only the room creator can delete the room")
		},
	}
	h := NewRoomHandler(service, testCookieConfig)

	req := httptest.NewRequest(http.MethodDelete, "/rooms/room-1", nil)
	req = req.WithContext(middleware.ContextWithMemberID(req.Context(), "member-2"))
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if code := decodeEnvelopeCode(t, rec.Body.Bytes()); code != model.ErrCodeForbidden {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeForbidden)
	}
}
