package steam

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestClient_AccountExists_Found(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != playerSummariesPath {
			t.Errorf("path = %s, want %s", r.URL.Path, playerSummariesPath)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %s, want test-key", got)
		}
		if got := r.URL.Query().Get("steamids"); got != "76561197960287930" {
			t.Errorf("steamids = %s, want 76561197960287930", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"players":[{"steamid":"76561197960287930","personaname":"Rabscuttle"}]}}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), "test-key")
	c.baseURL = server.URL

	exists, err := c.AccountExists(context.Background(), "76561197960287930")
	if err != nil {
		t.Fatalf("AccountExists returned error: %v", err)
	}
	if !exists {
		t.Error("exists = false, want true")
	}
}

func TestClient_AccountExists_EmptyPlayersMeansNotFound(t *testing.T) {
	// 未知のsteamid64でもAPIは200で空のplayersを返す
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"players":[]}}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), "test-key")
	c.baseURL = server.URL

	exists, err := c.AccountExists(context.Background(), "76561197960287930")
	if err != nil {
		t.Fatalf("AccountExists returned error: %v", err)
	}
	if exists {
		t.Error("exists = true, want false")
	}
}

func TestClient_FetchOwnedGames_ReturnsGames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ownedGamesPath {
			t.Errorf("path = %s, want %s", r.URL.Path, ownedGamesPath)
		}
		q := r.URL.Query()
		if got := q.Get("include_appinfo"); got != "0" {
			t.Errorf("include_appinfo = %s, want 0", got)
		}
		if got := q.Get("include_played_free_games"); got != "1" {
			t.Errorf("include_played_free_games = %s, want 1", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"game_count":2,"games":[{"appid":620,"playtime_forever":300},{"appid":440,"playtime_forever":0}]}}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), "test-key")
	c.baseURL = server.URL

	games, err := c.FetchOwnedGames(context.Background(), "76561197960287930")
	if err != nil {
		t.Fatalf("FetchOwnedGames returned error: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("len(games) = %d, want 2", len(games))
	}
	if games[0].AppID != 620 || games[0].PlaytimeForever != 300 {
		t.Errorf("games[0] = %+v, want appid=620 playtime=300", games[0])
	}
}

func TestClient_FetchOwnedGames_PrivateProfileReturnsEmpty(t *testing.T) {
	// 非公開プロフィールではgame_countもgamesも無い空オブジェクトが返る
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{}}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), "test-key")
	c.baseURL = server.URL

	games, err := c.FetchOwnedGames(context.Background(), "76561197960287930")
	if err != nil {
		t.Fatalf("FetchOwnedGames returned error: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("len(games) = %d, want 0", len(games))
	}
}

func TestClient_Non200ReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf), "test-key")
	c.baseURL = server.URL

	_, err := c.FetchOwnedGames(context.Background(), "76561197960287930")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, http.StatusForbidden)
	}
}

func TestClient_TransportErrorDoesNotExposeAPIKey(t *testing.T) {
	// 接続不能なホストでurl.Errorを発生させる。
	// url.ErrorはリクエストURL全体を文字列化するため、そのまま包むとキーが漏れる。
	var buf bytes.Buffer
	c := NewClient(http.DefaultClient, newTestLogger(&buf), "SUPERSECRETKEY")
	c.baseURL = "http://127.0.0.1:1"

	_, err := c.AccountExists(context.Background(), "76561197960287930")
	if err == nil {
		t.Fatal("expected transport error, got nil")
	}
	if strings.Contains(err.Error(), "SUPERSECRETKEY") {
		t.Errorf("error string must not contain the api key: %v", err)
	}
	if strings.Contains(buf.String(), "SUPERSECRETKEY") {
		t.Errorf("log output must not contain the api key: %s", buf.String())
	}
	if !strings.Contains(err.Error(), playerSummariesPath) {
		t.Errorf("error should identify the request path, got: %v", err)
	}
}

func TestClient_MissingAPIKey(t *testing.T) {
	var buf bytes.Buffer
	c := NewClient(http.DefaultClient, newTestLogger(&buf), "")

	if _, err := c.AccountExists(context.Background(), "76561197960287930"); !errors.Is(err, ErrAPIKeyMissing) {
		t.Errorf("expected ErrAPIKeyMissing, got %v", err)
	}
	if _, err := c.FetchOwnedGames(context.Background(), "76561197960287930"); !errors.Is(err, ErrAPIKeyMissing) {
		t.Errorf("expected ErrAPIKeyMissing, got %v", err)
	}
}
