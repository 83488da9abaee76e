// Package steam はSteam連携機能を提供する。
// Steam Web APIの呼び出し、ID紐付け、所持ゲームライブラリの同期を含む。
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
)

const (
	// defaultBaseURL はSteam Web APIのベースURL。
	defaultBaseURL = "https://api.steampowered.com"
	// playerSummariesPath はプロフィール取得APIのパス。
	playerSummariesPath = "/ISteamUser/GetPlayerSummaries/v2/"
	// ownedGamesPath は所持ゲーム取得APIのパス。
	ownedGamesPath = "/IPlayerService/GetOwnedGames/v1/"
)

// ErrAPIKeyMissing はAPIキー未設定のままSteam APIを呼び出したことを表す。
var ErrAPIKeyMissing = errors.New("steam web api key is not configured")

// StatusError はSteam APIが200以外のステータスを返したことを表す。
type StatusError struct {
	StatusCode int
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("steam api returned status %d", e.StatusCode)
}

// Client はSteam Web APIのクライアント。
// APIキーはクエリパラメータで送るため、URLをそのままログに出してはならない。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	baseURL    string // テスト用にベースURLを差し替え可能
}

// NewClient はClient の新しいインスタンスを生成する。
// apiKeyが空の場合、各メソッドはErrAPIKeyMissingを返す。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
	}
}

// playerSummariesResponse はGetPlayerSummariesのレスポンス形式。
type playerSummariesResponse struct {
	Response struct {
		Players []struct {
			SteamID     string `json:"steamid"`
			PersonaName string `json:"personaname"`
		} `json:"players"`
	} `json:"response"`
}

// AccountExists はsteamid64に対応するSteamアカウントが存在するか確認する。
// GetPlayerSummariesは未知のIDに対してもHTTP 200で空のplayersを返すため、
// 存在判定はリストの長さで行う。
func (c *Client) AccountExists(ctx context.Context, steamID64 string) (bool, error) {
	query := url.Values{}
	query.Set("steamids", steamID64)

	body, err := c.get(ctx, playerSummariesPath, query)
	if err != nil {
		return false, err
	}

	var result playerSummariesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("failed to parse player summaries response: %w", err)
	}

	return len(result.Response.Players) > 0, nil
}

// ownedGamesResponse はGetOwnedGamesのレスポンス形式。
// プロフィール非公開の場合、gameCountもgamesも欠落した空オブジェクトが返る。
type ownedGamesResponse struct {
	Response struct {
		GameCount int               `json:"game_count"`
		Games     []model.OwnedGame `json:"games"`
	} `json:"response"`
}

// FetchOwnedGames はsteamid64の所持ゲーム一覧を取得する。
// アプリ情報（タイトル名など）は含めず、無料プレイ済みタイトルは含める。
// 非公開プロフィールでは空リストが返る。空を「0本所持」と解釈するかは呼び出し元の責務。
func (c *Client) FetchOwnedGames(ctx context.Context, steamID64 string) ([]model.OwnedGame, error) {
	query := url.Values{}
	query.Set("steamid", steamID64)
	query.Set("include_appinfo", "0")
	query.Set("include_played_free_games", "1")

	body, err := c.get(ctx, ownedGamesPath, query)
	if err != nil {
		return nil, err
	}

	var result ownedGamesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse owned games response: %w", err)
	}

	return result.Response.Games, nil
}

// get はkeyパラメータを付与してGETリクエストを実行し、200のボディを返す。
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	reqURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse steam api url: %w", err)
	}
	query.Set("key", c.apiKey)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create steam api request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.ErrorはURL全体（=APIキー）を文字列化するため、内側のエラーだけを包み直す
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		c.logger.Error("steam api request failed",
			slog.String("path", path),
		)
		return nil, fmt.Errorf("steam api request failed: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("steam api returned non-200 status",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read steam api response body: %w", err)
	}

	return body, nil
}
