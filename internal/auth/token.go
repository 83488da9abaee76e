// Package auth はセッショントークンの発行・検証を提供する。
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// tokenByteLen は生トークンのエントロピー長（バイト）。
const tokenByteLen = 32

// NewSessionToken は暗号学的乱数による高エントロピーの生トークンを生成する。
// base64url（パディングなし）で符号化して返す。
func NewSessionToken() (string, error) {
	buf := make([]byte, tokenByteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// TokenHasher はサーバー保持のシークレットを鍵としたトークンの決定的ハッシュを計算する。
// 生トークンは保存せず、このハッシュのみを永続化する。
type TokenHasher struct {
	secret []byte
}

// NewTokenHasher はTokenHasherを生成する。
func NewTokenHasher(secret string) *TokenHasher {
	return &TokenHasher{secret: []byte(secret)}
}

// Hash は生トークンのHMAC-SHA256ハッシュをhex文字列で返す。
// 同一入力に対して常に同一出力を返す（保存ハッシュとの照合に使用）。
func (h *TokenHasher) Hash(token string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
