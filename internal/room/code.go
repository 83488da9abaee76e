// Package room はルームのライフサイクル（作成・参加・取得・削除）を提供する。
package room

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet はルームコードに使用する固定アルファベット。
// 視認で紛らわしい文字（I, O, 0, 1）を除いた32文字。
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewCode は指定長のルームコードを暗号学的乱数から生成する。
// アルファベットが32文字（256の約数）のため、バイト値の剰余取りに偏りは生じない。
func NewCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate room code: %w", err)
	}

	out := make([]byte, length)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}
