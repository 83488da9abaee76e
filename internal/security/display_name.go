// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DisplayNameSanitizer は参加時に受け取る表示名をサニタイズする。
// 表示名はプレーンテキストであり、HTMLタグ・属性は一切許可しない。
// そのまま他メンバーのクライアントへエコーされるため、保存前に必ず通す。
type DisplayNameSanitizer struct {
	policy *bluemonday.Policy
}

// NewDisplayNameSanitizer はDisplayNameSanitizerを生成する。
// bluemondayのStrictPolicy（全タグ除去）を使用する。
func NewDisplayNameSanitizer() *DisplayNameSanitizer {
	return &DisplayNameSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は表示名からHTMLをすべて除去し、前後の空白をトリムして返す。
// bluemondayはテキストを実体参照にエスケープするため、デコードして
// プレーンテキストに戻す。"Tom & Jerry" のような名前はそのまま残る。
func (s *DisplayNameSanitizer) Sanitize(displayName string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(displayName)))
}
