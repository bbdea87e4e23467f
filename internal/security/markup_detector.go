// Package security はユーザー入力の検査を提供する。
//
// タスクのタイトルと説明は入力されたとおりのプレーンテキストとして保存し、
// 表示時にhtml/templateとencoding/jsonがエスケープする。
// 入力を書き換えることはせず、マークアップを含む入力は検証エラーとして扱う。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MarkupDetector はユーザー入力にHTMLマークアップが含まれるかを判定するインターフェース。
type MarkupDetector interface {
	// ContainsMarkup は入力の一部がHTMLのタグ・コメントとして解釈される場合にtrueを返す。
	// "2 < 3" や "&" のような通常のテキストはマークアップとみなさない。
	ContainsMarkup(input string) bool
}

// markupDetector はbluemondayのStrictPolicyを使うMarkupDetectorの実装。ポリシーは並行利用できる。
type markupDetector struct {
	policy *bluemonday.Policy
}

// NewMarkupDetector はMarkupDetectorを生成する。
func NewMarkupDetector() MarkupDetector {
	return &markupDetector{policy: bluemonday.StrictPolicy()}
}

// ContainsMarkup はStrictPolicyの出力と入力をエスケープ解除して比較する。
// StrictPolicyはタグを全て除去しテキストだけをエスケープして残すため、差分があればタグが含まれている。
func (d *markupDetector) ContainsMarkup(input string) bool {
	if !strings.Contains(input, "<") {
		return false
	}
	// HTMLのトークナイザーは改行をLFに正規化する
	text := strings.ReplaceAll(input, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return html.UnescapeString(d.policy.Sanitize(text)) != html.UnescapeString(text)
}
