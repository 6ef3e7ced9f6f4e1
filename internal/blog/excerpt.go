package blog

import (
	"strings"

	"golang.org/x/net/html"
)

// excerptMaxRunes は抜粋の最大文字数。
const excerptMaxRunes = 200

// ExtractExcerpt はサニタイズ済みHTML本文からプレーンテキストの抜粋を生成する。
// タグを除去してテキストノードを連結し、連続する空白を1つにまとめた上で
// 最大200文字に切り詰める。切り詰めが発生した場合は末尾に「…」を付与する。
func ExtractExcerpt(sanitizedHTML string) string {
	if sanitizedHTML == "" {
		return ""
	}

	var sb strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(sanitizedHTML))

loop:
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			break loop
		case html.TextToken:
			sb.Write(tokenizer.Text())
			// ブロック境界の判定はしない。空白正規化で十分な粒度になる。
			sb.WriteByte(' ')
		}
	}

	// 連続する空白・改行を単一スペースに正規化
	text := strings.Join(strings.Fields(sb.String()), " ")

	runes := []rune(text)
	if len(runes) <= excerptMaxRunes {
		return text
	}
	return string(runes[:excerptMaxRunes]) + "…"
}
