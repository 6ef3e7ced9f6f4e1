package blog

import (
	"strings"
	"testing"
)

func TestExtractExcerpt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "空文字列",
			input: "",
			want:  "",
		},
		{
			name:  "プレーンテキストはそのまま",
			input: "これはプレーンテキストです。",
			want:  "これはプレーンテキストです。",
		},
		{
			name:  "タグが除去される",
			input: "<p>段落1</p><p>段落2</p>",
			want:  "段落1 段落2",
		},
		{
			name:  "ネストしたタグ",
			input: "<p>これは<strong>重要な</strong>記事です。</p>",
			want:  "これは 重要な 記事です。",
		},
		{
			name:  "連続する空白が正規化される",
			input: "<p>語1   語2\n\n語3</p>",
			want:  "語1 語2 語3",
		},
		{
			name:  "リスト構造",
			input: "<ul><li>項目1</li><li>項目2</li></ul>",
			want:  "項目1 項目2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractExcerpt(tt.input)
			if got != tt.want {
				t.Errorf("ExtractExcerpt(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractExcerpt_Truncation(t *testing.T) {
	// 200文字を超える本文は切り詰められ、末尾に省略記号が付く
	long := strings.Repeat("あ", 300)
	got := ExtractExcerpt("<p>" + long + "</p>")

	runes := []rune(got)
	if len(runes) != excerptMaxRunes+1 {
		t.Errorf("excerpt length = %d runes, want %d", len(runes), excerptMaxRunes+1)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated excerpt should end with ellipsis, got %q", got)
	}
}

func TestExtractExcerpt_ExactBoundary(t *testing.T) {
	// ちょうど200文字の場合は切り詰めなし
	exact := strings.Repeat("a", excerptMaxRunes)
	got := ExtractExcerpt(exact)

	if got != exact {
		t.Errorf("excerpt at exact boundary should be unchanged, got %d runes", len([]rune(got)))
	}
}
