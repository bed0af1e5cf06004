package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinPromptLength は、プロンプトとして受け付ける最小文字数です
const MinPromptLength = 5

// Prompt は、上流モデルに送信する検証済みのテキストを表現する値オブジェクトです
type Prompt struct {
	Content string
}

// NewPrompt は、前後の空白を除去したうえでプロンプトを検証します
func NewPrompt(raw string) (Prompt, error) {
	content := strings.TrimSpace(raw)
	if utf8.RuneCountInString(content) < MinPromptLength {
		return Prompt{}, &ValidationError{
			Field: "prompt",
			Err:   fmt.Errorf("%w: %d文字以上で入力してください", ErrInvalidPrompt, MinPromptLength),
		}
	}
	return Prompt{Content: content}, nil
}

// String はプロンプトの本文を返します
func (p Prompt) String() string {
	return p.Content
}

// ForLog は、ログ出力用に50文字へ切り詰めたプロンプトを返します
func (p Prompt) ForLog() string {
	return Truncate(p.Content, 50)
}

// Truncate は、文字列を先頭からmaxRunes文字に切り詰めます
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}
