package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// PlaceholderModel は、プレースホルダー結果の model に設定される値です
const PlaceholderModel = "placeholder"

// ExamplePrompt は、検証エラー時にブラウザへ返すプロンプト例です
const ExamplePrompt = "A professional architectural 3D render of a sustainable living room with natural lighting"

// GenerationRequest は、画像生成リクエストを表すドメインオブジェクトです
type GenerationRequest struct {
	Prompt      string
	AspectRatio string
	ImageCount  int
}

// ValidatedGenerationRequest は、検証済みの画像生成リクエストです
type ValidatedGenerationRequest struct {
	Prompt      Prompt
	AspectRatio AspectRatio
	ImageCount  int
}

// Validate は、リクエストを検証しデフォルト値を補完します
// maxImages は sampleCount の上限です
func (r GenerationRequest) Validate(maxImages int) (ValidatedGenerationRequest, error) {
	prompt, err := NewPrompt(r.Prompt)
	if err != nil {
		return ValidatedGenerationRequest{}, err
	}

	ratio, err := ParseAspectRatio(r.AspectRatio)
	if err != nil {
		return ValidatedGenerationRequest{}, &ValidationError{
			Field: "aspectRatio",
			Err:   fmt.Errorf("%w: %q", err, r.AspectRatio),
		}
	}

	count := r.ImageCount
	if count == 0 {
		count = 1
	}
	if count < 1 || count > maxImages {
		return ValidatedGenerationRequest{}, &ValidationError{
			Field: "numberOfImages",
			Err:   fmt.Errorf("%w: 1から%dの間で指定してください", ErrInvalidImageCount, maxImages),
		}
	}

	return ValidatedGenerationRequest{Prompt: prompt, AspectRatio: ratio, ImageCount: count}, nil
}

// GeneratedImage は、生成された1枚の画像を表します
type GeneratedImage struct {
	Index    int    `json:"index"`
	MimeType string `json:"mimeType"`
	Base64   string `json:"base64"`
	ImageURL string `json:"imageUrl"`
}

// NewGeneratedImage は、base64データからPNG画像を作成します
func NewGeneratedImage(index int, b64 string) GeneratedImage {
	return GeneratedImage{
		Index:    index,
		MimeType: "image/png",
		Base64:   b64,
		ImageURL: "data:image/png;base64," + b64,
	}
}

// GenerationResult は、画像生成の結果を表すドメインオブジェクトです
type GenerationResult struct {
	Images      []GeneratedImage `json:"images"`
	Model       string           `json:"model"`
	Prompt      string           `json:"prompt"`
	AspectRatio string           `json:"aspectRatio"`
	Timestamp   string           `json:"timestamp"`
	Note        string           `json:"note,omitempty"`
	Placeholder string           `json:"placeholder,omitempty"`
}

// IsPlaceholder は、結果がプレースホルダーかどうかを返します
func (r GenerationResult) IsPlaceholder() bool {
	return r.Placeholder != ""
}

// ImageParameters は、Imagen の predict パラメータです
// 空文字列と nil の項目はリクエストに含めません
type ImageParameters struct {
	SafetyFilterLevel string
	PersonGeneration  string
	AddWatermark      *bool
}

// ImageCall は、1回の predict 呼び出しを表します
type ImageCall struct {
	Model       string
	Prompt      string
	AspectRatio string
	SampleCount int
	Parameters  ImageParameters
}

// NewPlaceholderResult は、すべてのモデルが失敗した場合に返す結果を作成します
func NewPlaceholderResult(req ValidatedGenerationRequest, now time.Time) GenerationResult {
	placeholder := PlaceholderURL(req.Prompt.Content)
	return GenerationResult{
		Images: []GeneratedImage{{
			Index:    0,
			MimeType: "image/png",
			ImageURL: placeholder,
		}},
		Model:       PlaceholderModel,
		Prompt:      req.Prompt.Content,
		AspectRatio: req.AspectRatio.String(),
		Timestamp:   FormatTimestamp(now),
		Note:        "すべての画像モデルが失敗したため、プレースホルダー画像を返しています",
		Placeholder: placeholder,
	}
}

// PlaceholderURL は、プロンプトの先頭30文字を埋め込んだプレースホルダー画像のURLを返します
func PlaceholderURL(prompt string) string {
	return "https://placehold.co/800x450/1a5fb4/ffffff?text=" + encodeURIComponent(Truncate(prompt, 30))
}

// FormatTimestamp は、UTCのISO-8601形式で時刻を返します
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// uriComponentUnescaper は、QueryEscape がエスケープするが URI コンポーネントでは不要な文字を戻します
var uriComponentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeURIComponent(s string) string {
	return uriComponentUnescaper.Replace(url.QueryEscape(s))
}
