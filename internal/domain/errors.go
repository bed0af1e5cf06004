package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ドメイン固有のエラー型を定義
var (
	// ErrInvalidPrompt は、無効なプロンプトの場合のエラーです
	ErrInvalidPrompt = errors.New("無効なプロンプトです")

	// ErrInvalidAspectRatio は、サポートされていないアスペクト比の場合のエラーです
	ErrInvalidAspectRatio = errors.New("サポートされていないアスペクト比です")

	// ErrInvalidImageCount は、画像枚数が範囲外の場合のエラーです
	ErrInvalidImageCount = errors.New("画像枚数が範囲外です")

	// ErrNoPredictions は、上流の応答に画像が含まれていない場合のエラーです
	ErrNoPredictions = errors.New("応答に画像が含まれていません")
)

// ErrorKind は、ブラウザに返すエラー分類です
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindAuth       ErrorKind = "auth"
	ErrorKindUpstream   ErrorKind = "upstream"
	ErrorKindInternal   ErrorKind = "internal"
)

// ValidationError は、リクエストの検証に失敗した場合のエラーです
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AuthError は、認証情報の読み込みまたはトークン取得に失敗した場合のエラーです
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("Vertex AI の認証に失敗しました: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// UpstreamError は、Vertex AI がエラーを返した、または応答が解釈できなかった場合のエラーです
// Status が0の場合は通信自体に失敗しています
type UpstreamError struct {
	Model     string
	Status    int
	Body      string
	Malformed bool
	Err       error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "モデル %s の呼び出しに失敗しました", e.Model)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	} else if e.Body != "" {
		fmt.Fprintf(&b, ": %s", Truncate(e.Body, 200))
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// AllModelsFailedError は、すべての試行が失敗した場合のエラーです
// 画像生成ではプレースホルダー結果に変換され、呼び出し元には返りません
type AllModelsFailedError struct {
	Attempts []error
}

func (e *AllModelsFailedError) Error() string {
	msgs := make([]string, 0, len(e.Attempts))
	for _, err := range e.Attempts {
		msgs = append(msgs, err.Error())
	}
	return "すべてのモデルで画像生成に失敗しました: " + strings.Join(msgs, "; ")
}

func (e *AllModelsFailedError) Unwrap() []error { return e.Attempts }

// KindOf は、エラーをブラウザ向けの分類に変換します
func KindOf(err error) ErrorKind {
	var validationErr *ValidationError
	var authErr *AuthError
	var upstreamErr *UpstreamError
	switch {
	case errors.As(err, &validationErr):
		return ErrorKindValidation
	case errors.As(err, &authErr):
		return ErrorKindAuth
	case errors.As(err, &upstreamErr):
		return ErrorKindUpstream
	default:
		return ErrorKindInternal
	}
}
