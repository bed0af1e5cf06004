package application

import (
	"context"

	"ecomindsx/internal/domain"
)

// TokenProvider は、Vertex AI 用のアクセストークンを提供するインターフェースです
type TokenProvider interface {
	// AccessToken は、呼び出しごとに新しいベアラートークンを返します
	AccessToken(ctx context.Context) (string, error)
}

// AccountProvider は、トークンに加えてサービスアカウントの情報も提供するインターフェースです
type AccountProvider interface {
	TokenProvider
	Account() (domain.ServiceAccount, error)
}

// ImagePredictor は、Imagen の predict を1回実行するクライアントのインターフェースです
type ImagePredictor interface {
	// Predict は、予測ごとの base64 画像データを上流の順序で返します
	Predict(ctx context.Context, token string, call domain.ImageCall) ([]string, error)
}

// TextGenerator は、Gemini でテキストを生成するクライアントのインターフェースです
type TextGenerator interface {
	GenerateText(ctx context.Context, token string, prompt domain.Prompt) (string, error)
	Model() string
}
