package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecomindsx/internal/domain"
	"ecomindsx/internal/infrastructure/config"

	"cloud.google.com/go/auth"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/genai"
)

// emptyAnalysis は、応答にテキストが含まれない場合に返す値です
const emptyAnalysis = "{}"

// contentGenerator は、genai.Models のうちテキスト生成に使うメソッドです
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// generatorFactory は、アクセストークンから contentGenerator を作成します
type generatorFactory func(ctx context.Context, token string) (contentGenerator, error)

// GeminiAPIClient は、Vertex AI 上の Gemini とテキスト生成の通信を行うクライアントです
type GeminiAPIClient struct {
	config       config.GeminiConfig
	timeout      time.Duration
	newGenerator generatorFactory
}

// NewGeminiAPIClient は新しいGeminiAPIClientインスタンスを作成します
func NewGeminiAPIClient(vertexConfig config.VertexConfig, geminiConfig config.GeminiConfig) *GeminiAPIClient {
	return &GeminiAPIClient{
		config:       geminiConfig,
		timeout:      vertexConfig.Timeout,
		newGenerator: vertexGeneratorFactory(vertexConfig),
	}
}

// vertexGeneratorFactory は、Vertex AI バックエンドの genai クライアントを呼び出しごとに作成します
// トークンは呼び出し元から渡され、クライアント間で共有しません
func vertexGeneratorFactory(vc config.VertexConfig) generatorFactory {
	return func(ctx context.Context, token string) (contentGenerator, error) {
		clientConfig := &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  vc.ProjectID,
			Location: vc.Location,
			Credentials: auth.NewCredentials(&auth.CredentialsOptions{
				TokenProvider: staticTokenProvider(token),
			}),
			HTTPClient: oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: token,
				TokenType:   "Bearer",
			})),
			HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
		}
		if vc.Endpoint != "" {
			clientConfig.HTTPOptions.BaseURL = strings.TrimSuffix(vc.Endpoint, "/") + "/"
		}

		client, err := genai.NewClient(ctx, clientConfig)
		if err != nil {
			return nil, fmt.Errorf("Gemini APIクライアントの作成に失敗: %w", err)
		}
		return client.Models, nil
	}
}

// staticTokenProvider は、取得済みのトークンをそのまま返す auth.TokenProvider です
type staticTokenProvider string

func (s staticTokenProvider) Token(context.Context) (*auth.Token, error) {
	return &auth.Token{Value: string(s), Type: "Bearer"}, nil
}

// createGenerateConfig は、生成設定を作成します
func (g *GeminiAPIClient) createGenerateConfig() *genai.GenerateContentConfig {
	temperature := g.config.Temperature
	return &genai.GenerateContentConfig{
		MaxOutputTokens: g.config.MaxTokens,
		Temperature:     &temperature,
	}
}

// Model は、テキスト生成に使うモデル名を返します
func (g *GeminiAPIClient) Model() string {
	return g.config.TextModel
}

// GenerateText は、プロンプトを受け取って最初の候補のテキストを返します
func (g *GeminiAPIClient) GenerateText(ctx context.Context, token string, prompt domain.Prompt) (string, error) {
	log.WithFields(log.Fields{
		"model":  g.config.TextModel,
		"prompt": prompt.ForLog(),
	}).Info("Gemini APIにテキスト生成をリクエスト中")

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	generator, err := g.newGenerator(ctx, token)
	if err != nil {
		return "", err
	}

	resp, err := generator.GenerateContent(ctx, g.config.TextModel, genai.Text(prompt.Content), g.createGenerateConfig())
	if err != nil {
		return "", g.classifyError(err)
	}

	return g.processResponse(resp), nil
}

// classifyError は、genai のエラーを UpstreamError に変換します
func (g *GeminiAPIClient) classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{Model: g.config.TextModel, Status: apiErr.Code, Body: domain.Truncate(apiErr.Message, 500)}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &domain.UpstreamError{Model: g.config.TextModel, Status: apiErrPtr.Code, Body: domain.Truncate(apiErrPtr.Message, 500)}
	}
	// ステータスのない通信エラー
	return &domain.UpstreamError{Model: g.config.TextModel, Err: err}
}

// processResponse は、最初の候補の最初のテキストパートを取り出します
func (g *GeminiAPIClient) processResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		log.Warn("Gemini APIの応答に候補がありません")
		return emptyAnalysis
	}

	candidate := resp.Candidates[0]
	log.Debugf("Candidate詳細: FinishReason=%s", candidate.FinishReason)
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return emptyAnalysis
	}

	part := candidate.Content.Parts[0]
	if part == nil || part.Text == "" {
		return emptyAnalysis
	}

	log.Infof("Gemini APIから応答を取得: %d文字", len([]rune(part.Text)))
	return part.Text
}
