package application

import (
	"context"

	"ecomindsx/internal/domain"

	log "github.com/sirupsen/logrus"
)

// TextResult は、テキスト生成の結果です
type TextResult struct {
	Text  string
	Model string
}

// TextGenerationService は、Gemini によるテキスト分析を中継するサービスです
type TextGenerationService struct {
	tokens    TokenProvider
	generator TextGenerator
}

// NewTextGenerationService は新しいTextGenerationServiceインスタンスを作成します
func NewTextGenerationService(tokens TokenProvider, generator TextGenerator) *TextGenerationService {
	return &TextGenerationService{
		tokens:    tokens,
		generator: generator,
	}
}

// GenerateText は、プロンプトを検証してからテキストを生成します
func (s *TextGenerationService) GenerateText(ctx context.Context, rawPrompt string) (TextResult, error) {
	prompt, err := domain.NewPrompt(rawPrompt)
	if err != nil {
		return TextResult{}, err
	}

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return TextResult{}, err
	}

	text, err := s.generator.GenerateText(ctx, token, prompt)
	if err != nil {
		log.WithFields(log.Fields{
			"prompt": prompt.ForLog(),
			"model":  s.generator.Model(),
		}).WithFields(upstreamFields(err)).Errorf("テキスト生成に失敗しました: %v", err)
		return TextResult{}, err
	}

	return TextResult{Text: text, Model: s.generator.Model()}, nil
}
