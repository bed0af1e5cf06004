package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ecomindsx/internal/domain"
	"ecomindsx/internal/infrastructure/config"

	log "github.com/sirupsen/logrus"
)

// ImageAttempt は、画像生成の1回の試行を表します
type ImageAttempt struct {
	Model string
	// SampleCount が0の場合はリクエストされた枚数を使います
	SampleCount int
	Parameters  domain.ImageParameters
	Note        string
}

// FallbackPredicate は、最初の試行の失敗後に次の試行へ進むかどうかを判定します
type FallbackPredicate func(err error) bool

// ShouldFallback は、上流が400または404を返した場合のみ true を返します
func ShouldFallback(err error) bool {
	var upstreamErr *domain.UpstreamError
	if !errors.As(err, &upstreamErr) || upstreamErr.Malformed {
		return false
	}
	return upstreamErr.Status == http.StatusBadRequest || upstreamErr.Status == http.StatusNotFound
}

// DefaultImageAttempts は、高速モデルから通常モデルへの試行順を返します
func DefaultImageAttempts(cfg config.ImagenConfig) []ImageAttempt {
	watermark := false
	return []ImageAttempt{
		{
			Model: cfg.PrimaryModel,
			Parameters: domain.ImageParameters{
				SafetyFilterLevel: cfg.SafetyFilterLevel,
				PersonGeneration:  cfg.PersonGeneration,
				AddWatermark:      &watermark,
			},
		},
		{
			Model:       cfg.FallbackModel,
			SampleCount: 1,
			Parameters: domain.ImageParameters{
				SafetyFilterLevel: cfg.SafetyFilterLevel,
			},
			Note: fmt.Sprintf("高速モデルが利用できないため %s を使用しました", cfg.FallbackModel),
		},
	}
}

// ImageGenerationService は、画像生成に関するビジネスロジックを担当するサービスです
type ImageGenerationService struct {
	tokens         TokenProvider
	predictor      ImagePredictor
	attempts       []ImageAttempt
	shouldFallback FallbackPredicate
	maxImages      int
	now            func() time.Time
}

// NewImageGenerationService は新しいImageGenerationServiceインスタンスを作成します
func NewImageGenerationService(tokens TokenProvider, predictor ImagePredictor, cfg config.ImagenConfig) *ImageGenerationService {
	return &ImageGenerationService{
		tokens:         tokens,
		predictor:      predictor,
		attempts:       DefaultImageAttempts(cfg),
		shouldFallback: ShouldFallback,
		maxImages:      cfg.MaxImages,
		now:            time.Now,
	}
}

// GenerateImage は、プロンプトから画像を生成します
// 最初の試行が対象外のエラーで失敗した場合はそのエラーを返し、
// フォールバックを含むすべての試行が失敗した場合はプレースホルダー結果を返します
func (s *ImageGenerationService) GenerateImage(ctx context.Context, request domain.GenerationRequest) (domain.GenerationResult, error) {
	req, err := request.Validate(s.maxImages)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	logger := log.WithFields(log.Fields{
		"prompt":       req.Prompt.ForLog(),
		"aspect_ratio": req.AspectRatio.String(),
		"count":        req.ImageCount,
	})

	var failures []error
	for i, attempt := range s.attempts {
		entry := logger.WithFields(log.Fields{"stage": attemptStage(i), "model": attempt.Model})
		entry.Info("画像生成を開始します")

		result, err := s.runAttempt(ctx, req, attempt)
		if err == nil {
			if i > 0 {
				result.Note = attempt.Note
			}
			entry.WithField("images", len(result.Images)).Info("画像生成に成功しました")
			return result, nil
		}

		entry.WithFields(upstreamFields(err)).Warnf("画像生成に失敗しました: %v", err)
		failures = append(failures, err)

		if i == 0 && !s.shouldFallback(err) {
			return domain.GenerationResult{}, err
		}
		if i+1 < len(s.attempts) {
			logger.WithField("next_model", s.attempts[i+1].Model).Info("フォールバックモデルで再試行します")
		}
	}

	allErr := &domain.AllModelsFailedError{Attempts: failures}
	logger.WithField("stage", "placeholder").Errorf("プレースホルダー画像を返します: %v", allErr)
	return domain.NewPlaceholderResult(req, s.now()), nil
}

// runAttempt は、トークンを取得して1回の predict を実行します
func (s *ImageGenerationService) runAttempt(ctx context.Context, req domain.ValidatedGenerationRequest, attempt ImageAttempt) (domain.GenerationResult, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	count := attempt.SampleCount
	if count == 0 {
		count = req.ImageCount
	}

	images, err := s.predictor.Predict(ctx, token, domain.ImageCall{
		Model:       attempt.Model,
		Prompt:      req.Prompt.Content,
		AspectRatio: req.AspectRatio.String(),
		SampleCount: count,
		Parameters:  attempt.Parameters,
	})
	if err != nil {
		return domain.GenerationResult{}, err
	}

	generated := make([]domain.GeneratedImage, 0, len(images))
	for i, b64 := range images {
		generated = append(generated, domain.NewGeneratedImage(i, b64))
	}

	return domain.GenerationResult{
		Images:      generated,
		Model:       attempt.Model,
		Prompt:      req.Prompt.Content,
		AspectRatio: req.AspectRatio.String(),
		Timestamp:   domain.FormatTimestamp(s.now()),
	}, nil
}

func attemptStage(i int) string {
	if i == 0 {
		return "primary"
	}
	return "fallback"
}

// upstreamFields は、ログ出力用に上流エラーのステータスと本文を取り出します
func upstreamFields(err error) log.Fields {
	var upstreamErr *domain.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return log.Fields{}
	}
	return log.Fields{
		"status": upstreamErr.Status,
		"body":   domain.Truncate(upstreamErr.Body, 200),
	}
}
