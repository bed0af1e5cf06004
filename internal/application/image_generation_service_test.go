package application

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"ecomindsx/internal/domain"
	"ecomindsx/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	primaryModel  = "imagen-3.0-fast-generate-001"
	fallbackModel = "imagen-3.0-generate-001"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newImageService(tokens *mockTokenProvider, predictor *mockPredictor) *ImageGenerationService {
	s := NewImageGenerationService(tokens, predictor, config.DefaultImagenConfig())
	s.now = func() time.Time { return fixedNow }
	return s
}

func upstream(model string, status int) error {
	return &domain.UpstreamError{Model: model, Status: status, Body: `{"error":"x"}`}
}

func TestImageGenerationService_PrimarySuccess(t *testing.T) {
	tokens := &mockTokenProvider{token: "tok"}
	predictor := &mockPredictor{results: map[string]predictResult{
		primaryModel: {images: []string{"AAA=", "BBB="}},
	}}
	s := newImageService(tokens, predictor)

	result, err := s.GenerateImage(context.Background(), domain.GenerationRequest{
		Prompt:      "  A cozy reading nook with a large window  ",
		AspectRatio: "4:3",
		ImageCount:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, primaryModel, result.Model)
	assert.Equal(t, "A cozy reading nook with a large window", result.Prompt)
	assert.Equal(t, "4:3", result.AspectRatio)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", result.Timestamp)
	assert.Empty(t, result.Note)
	assert.False(t, result.IsPlaceholder())
	require.Len(t, result.Images, 2)
	assert.Equal(t, 1, result.Images[1].Index)
	assert.Equal(t, "data:image/png;base64,BBB=", result.Images[1].ImageURL)

	require.Len(t, predictor.calls, 1)
	call := predictor.calls[0]
	assert.Equal(t, 2, call.SampleCount)
	assert.Equal(t, "block_some", call.Parameters.SafetyFilterLevel)
	assert.Equal(t, "allow_adult", call.Parameters.PersonGeneration)
	require.NotNil(t, call.Parameters.AddWatermark)
	assert.False(t, *call.Parameters.AddWatermark)
}

func TestImageGenerationService_ValidationSkipsUpstream(t *testing.T) {
	prompts := []string{"", "abc", "    ", " abcd "}

	for _, prompt := range prompts {
		t.Run(prompt, func(t *testing.T) {
			tokens := &mockTokenProvider{token: "tok"}
			predictor := &mockPredictor{}
			s := newImageService(tokens, predictor)

			_, err := s.GenerateImage(context.Background(), domain.GenerationRequest{Prompt: prompt})

			var validationErr *domain.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, 0, tokens.calls)
			assert.Empty(t, predictor.calls)
		})
	}
}

func TestImageGenerationService_FallbackOnEligibleStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusBadRequest} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			tokens := &mockTokenProvider{token: "tok"}
			predictor := &mockPredictor{results: map[string]predictResult{
				primaryModel:  {err: upstream(primaryModel, status)},
				fallbackModel: {images: []string{"CCC="}},
			}}
			s := newImageService(tokens, predictor)

			result, err := s.GenerateImage(context.Background(), domain.GenerationRequest{
				Prompt:     "A cozy reading nook with a large window",
				ImageCount: 3,
			})
			require.NoError(t, err)

			assert.Equal(t, fallbackModel, result.Model)
			assert.NotEmpty(t, result.Note)
			require.Len(t, result.Images, 1)
			assert.Equal(t, "CCC=", result.Images[0].Base64)

			require.Len(t, predictor.calls, 2)
			fallbackCall := predictor.calls[1]
			assert.Equal(t, 1, fallbackCall.SampleCount)
			assert.Equal(t, "block_some", fallbackCall.Parameters.SafetyFilterLevel)
			assert.Empty(t, fallbackCall.Parameters.PersonGeneration)
			assert.Nil(t, fallbackCall.Parameters.AddWatermark)
			assert.Equal(t, 2, tokens.calls)
		})
	}
}

func TestImageGenerationService_NonEligibleFailureSurfaces(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "権限エラー", err: upstream(primaryModel, http.StatusForbidden)},
		{name: "レート制限", err: upstream(primaryModel, http.StatusTooManyRequests)},
		{name: "サーバーエラー", err: upstream(primaryModel, http.StatusInternalServerError)},
		{name: "不正な応答", err: &domain.UpstreamError{Model: primaryModel, Status: 500, Malformed: true}},
		{name: "通信エラー", err: &domain.UpstreamError{Model: primaryModel, Err: errors.New("connection reset")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predictor := &mockPredictor{results: map[string]predictResult{
				primaryModel:  {err: tt.err},
				fallbackModel: {images: []string{"CCC="}},
			}}
			s := newImageService(&mockTokenProvider{token: "tok"}, predictor)

			_, err := s.GenerateImage(context.Background(), domain.GenerationRequest{Prompt: "A cozy reading nook"})

			assert.ErrorIs(t, err, tt.err)
			require.Len(t, predictor.calls, 1, "フォールバックは呼ばれないべきです")
		})
	}
}

func TestImageGenerationService_AuthFailureSurfaces(t *testing.T) {
	authErr := &domain.AuthError{Err: errors.New("invalid_grant")}
	predictor := &mockPredictor{}
	s := newImageService(&mockTokenProvider{err: authErr}, predictor)

	_, err := s.GenerateImage(context.Background(), domain.GenerationRequest{Prompt: "A cozy reading nook"})

	var got *domain.AuthError
	require.True(t, errors.As(err, &got))
	assert.Empty(t, predictor.calls)
}

func TestImageGenerationService_PlaceholderWhenAllFail(t *testing.T) {
	fallbackErrors := []error{
		upstream(fallbackModel, http.StatusInternalServerError),
		upstream(fallbackModel, http.StatusNotFound),
		&domain.UpstreamError{Model: fallbackModel, Status: 500, Malformed: true},
	}

	for _, fallbackErr := range fallbackErrors {
		t.Run(fallbackErr.Error(), func(t *testing.T) {
			predictor := &mockPredictor{results: map[string]predictResult{
				primaryModel:  {err: upstream(primaryModel, http.StatusNotFound)},
				fallbackModel: {err: fallbackErr},
			}}
			s := newImageService(&mockTokenProvider{token: "tok"}, predictor)

			result, err := s.GenerateImage(context.Background(), domain.GenerationRequest{Prompt: "A cozy reading nook with a large window"})
			require.NoError(t, err)

			assert.True(t, result.IsPlaceholder())
			assert.Equal(t, domain.PlaceholderModel, result.Model)
			assert.True(t, strings.HasPrefix(result.Placeholder, "https://placehold.co/800x450/1a5fb4/ffffff?text="))
			assert.Contains(t, result.Placeholder, "A%20cozy%20reading%20nook")
			assert.Len(t, predictor.calls, 2)
		})
	}
}

func TestImageGenerationService_FallbackTokenFailureBecomesPlaceholder(t *testing.T) {
	tokens := &sequenceTokenProvider{errs: []error{nil, &domain.AuthError{Err: errors.New("expired")}}}
	predictor := &mockPredictor{results: map[string]predictResult{
		primaryModel: {err: upstream(primaryModel, http.StatusNotFound)},
	}}
	s := NewImageGenerationService(tokens, predictor, config.DefaultImagenConfig())

	result, err := s.GenerateImage(context.Background(), domain.GenerationRequest{Prompt: "A cozy reading nook"})
	require.NoError(t, err)
	assert.True(t, result.IsPlaceholder())
	assert.Len(t, predictor.calls, 1)
}

func TestShouldFallback(t *testing.T) {
	assert.True(t, ShouldFallback(upstream(primaryModel, 404)))
	assert.True(t, ShouldFallback(upstream(primaryModel, 400)))
	assert.False(t, ShouldFallback(upstream(primaryModel, 403)))
	assert.False(t, ShouldFallback(&domain.UpstreamError{Status: 400, Malformed: true}))
	assert.False(t, ShouldFallback(&domain.AuthError{Err: errors.New("x")}))
	assert.False(t, ShouldFallback(errors.New("x")))
}

// sequenceTokenProvider は、呼び出しごとに異なるエラーを返すトークンプロバイダです
type sequenceTokenProvider struct {
	errs  []error
	calls int
}

func (s *sequenceTokenProvider) AccessToken(ctx context.Context) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return "tok", nil
}
