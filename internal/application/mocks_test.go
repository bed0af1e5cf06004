package application

import (
	"context"

	"ecomindsx/internal/domain"
)

// mockTokenProvider は、TokenProvider と AccountProvider のモックです
type mockTokenProvider struct {
	token   string
	err     error
	account domain.ServiceAccount
	calls   int
}

func (m *mockTokenProvider) AccessToken(ctx context.Context) (string, error) {
	m.calls++
	return m.token, m.err
}

func (m *mockTokenProvider) Account() (domain.ServiceAccount, error) {
	return m.account, m.err
}

// predictResult は、mockPredictor がモデルごとに返す結果です
type predictResult struct {
	images []string
	err    error
}

// mockPredictor は、ImagePredictor のモックです
type mockPredictor struct {
	results map[string]predictResult
	calls   []domain.ImageCall
}

func (m *mockPredictor) Predict(ctx context.Context, token string, call domain.ImageCall) ([]string, error) {
	m.calls = append(m.calls, call)
	r := m.results[call.Model]
	return r.images, r.err
}

// mockTextGenerator は、TextGenerator のモックです
type mockTextGenerator struct {
	text       string
	err        error
	calls      int
	lastToken  string
	lastPrompt domain.Prompt
}

func (m *mockTextGenerator) GenerateText(ctx context.Context, token string, prompt domain.Prompt) (string, error) {
	m.calls++
	m.lastToken = token
	m.lastPrompt = prompt
	return m.text, m.err
}

func (m *mockTextGenerator) Model() string { return "gemini-1.5-flash-001" }
