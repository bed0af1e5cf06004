package application

import (
	"context"
	"time"

	"ecomindsx/internal/domain"
	"ecomindsx/internal/infrastructure/config"
)

// ModelSet は、ヘルスチェックで報告するモデル名の一覧です
type ModelSet struct {
	Primary  string `json:"primary"`
	Fallback string `json:"fallback"`
	Text     string `json:"text"`
}

// CredentialStatus は、認証情報の状態です
type CredentialStatus struct {
	Email string `json:"email"`
	Valid bool   `json:"valid"`
}

// HealthReport は、ヘルスチェックの結果です
type HealthReport struct {
	Status      string           `json:"status"`
	Project     string           `json:"project"`
	Location    string           `json:"location"`
	Models      ModelSet         `json:"models"`
	Credentials CredentialStatus `json:"credentials"`
	Timestamp   string           `json:"timestamp"`
	Message     string           `json:"message"`
}

// HealthService は、設定とトークン取得の可否を報告するサービスです
type HealthService struct {
	accounts AccountProvider
	vertex   config.VertexConfig
	models   ModelSet
	now      func() time.Time
}

// NewHealthService は新しいHealthServiceインスタンスを作成します
func NewHealthService(accounts AccountProvider, vertex config.VertexConfig, imagen config.ImagenConfig, gemini config.GeminiConfig) *HealthService {
	return &HealthService{
		accounts: accounts,
		vertex:   vertex,
		models: ModelSet{
			Primary:  imagen.PrimaryModel,
			Fallback: imagen.FallbackModel,
			Text:     gemini.TextModel,
		},
		now: time.Now,
	}
}

// Check は、アクセストークンを実際に取得して接続性を確認します
func (s *HealthService) Check(ctx context.Context) (HealthReport, error) {
	if _, err := s.accounts.AccessToken(ctx); err != nil {
		return HealthReport{}, err
	}

	key, err := s.accounts.Account()
	if err != nil {
		return HealthReport{}, err
	}

	return HealthReport{
		Status:      "healthy",
		Project:     s.vertex.ProjectID,
		Location:    s.vertex.Location,
		Models:      s.models,
		Credentials: CredentialStatus{Email: key.ClientEmail, Valid: true},
		Timestamp:   domain.FormatTimestamp(s.now()),
		Message:     "Vertex AI に接続できます",
	}, nil
}
