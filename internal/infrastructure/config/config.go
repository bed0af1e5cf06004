package config

import (
	"fmt"
	"time"
)

// VertexConfig は、Vertex AI への接続設定を定義します
type VertexConfig struct {
	CredentialsFile string        `yaml:"credentials-file"`
	ProjectID       string        `yaml:"project-id"`
	Location        string        `yaml:"location"`
	Endpoint        string        `yaml:"endpoint"`  // 空の場合はロケーションから導出
	TokenURL        string        `yaml:"token-url"` // 空の場合はキーファイルの token_uri を使用
	Timeout         time.Duration `yaml:"timeout"`   // 上流呼び出し1回あたりのタイムアウト
}

// BaseURL は、Vertex AI のベースURLを返します
func (c VertexConfig) BaseURL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return VertexBaseURL(c.Location)
}

// VertexBaseURL は、ロケーションに対応する Vertex AI のベースURLを返します
func VertexBaseURL(location string) string {
	if location == "" {
		location = "us-central1"
	}
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com", location)
}

// ImagenConfig は、Imagen 画像生成関連の設定を定義します
type ImagenConfig struct {
	PrimaryModel      string `yaml:"primary-model"`
	FallbackModel     string `yaml:"fallback-model"`
	SafetyFilterLevel string `yaml:"safety-filter-level"`
	PersonGeneration  string `yaml:"person-generation"`
	MaxImages         int    `yaml:"max-images"`
}

// GeminiConfig は、Gemini テキスト生成関連の設定を定義します
type GeminiConfig struct {
	TextModel   string  `yaml:"text-model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int32   `yaml:"max-tokens"`
}

// ServerConfig は、HTTPサーバー関連の設定を定義します
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Debug           bool          `yaml:"debug"`
	LogLevel        string        `yaml:"log-level"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
}

// Addr は、待ち受けアドレスを返します
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DiscordConfig は、Discord関連の設定を定義します
type DiscordConfig struct {
	BotToken string `yaml:"bot-token"`
	GuildID  string `yaml:"guild-id"` // 空の場合はグローバルコマンドとして登録
}

// Enabled は、Discord Bot を起動するかどうかを返します
func (c DiscordConfig) Enabled() bool {
	return c.BotToken != ""
}

// DefaultVertexConfig は、デフォルトの Vertex AI 設定を返します
func DefaultVertexConfig() VertexConfig {
	return VertexConfig{
		CredentialsFile: "./google-credentials.json",
		Location:        "us-central1",
		Timeout:         30 * time.Second,
	}
}

// DefaultImagenConfig は、デフォルトの Imagen 設定を返します
func DefaultImagenConfig() ImagenConfig {
	return ImagenConfig{
		PrimaryModel:      "imagen-3.0-fast-generate-001",
		FallbackModel:     "imagen-3.0-generate-001",
		SafetyFilterLevel: "block_some",
		PersonGeneration:  "allow_adult",
		MaxImages:         4,
	}
}

// DefaultGeminiConfig は、デフォルトの Gemini 設定を返します
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		TextModel:   "gemini-1.5-flash-001",
		Temperature: 0.7,
		MaxTokens:   2048,
	}
}

// DefaultServerConfig は、デフォルトのサーバー設定を返します
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            3001,
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
	}
}
