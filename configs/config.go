package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ecomindsx/internal/infrastructure/config"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config は、アプリケーション全体の設定を定義します
type Config struct {
	Vertex  config.VertexConfig  `yaml:"vertex"`
	Imagen  config.ImagenConfig  `yaml:"imagen"`
	Gemini  config.GeminiConfig  `yaml:"gemini"`
	Server  config.ServerConfig  `yaml:"server"`
	Discord config.DiscordConfig `yaml:"discord"`
}

// DefaultConfig は、すべての項目にデフォルト値を設定した Config を返します
func DefaultConfig() *Config {
	return &Config{
		Vertex: config.DefaultVertexConfig(),
		Imagen: config.DefaultImagenConfig(),
		Gemini: config.DefaultGeminiConfig(),
		Server: config.DefaultServerConfig(),
	}
}

// LoadConfig は、.env・YAMLファイル・環境変数の順に設定を読み込みます
func LoadConfig() (*Config, error) {
	// .envファイルを読み込み（ファイルが存在しない場合は無視）
	if err := godotenv.Load(); err != nil {
		log.Debugf(".envファイルを読み込みませんでした: %v", err)
	}

	cfg := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	// 必須設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadYAML は、YAMLファイルの内容で設定を上書きします
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
	}
	return nil
}

// applyEnv は、環境変数が設定されている項目だけを上書きします
func (c *Config) applyEnv() {
	c.Vertex.CredentialsFile = getEnvOrDefault("GOOGLE_APPLICATION_CREDENTIALS", c.Vertex.CredentialsFile)
	c.Vertex.ProjectID = getEnvOrDefault("VERTEX_PROJECT_ID", c.Vertex.ProjectID)
	c.Vertex.Location = getEnvOrDefault("VERTEX_LOCATION", c.Vertex.Location)
	c.Vertex.Endpoint = strings.TrimSuffix(getEnvOrDefault("VERTEX_ENDPOINT", c.Vertex.Endpoint), "/")
	c.Vertex.TokenURL = getEnvOrDefault("VERTEX_TOKEN_URL", c.Vertex.TokenURL)
	c.Vertex.Timeout = getEnvAsDurationOrDefault("UPSTREAM_TIMEOUT", c.Vertex.Timeout)

	c.Imagen.PrimaryModel = getEnvOrDefault("IMAGEN_PRIMARY_MODEL", c.Imagen.PrimaryModel)
	c.Imagen.FallbackModel = getEnvOrDefault("IMAGEN_FALLBACK_MODEL", c.Imagen.FallbackModel)
	c.Imagen.MaxImages = getEnvAsIntOrDefault("IMAGEN_MAX_IMAGES", c.Imagen.MaxImages)

	c.Gemini.TextModel = getEnvOrDefault("GEMINI_TEXT_MODEL", c.Gemini.TextModel)
	c.Gemini.Temperature = float32(getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", float64(c.Gemini.Temperature)))
	c.Gemini.MaxTokens = int32(getEnvAsIntOrDefault("GEMINI_MAX_TOKENS", int(c.Gemini.MaxTokens)))

	c.Server.Host = getEnvOrDefault("HOST", c.Server.Host)
	c.Server.Port = getEnvAsIntOrDefault("PORT", c.Server.Port)
	c.Server.Debug = getEnvAsBoolOrDefault("GIN_DEBUG", c.Server.Debug)
	c.Server.LogLevel = getEnvOrDefault("LOG_LEVEL", c.Server.LogLevel)
	c.Server.ShutdownTimeout = getEnvAsDurationOrDefault("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Discord.BotToken = getEnvOrDefault("DISCORD_BOT_TOKEN", c.Discord.BotToken)
	c.Discord.GuildID = getEnvOrDefault("DISCORD_GUILD_ID", c.Discord.GuildID)
}

// Validate は、設定の妥当性を検証します
func (c *Config) Validate() error {
	if c.Vertex.CredentialsFile == "" {
		return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS が設定されていません")
	}

	if c.Vertex.Location == "" {
		return fmt.Errorf("VERTEX_LOCATION が設定されていません")
	}

	if c.Vertex.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT は正の値である必要があります")
	}

	if c.Imagen.PrimaryModel == "" || c.Imagen.FallbackModel == "" {
		return fmt.Errorf("IMAGEN_PRIMARY_MODEL と IMAGEN_FALLBACK_MODEL は必須です")
	}

	if c.Imagen.MaxImages <= 0 {
		return fmt.Errorf("IMAGEN_MAX_IMAGES は正の整数である必要があります")
	}

	if c.Gemini.TextModel == "" {
		return fmt.Errorf("GEMINI_TEXT_MODEL が設定されていません")
	}

	if c.Gemini.MaxTokens <= 0 {
		return fmt.Errorf("GEMINI_MAX_TOKENS は正の整数である必要があります")
	}

	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		return fmt.Errorf("GEMINI_TEMPERATURE は0から2の間である必要があります")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT は1から65535の間である必要があります")
	}

	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL が不正です: %s", c.Server.LogLevel)
	}

	return nil
}

// getEnvOrDefault は、環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は、環境変数を整数として取得し、存在しない場合はデフォルト値を返します
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloatOrDefault は、環境変数を浮動小数点数として取得し、存在しない場合はデフォルト値を返します
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault は、環境変数を時間として取得し、存在しない場合はデフォルト値を返します
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault は、環境変数を真偽値として取得し、存在しない場合はデフォルト値を返します
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
