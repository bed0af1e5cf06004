package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ecomindsx/configs"
	"ecomindsx/internal/application"
	"ecomindsx/internal/domain"
	"ecomindsx/internal/infrastructure/gcp"
	"ecomindsx/internal/infrastructure/gemini"
	"ecomindsx/internal/infrastructure/logging"
	"ecomindsx/internal/infrastructure/vertex"
	"ecomindsx/internal/presentation/api"
	discordPres "ecomindsx/internal/presentation/discord"

	log "github.com/sirupsen/logrus"
)

func main() {
	// 設定を読み込み
	cfg, err := configs.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	if err := logging.Setup(cfg.Server.LogLevel); err != nil {
		log.Fatalf("ログの設定に失敗: %v", err)
	}

	log.Info("EcoMindsX Vertex AI リレーを起動中...")

	// 認証情報を読み込み
	credentials := gcp.NewCredentialProvider(
		cfg.Vertex.CredentialsFile,
		gcp.WithTokenURL(cfg.Vertex.TokenURL),
		gcp.WithTimeout(cfg.Vertex.Timeout),
	)
	projectID, account, err := resolveProjectID(cfg.Vertex.ProjectID, credentials)
	if err != nil {
		log.Fatal(err)
	}
	cfg.Vertex.ProjectID = projectID

	log.WithFields(log.Fields{
		"project":        cfg.Vertex.ProjectID,
		"location":       cfg.Vertex.Location,
		"client_email":   account.ClientEmail,
		"key_id":         account.KeyIDPrefix(),
		"primary_model":  cfg.Imagen.PrimaryModel,
		"fallback_model": cfg.Imagen.FallbackModel,
		"text_model":     cfg.Gemini.TextModel,
	}).Info("Vertex AI の設定を読み込みました")

	// クライアントを作成
	predictClient := vertex.NewPredictClient(cfg.Vertex, &http.Client{})
	geminiClient := gemini.NewGeminiAPIClient(cfg.Vertex, cfg.Gemini)

	// アプリケーションサービスを作成
	imageService := application.NewImageGenerationService(credentials, predictClient, cfg.Imagen)
	textService := application.NewTextGenerationService(credentials, geminiClient)
	healthService := application.NewHealthService(credentials, cfg.Vertex, cfg.Imagen, cfg.Gemini)

	// HTTPサーバーを起動
	server := api.NewServer(cfg.Server, api.NewHandler(imageService, textService, healthService))
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Discord Botを起動（トークンが設定されている場合のみ）
	var bot *discordPres.DiscordHandler
	if cfg.Discord.Enabled() {
		bot, err = discordPres.NewDiscordHandler(cfg.Discord.BotToken, cfg.Discord.GuildID, imageService, textService)
		if err == nil {
			err = bot.Start()
		}
		if err != nil {
			log.Errorf("Discord Botの起動に失敗しました。HTTP APIのみで継続します: %v", err)
			bot = nil
		}
	}

	// シグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Infof("終了シグナル %s を受信しました。停止中...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Fatalf("HTTPサーバーが異常終了しました: %v", err)
		}
	}

	// クリーンアップ
	if bot != nil {
		if err := bot.Close(); err != nil {
			log.Warn(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Errorf("サーバーの停止に失敗: %v", err)
	}

	log.Info("正常に停止しました")
}

// resolveProjectID は、使用するプロジェクトIDを決定します
// キーファイルを読み込めない場合も VERTEX_PROJECT_ID があれば起動を続け、
// 認証エラーはリクエストごとに報告します
func resolveProjectID(configured string, accounts application.AccountProvider) (string, domain.ServiceAccount, error) {
	account, err := accounts.Account()
	if err != nil {
		if configured == "" {
			return "", domain.ServiceAccount{}, fmt.Errorf("キーファイルを読み込めず、VERTEX_PROJECT_ID も設定されていません: %w", err)
		}
		log.Warnf("キーファイルを読み込めません。リクエストごとに認証エラーを返します: %v", err)
		return configured, domain.ServiceAccount{}, nil
	}

	if configured != "" {
		return configured, account, nil
	}
	if account.ProjectID == "" {
		return "", account, fmt.Errorf("VERTEX_PROJECT_ID が設定されておらず、キーファイルにも project_id がありません")
	}
	return account.ProjectID, account, nil
}
