package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// DiscordMessageLimit は、Discordのメッセージ長制限です
const DiscordMessageLimit = 2000

// DiscordHandler は、Discordセッションとスラッシュコマンドハンドラーをまとめます
type DiscordHandler struct {
	session             *discordgo.Session
	slashCommandHandler *SlashCommandHandler
}

// NewDiscordHandler は新しいDiscordHandlerインスタンスを作成します
func NewDiscordHandler(botToken, guildID string, images ImageGenerator, text TextAnalyzer) (*DiscordHandler, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("Discordセッションの作成に失敗: %w", err)
	}

	return &DiscordHandler{
		session:             session,
		slashCommandHandler: NewSlashCommandHandler(session, images, text, guildID),
	}, nil
}

// Start は、ハンドラーを設定してDiscordに接続し、スラッシュコマンドを登録します
func (h *DiscordHandler) Start() error {
	h.slashCommandHandler.SetupSlashCommandHandlers()

	if err := h.session.Open(); err != nil {
		return fmt.Errorf("Discordへの接続に失敗: %w", err)
	}

	if err := h.slashCommandHandler.SetupSlashCommands(); err != nil {
		_ = h.session.Close()
		return err
	}

	log.Info("Discordに接続しました。利用可能なコマンド: /render, /analyze")
	return nil
}

// Close は、Discordセッションを閉じます
func (h *DiscordHandler) Close() error {
	if err := h.session.Close(); err != nil {
		return fmt.Errorf("Discordセッションのクローズに失敗: %w", err)
	}
	return nil
}
