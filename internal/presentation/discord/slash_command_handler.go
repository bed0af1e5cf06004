package discord

import (
	"context"
	"fmt"
	"time"

	"ecomindsx/internal/application"
	"ecomindsx/internal/domain"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// ImageGenerator は、画像生成サービスのインターフェースです
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

// TextAnalyzer は、テキスト生成サービスのインターフェースです
type TextAnalyzer interface {
	GenerateText(ctx context.Context, prompt string) (application.TextResult, error)
}

// commandTimeout は、1回のコマンド処理全体のタイムアウトです
const commandTimeout = 2 * time.Minute

// SlashCommandHandler は、Discordのスラッシュコマンドを処理するハンドラーです
type SlashCommandHandler struct {
	session         *discordgo.Session
	images          ImageGenerator
	text            TextAnalyzer
	responseHandler *ResponseHandler
	guildID         string
}

// NewSlashCommandHandler は新しいSlashCommandHandlerインスタンスを作成します
func NewSlashCommandHandler(session *discordgo.Session, images ImageGenerator, text TextAnalyzer, guildID string) *SlashCommandHandler {
	return &SlashCommandHandler{
		session:         session,
		images:          images,
		text:            text,
		responseHandler: NewResponseHandler(),
		guildID:         guildID,
	}
}

// commands は、登録するスラッシュコマンドの定義を返します
func commands() []*discordgo.ApplicationCommand {
	var ratioChoices []*discordgo.ApplicationCommandOptionChoice
	for _, ratio := range domain.AllAspectRatios() {
		ratioChoices = append(ratioChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  ratio.DisplayName(),
			Value: ratio.String(),
		})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "render",
			Description: "部屋の説明からイメージ画像を生成します",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "prompt",
					Description: "部屋の説明（5文字以上）",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "aspect-ratio",
					Description: "アスペクト比",
					Required:    false,
					Choices:     ratioChoices,
				},
			},
		},
		{
			Name:        "analyze",
			Description: "Gemini でテキストを分析します",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "prompt",
					Description: "分析したい内容（5文字以上）",
					Required:    true,
				},
			},
		},
	}
}

// SetupSlashCommands は、スラッシュコマンドを登録します
func (h *SlashCommandHandler) SetupSlashCommands() error {
	user, err := h.session.User("@me")
	if err != nil {
		return fmt.Errorf("Botユーザー情報の取得に失敗: %w", err)
	}

	for _, command := range commands() {
		if _, err := h.session.ApplicationCommandCreate(user.ID, h.guildID, command); err != nil {
			return fmt.Errorf("スラッシュコマンド %s の登録に失敗: %w", command.Name, err)
		}
		log.Infof("スラッシュコマンド /%s を登録しました", command.Name)
	}
	return nil
}

// SetupSlashCommandHandlers は、スラッシュコマンドのハンドラーを設定します
func (h *SlashCommandHandler) SetupSlashCommandHandlers() {
	h.session.AddHandler(h.handleInteractionCreate)
}

// handleInteractionCreate は、インタラクション作成イベントを処理します
func (h *SlashCommandHandler) handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	switch data.Name {
	case "render":
		req := renderRequest(data.Options)
		h.deferAndRun(s, i, func(ctx context.Context) []*discordgo.WebhookParams {
			result, err := h.images.GenerateImage(ctx, req)
			if err != nil {
				return []*discordgo.WebhookParams{{Content: h.responseHandler.formatError(err)}}
			}
			return h.responseHandler.imageMessages(result)
		})
	case "analyze":
		prompt := optionString(data.Options, "prompt")
		h.deferAndRun(s, i, func(ctx context.Context) []*discordgo.WebhookParams {
			result, err := h.text.GenerateText(ctx, prompt)
			if err != nil {
				return []*discordgo.WebhookParams{{Content: h.responseHandler.formatError(err)}}
			}
			return h.responseHandler.textMessages(result.Text)
		})
	default:
		log.Warnf("未知のスラッシュコマンド: %s", data.Name)
	}
}

// deferAndRun は、考え中の応答を返してから処理を実行し、結果をフォローアップで送信します
func (h *SlashCommandHandler) deferAndRun(s *discordgo.Session, i *discordgo.InteractionCreate, run func(ctx context.Context) []*discordgo.WebhookParams) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Errorf("インタラクションへの応答に失敗: %v", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		for _, msg := range run(ctx) {
			if _, err := s.FollowupMessageCreate(i.Interaction, true, msg); err != nil {
				log.Errorf("フォローアップメッセージの送信に失敗: %v", err)
				return
			}
		}
	}()
}

// renderRequest は、/render のオプションから画像生成リクエストを作成します
func renderRequest(options []*discordgo.ApplicationCommandInteractionDataOption) domain.GenerationRequest {
	return domain.GenerationRequest{
		Prompt:      optionString(options, "prompt"),
		AspectRatio: optionString(options, "aspect-ratio"),
		ImageCount:  1,
	}
}

// optionString は、名前でオプションを探して文字列値を返します
func optionString(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}
