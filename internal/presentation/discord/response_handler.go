package discord

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"ecomindsx/internal/domain"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// ResponseHandler は、生成結果を Discord のメッセージに変換します
type ResponseHandler struct{}

// NewResponseHandler は新しいResponseHandlerインスタンスを作成します
func NewResponseHandler() *ResponseHandler {
	return &ResponseHandler{}
}

// imageMessages は、画像生成結果をフォローアップメッセージに変換します
// プレースホルダーの場合は画像を添付せずリンクのみを送ります
func (h *ResponseHandler) imageMessages(result domain.GenerationResult) []*discordgo.WebhookParams {
	header := fmt.Sprintf("🎨 **%s** (%s)\nモデル: `%s`", domain.Truncate(result.Prompt, 200), result.AspectRatio, result.Model)
	if result.Note != "" {
		header += "\n📝 " + result.Note
	}

	if result.IsPlaceholder() {
		return []*discordgo.WebhookParams{{
			Content: header + "\n⚠️ 画像を生成できなかったため、プレースホルダーを表示します\n" + result.Placeholder,
		}}
	}

	var files []*discordgo.File
	for _, img := range result.Images {
		data, err := base64.StdEncoding.DecodeString(img.Base64)
		if err != nil {
			log.Warnf("画像 %d のデコードに失敗しました: %v", img.Index, err)
			continue
		}
		files = append(files, &discordgo.File{
			Name:        fmt.Sprintf("ecomindsx_%d.png", img.Index+1),
			ContentType: img.MimeType,
			Reader:      bytes.NewReader(data),
		})
	}

	if len(files) == 0 {
		return []*discordgo.WebhookParams{{Content: header + "\n❌ 画像データを読み取れませんでした"}}
	}
	return []*discordgo.WebhookParams{{Content: header, Files: files}}
}

// textMessages は、テキスト生成結果を2000文字ごとのメッセージに変換します
func (h *ResponseHandler) textMessages(text string) []*discordgo.WebhookParams {
	var messages []*discordgo.WebhookParams
	for _, chunk := range h.splitMessage(text) {
		messages = append(messages, &discordgo.WebhookParams{Content: chunk})
	}
	return messages
}

// splitMessage は、メッセージをDiscordの文字数制限に合わせて分割します
func (h *ResponseHandler) splitMessage(message string) []string {
	if utf8.RuneCountInString(message) <= DiscordMessageLimit {
		return []string{message}
	}

	var chunks []string
	remaining := []rune(message)

	for len(remaining) > 0 {
		if len(remaining) <= DiscordMessageLimit {
			chunks = append(chunks, string(remaining))
			break
		}

		// 2000文字以内で最も近い改行位置を探す
		splitIndex := lastIndexRune(remaining[:DiscordMessageLimit], '\n')

		// 改行が見つからない場合は、単語の境界で分割
		if splitIndex <= 0 {
			splitIndex = lastIndexRune(remaining[:DiscordMessageLimit], ' ')
		}

		// それでも見つからない場合は強制的に分割
		if splitIndex <= 0 {
			splitIndex = DiscordMessageLimit
		}

		chunks = append(chunks, string(remaining[:splitIndex]))
		remaining = []rune(strings.TrimLeft(string(remaining[splitIndex:]), " \n"))
	}

	return chunks
}

// lastIndexRune は、区切り文字の直後の位置を返します。見つからない場合は0です
func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes); i > 0; i-- {
		if runes[i-1] == r {
			return i
		}
	}
	return 0
}

// formatError は、エラーをユーザー向けのメッセージに変換します
func (h *ResponseHandler) formatError(err error) string {
	var validationErr *domain.ValidationError
	var upstreamErr *domain.UpstreamError

	switch {
	case errors.As(err, &validationErr):
		return fmt.Sprintf("❌ 入力が不正です: %v\n例: %s", validationErr.Err, domain.ExamplePrompt)
	case domain.KindOf(err) == domain.ErrorKindAuth:
		return "❌ Vertex AI の認証に失敗しました。管理者に認証情報・権限・リージョンの確認を依頼してください。"
	case errors.As(err, &upstreamErr) && upstreamErr.Status == 0:
		return fmt.Sprintf("❌ %s に接続できませんでした。しばらくしてから再度お試しください。", upstreamErr.Model)
	case errors.As(err, &upstreamErr):
		return fmt.Sprintf("❌ %s がエラーを返しました (status %d)", upstreamErr.Model, upstreamErr.Status)
	default:
		return "❌ 申し訳ございません。エラーが発生しました。"
	}
}
