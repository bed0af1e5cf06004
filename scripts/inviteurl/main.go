package main

import (
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// botPermissions は、/render と /analyze の応答に必要な権限の合計です
// View Channels (1024) + Send Messages (2048) + Attach Files (32768) + Embed Links (16384)
const botPermissions = 1024 + 2048 + 32768 + 16384

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Warnf(".envファイルの読み込みに失敗しました: %v", err)
	}

	// Bot Tokenを取得
	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	if botToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN が設定されていません")
	}

	// Discordセッションを作成
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		log.Fatalf("Discordセッションの作成に失敗: %v", err)
	}
	defer session.Close()

	// Botの情報を取得
	user, err := session.User("@me")
	if err != nil {
		log.Fatalf("Bot情報の取得に失敗: %v", err)
	}

	fmt.Printf("🤖 Bot情報:\n")
	fmt.Printf("   名前: %s\n", user.Username)
	fmt.Printf("   Client ID: %s\n", user.ID)
	fmt.Println()

	// スラッシュコマンドの登録には applications.commands スコープが必要
	inviteURL := fmt.Sprintf("https://discord.com/api/oauth2/authorize?client_id=%s&permissions=%d&scope=bot%%20applications.commands", user.ID, botPermissions)

	fmt.Printf("🔗 Bot招待URL:\n")
	fmt.Printf("   %s\n", inviteURL)
	fmt.Println()

	fmt.Printf("📋 必要な権限:\n")
	fmt.Printf("   - View Channels (1024)\n")
	fmt.Printf("   - Send Messages (2048)\n")
	fmt.Printf("   - Embed Links (16384)\n")
	fmt.Printf("   - Attach Files (32768)\n")
	fmt.Printf("   - 合計: %d\n", botPermissions)
	fmt.Println()

	fmt.Printf("🎯 使い方:\n")
	fmt.Printf("   /render prompt:<部屋の説明> aspect-ratio:<比率>\n")
	fmt.Printf("   /analyze prompt:<分析したい内容>\n")
}
