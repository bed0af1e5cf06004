package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"ecomindsx/internal/domain"
	"ecomindsx/internal/infrastructure/gcp"
	"ecomindsx/internal/infrastructure/vertex"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Debugf(".envファイルを読み込みませんでした: %v", err)
	}

	defaultKey := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if defaultKey == "" {
		defaultKey = "./google-credentials.json"
	}
	keyFile := flag.String("key", defaultKey, "サービスアカウントのキーファイル")
	regionList := flag.String("regions", strings.Join(vertex.DefaultProbeRegions, ","), "確認するリージョン（カンマ区切り）")
	flag.Parse()

	fmt.Println("🚀 Vertex AI への接続を確認しています...")
	fmt.Println()

	// 1. キーファイルの確認
	if _, err := os.Stat(*keyFile); err != nil {
		log.Fatalf("キーファイル %s が見つかりません: %v", *keyFile, err)
	}
	fmt.Printf("✅ 1. キーファイルが見つかりました: %s\n\n", *keyFile)

	// 2. 認証情報の読み込み
	provider := gcp.NewCredentialProvider(*keyFile)
	account, err := provider.Account()
	if err != nil {
		log.Fatalf("キーファイルの読み込みに失敗: %v", err)
	}
	fmt.Println("✅ 2. 認証情報を読み込みました:")
	fmt.Printf("   📧 Email: %s\n", account.ClientEmail)
	fmt.Printf("   🆔 Project: %s\n", account.ProjectID)
	fmt.Printf("   🔑 Key ID: %s...\n\n", account.KeyIDPrefix())

	// 3. トークンの取得
	fmt.Println("🔐 3. アクセストークンを取得しています...")
	ctx := context.Background()
	token, err := provider.AccessToken(ctx)
	if err != nil {
		log.Fatalf("トークンの取得に失敗: %v", err)
	}
	fmt.Printf("✅ トークンを取得しました: %s...\n\n", domain.Truncate(token, 12))

	// 4. リージョンの確認
	fmt.Println("📡 4. Vertex AI のリージョンを確認しています...")
	regions := splitRegions(*regionList)
	results, found := vertex.NewRegionProber(account.ProjectID).Probe(ctx, token, regions)
	for _, r := range results {
		switch {
		case r.OK():
			fmt.Printf("   ✅ %s: 利用可能\n", r.Region)
		case r.Err != nil:
			fmt.Printf("   ❌ %s: %v\n", r.Region, r.Err)
		default:
			fmt.Printf("   ❌ %s: status %d %s\n", r.Region, r.Status, r.Body)
		}
	}
	fmt.Println()

	if found == "" {
		fmt.Println("❌ 利用可能なリージョンが見つかりませんでした")
		fmt.Println("💡 確認してください: 1) Vertex AI API の有効化 2) サービスアカウントの権限 3) 課金設定")
		os.Exit(1)
	}

	fmt.Printf("🎉 %s が利用可能です。.env に次の設定を追加してください:\n", found)
	fmt.Printf("   VERTEX_PROJECT_ID=%s\n", account.ProjectID)
	fmt.Printf("   VERTEX_LOCATION=%s\n", found)
}

// splitRegions は、カンマ区切りのリージョン指定を分解します
func splitRegions(s string) []string {
	var regions []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			regions = append(regions, r)
		}
	}
	return regions
}
