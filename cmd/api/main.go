package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/sngm3741/revision-landing-services/api/internal/config"
	"github.com/sngm3741/revision-landing-services/api/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env を読み込めませんでした (環境変数のみを使用します): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		cfg.ServerLog.Fatalf("サーバーの初期化に失敗: %v", err)
	}
	if err := app.Run(); err != nil {
		cfg.ServerLog.Fatalf("サーバー起動に失敗: %v", err)
	}
}
