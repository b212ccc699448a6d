// 通知サービスのエントリポイント。
// オファーのステータス変更などでユーザーに表示した通知を保存し、
// 一覧と既読管理を提供する。
package main

import (
	"context"
	"log"

	"github.com/nao1215/quickhire/internal/notification"
	"github.com/nao1215/quickhire/pkg/config"
)

func main() {
	cfg, err := config.Load[notification.Config]()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	store, err := notification.OpenStore(context.Background(), cfg.DatabasePath)
	if err != nil {
		log.Fatalf("通知ストアの初期化に失敗: %v", err)
	}
	defer store.Close()

	server := notification.NewServer(cfg, store)

	log.Printf("通知サービスを起動します: :%s", cfg.Port)
	if err := server.Run(); err != nil {
		log.Fatalf("通知サービスの起動に失敗: %v", err)
	}
}
