// オファーサービスのエントリポイント。
// 顧客のオファー一覧を提供し、フリーランサーによるステータス変更を
// 顧客ごとのリアルタイムチャネルへ発行する。
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/nao1215/quickhire/internal/offers"
	"github.com/nao1215/quickhire/internal/realtime"
	"github.com/nao1215/quickhire/pkg/config"
)

func main() {
	cfg, err := config.Load[offers.Config]()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := offers.OpenStore(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("オファーストアの初期化に失敗: %v", err)
	}
	defer store.Close()

	var publisher realtime.Publisher
	if cfg.RedisURL != "" {
		client, err := realtime.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Redisへの接続に失敗: %v", err)
		}
		defer client.Close()
		publisher = realtime.NewRedisPublisher(client)
	} else {
		log.Printf("REDIS_URLが未設定のため、イベントはプロセス内でのみ配信されます")
		broker := realtime.NewBroker()
		defer broker.Close()
		publisher = broker
	}

	server := offers.NewServer(cfg, store, publisher)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("オファーサービスの起動に失敗: %v", err)
	}
}
