// 顧客向けボトムナビゲーションのエントリポイント。
// ログイン中の顧客のオファーチャネルを購読し、応答済みオファー件数の
// バッジと、ステータス変更の通知をターミナルに表示する。
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nao1215/quickhire/internal/live"
	"github.com/nao1215/quickhire/internal/nav"
	"github.com/nao1215/quickhire/internal/notification"
	"github.com/nao1215/quickhire/internal/offers"
	"github.com/nao1215/quickhire/internal/realtime"
	"github.com/nao1215/quickhire/internal/session"
	"github.com/nao1215/quickhire/pkg/config"
	"github.com/nao1215/quickhire/pkg/httpclient"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "navbar: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load[navbarConfig]()
	if err != nil {
		return err
	}

	if cfg.LogPath != "" {
		f, err := tea.LogToFile(cfg.LogPath, "navbar")
		if err != nil {
			return fmt.Errorf("ログファイルを開けません: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	layout, err := nav.LoadLayout(cfg.LayoutPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sessions := session.NewProvider(cfg.JWTSecret)
	timeout := httpclient.WithTimeout(cfg.RequestTimeout)
	offersClient := offers.NewClient(cfg.OffersURL, currentToken(sessions), timeout)

	if err := login(ctx, sessions, offersClient, cfg); err != nil {
		return err
	}

	channel, closeChannel, err := openChannel(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer closeChannel()

	model := nav.New(layout, cfg.StartPath, sessions.Logout)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithoutSignalHandler())

	sinks := []live.NotificationSink{nav.NewToastSink(program)}
	if cfg.NotificationURL != "" {
		sinks = append(sinks, notification.NewSink(cfg.NotificationURL, sessions, timeout))
	}

	manager := live.NewSubscriptionManager(channel,
		live.WithMaxOpenAttempts(cfg.OpenMaxAttempts),
		live.WithOpenBackOff(cfg.OpenBackOff, cfg.OpenMaxBackOff),
	)
	reconciler := live.NewReconciler(offersClient, live.WithOnCountChange(nav.CountObserver(program)))
	coordinator := live.NewCoordinator(sessions, manager, reconciler, live.NewDispatcher(sinks...))

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := coordinator.Run(ctx); err != nil {
			log.Printf("[Live] 停止しました: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	_, runErr := program.Run()
	cancel()
	<-done

	if runErr != nil {
		return fmt.Errorf("ナビゲーションの表示に失敗: %w", runErr)
	}
	return nil
}

// currentToken は現在のセッションのトークンを返すTokenSourceを生成する。
func currentToken(sessions *session.Provider) offers.TokenSource {
	return func() string {
		s, ok := sessions.Current()
		if !ok {
			return ""
		}
		return s.Token
	}
}

// login は設定されたトークン、または開発用トークンでログインする。
// どちらも設定されていない場合はログアウト状態のまま起動する。
func login(ctx context.Context, sessions *session.Provider, client *offers.Client, cfg navbarConfig) error {
	token := cfg.SessionToken
	if token == "" && cfg.DevUserID != "" {
		t, err := client.DevToken(ctx, cfg.DevUserID)
		if err != nil {
			return err
		}
		token = t
	}
	if token == "" {
		log.Printf("[Session] トークンが未設定のため、ログアウト状態で起動します")
		return nil
	}
	if _, err := sessions.Login(token); err != nil {
		return err
	}
	return nil
}

// openChannel はリアルタイムチャネルを用意する。
// RedisURLが空の場合はプロセス内のBrokerを使うため、他のサービスからの変更は届かない。
func openChannel(ctx context.Context, redisURL string) (realtime.Channel, func(), error) {
	if redisURL == "" {
		log.Printf("[Live] REDIS_URLが未設定のため、プロセス内チャネルを使用します")
		broker := realtime.NewBroker()
		return broker, broker.Close, nil
	}

	client, err := realtime.Connect(ctx, redisURL)
	if err != nil {
		return nil, nil, err
	}
	return realtime.NewRedisChannel(client), func() { _ = client.Close() }, nil
}
