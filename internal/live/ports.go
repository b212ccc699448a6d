package live

import (
	"context"

	"github.com/nao1215/quickhire/internal/session"
	"github.com/nao1215/quickhire/pkg/offer"
)

// SnapshotClient はユーザーが所有するオファーの一覧を取得する。
type SnapshotClient interface {
	OffersForUser(ctx context.Context, userID string) ([]offer.Offer, error)
}

// SessionProvider は現在のセッションとその変化を提供する。
type SessionProvider interface {
	Current() (session.Session, bool)
	Watch() (<-chan session.Change, func())
}

// Variant は通知の表示種別。
type Variant string

const (
	// VariantDefault は通常の通知。
	VariantDefault Variant = "default"
	// VariantDestructive はエラーなど注意を要する通知。
	VariantDestructive Variant = "destructive"
)

// Notification はユーザーに表示する通知。
type Notification struct {
	// UserID は通知先のユーザーID。イベントの所有者が入る。
	UserID string `json:"user_id,omitempty"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Body は通知の本文。
	Body string `json:"body"`
	// Variant は表示種別。
	Variant Variant `json:"variant"`
}

// NotificationSink は通知を表示する先。
type NotificationSink interface {
	Show(ctx context.Context, n Notification) error
}

// SinkFunc は関数をNotificationSinkとして扱うアダプタ。
type SinkFunc func(ctx context.Context, n Notification) error

// Show はf(ctx, n)を呼び出す。
func (f SinkFunc) Show(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Listener はHandleに配信されたイベントを受け取る関数。
// userIDはイベントを受信したHandleのユーザーID。
// Listenerの実行中はHandleがロックされるため、Listenerから同期的に
// SubscriptionManagerのOpenやCloseを呼び出してはならない。
type Listener func(ctx context.Context, userID string, ev offer.ChangeEvent)
