package realtime

import (
	"context"
	"errors"

	"github.com/nao1215/quickhire/pkg/offer"
)

// topicPrefix は顧客ごとのオファー更新トピック名の接頭辞。
const topicPrefix = "customer-offers-updates-"

// ErrClosed はチャネルまたは購読がすでに閉じられていることを表す。
var ErrClosed = errors.New("realtime: チャネルは閉じられています")

// Topic は指定した顧客のオファー更新トピック名を返す。
func Topic(userID string) string {
	return topicPrefix + userID
}

// Filter は購読者に配信するイベントを絞り込む条件。
// ゼロ値のフィールドは条件として扱わない。
type Filter struct {
	// Event は配信対象の変更操作の種類。
	Event offer.EventType
	// OwnerID は配信対象のオファー所有者のユーザーID。
	OwnerID string
}

// Match はイベントがフィルタ条件を満たすかどうかを返す。
func (f Filter) Match(ev offer.ChangeEvent) bool {
	if f.Event != "" && ev.Type != f.Event {
		return false
	}
	if f.OwnerID != "" && ev.OwnerID != f.OwnerID {
		return false
	}
	return true
}

// Subscription は1つのトピックに対する購読。
type Subscription interface {
	// Events はフィルタを通過したイベントを受信するチャネルを返す。
	Events() <-chan offer.ChangeEvent
	// Done は購読が終了したときに閉じられるチャネルを返す。
	Done() <-chan struct{}
	// Err は購読が終了した理由を返す。Unsubscribeによる終了の場合はnil。
	Err() error
	// Unsubscribe は購読を解除する。複数回呼び出しても安全である。
	Unsubscribe() error
}

// Channel はトピックを購読するpublish/subscribeプリミティブ。
type Channel interface {
	// Subscribe はtopicを購読し、filterを満たすイベントを配信する購読を返す。
	Subscribe(ctx context.Context, topic string, filter Filter) (Subscription, error)
}

// Publisher はトピックにイベントを発行する。
type Publisher interface {
	// Publish はtopicの購読者にイベントを発行する。
	Publish(ctx context.Context, topic string, ev offer.ChangeEvent) error
}
