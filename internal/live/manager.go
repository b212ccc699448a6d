package live

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/nao1215/quickhire/internal/realtime"
	"github.com/nao1215/quickhire/pkg/offer"
)

const (
	// DefaultMaxOpenAttempts は購読確立の既定の試行回数。既定では再試行しない。
	DefaultMaxOpenAttempts = 1
	// defaultInitialInterval は再試行間隔の初期値。
	defaultInitialInterval = 500 * time.Millisecond
	// defaultMaxInterval は再試行間隔の上限。
	defaultMaxInterval = 10 * time.Second
)

// ManagerOption はSubscriptionManagerの設定を変更する関数。
type ManagerOption func(*SubscriptionManager)

// WithMaxOpenAttempts は購読確立の最大試行回数を設定する。1未満の値は1として扱う。
func WithMaxOpenAttempts(n int) ManagerOption {
	return func(m *SubscriptionManager) {
		if n < 1 {
			n = 1
		}
		m.maxAttempts = uint(n)
	}
}

// WithOpenBackOff は再試行間隔の初期値と上限を設定する。
func WithOpenBackOff(initial, maxInterval time.Duration) ManagerOption {
	return func(m *SubscriptionManager) {
		m.initialInterval = initial
		m.maxInterval = maxInterval
	}
}

// SubscriptionManager はユーザー単位のチャネル購読を管理する。
// アクティブなHandleは常に高々1つである。
type SubscriptionManager struct {
	channel realtime.Channel

	// maxAttempts は購読確立の最大試行回数。
	maxAttempts uint
	// initialInterval は再試行間隔の初期値。
	initialInterval time.Duration
	// maxInterval は再試行間隔の上限。
	maxInterval time.Duration

	// openMu はOpen同士を直列化する。購読の確立中も保持する。
	openMu sync.Mutex

	// mu はactiveとpendingを保護する。購読の確立中は保持しない。
	mu     sync.Mutex
	active *Handle
	// pending は購読を確立中のHandle。
	pending       *Handle
	cancelPending context.CancelFunc

	lmu       sync.RWMutex
	listeners []Listener
}

// NewSubscriptionManager は新しいSubscriptionManagerを生成する。
func NewSubscriptionManager(ch realtime.Channel, opts ...ManagerOption) *SubscriptionManager {
	m := &SubscriptionManager{
		channel:         ch,
		maxAttempts:     DefaultMaxOpenAttempts,
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddListener はイベントを受け取るリスナーを登録する。
// リスナーは登録順に呼び出される。
func (m *SubscriptionManager) AddListener(l Listener) {
	m.lmu.Lock()
	defer m.lmu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *SubscriptionManager) snapshotListeners() []Listener {
	m.lmu.RLock()
	defer m.lmu.RUnlock()
	return m.listeners
}

// Active は現在アクティブなHandleを返す。存在しない場合はnil。
func (m *SubscriptionManager) Active() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.active.State() != HandleActive {
		return nil
	}
	return m.active
}

// Open はuserIDのオファー更新トピックを購読する。
// 同じユーザーのHandleがアクティブな場合はそれをそのまま返す。
// 別ユーザーのHandleがある場合は先にそれを閉じる。
// 購読に失敗した場合はErrTransportを返し、アクティブなHandleは残らない。
// 確立中にCloseActiveなどで取り消された場合はErrHandleClosedを返す。
func (m *SubscriptionManager) Open(ctx context.Context, userID string) (*Handle, error) {
	m.openMu.Lock()
	defer m.openMu.Unlock()

	m.mu.Lock()
	if m.active != nil {
		if m.active.userID == userID && m.active.State() == HandleActive {
			h := m.active
			m.mu.Unlock()
			return h, nil
		}
		if err := m.active.close(); err != nil {
			log.Printf("[Live] 既存の購読の解除に失敗: user_id=%s: %v", m.active.userID, err)
		}
		m.active = nil
	}

	h := newHandle(m, userID)
	openCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.pending = h
	m.cancelPending = cancel
	m.mu.Unlock()

	filter := realtime.Filter{Event: offer.EventUpdate, OwnerID: userID}
	sub, err := m.subscribe(openCtx, h.topic, filter)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending != h {
		h.markClosed()
		if sub != nil {
			_ = sub.Unsubscribe()
		}
		log.Printf("[Live] 購読の確立が取り消されました: topic=%s", h.topic)
		return nil, ErrHandleClosed
	}
	m.pending = nil
	m.cancelPending = nil

	if err != nil {
		log.Printf("[Live] 購読の確立に失敗: user_id=%s: %v", userID, err)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	h.activate(sub)
	m.active = h
	log.Printf("[Live] 購読を開始: topic=%s", h.topic)
	return h, nil
}

// cancelPendingLocked は確立中の購読を取り消す。m.muを保持して呼び出す。
func (m *SubscriptionManager) cancelPendingLocked() {
	if m.pending == nil {
		return
	}
	m.cancelPending()
	m.pending = nil
	m.cancelPending = nil
}

func (m *SubscriptionManager) subscribe(ctx context.Context, topic string, filter realtime.Filter) (realtime.Subscription, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.initialInterval
	b.MaxInterval = m.maxInterval

	return backoff.Retry(ctx, func() (realtime.Subscription, error) {
		return m.channel.Subscribe(ctx, topic, filter)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(m.maxAttempts),
		backoff.WithNotify(func(err error, d time.Duration) {
			log.Printf("[Live] 購読を再試行します: topic=%s, 待機=%s: %v", topic, d, err)
		}),
	)
}

// Close はHandleを閉じる。戻った後、そのHandleのリスナーは呼び出されない。
// すでに閉じられたHandleやnilを渡しても安全である。
func (m *SubscriptionManager) Close(h *Handle) error {
	if h == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == h {
		m.cancelPendingLocked()
	}
	if m.active == h {
		m.active = nil
	}
	if err := h.close(); err != nil {
		log.Printf("[Live] 購読の解除に失敗: topic=%s: %v", h.topic, err)
		return err
	}
	log.Printf("[Live] 購読を終了: topic=%s", h.topic)
	return nil
}

// CloseActive はアクティブなHandleがあれば閉じる。
// 確立中の購読があれば、再試行の待機中であっても取り消す。
func (m *SubscriptionManager) CloseActive() error {
	m.mu.Lock()
	m.cancelPendingLocked()
	h := m.active
	m.mu.Unlock()
	return m.Close(h)
}

// forget は切断されたHandleをアクティブから外す。
func (m *SubscriptionManager) forget(h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == h {
		m.active = nil
	}
}
