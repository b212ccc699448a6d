package live

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/nao1215/quickhire/internal/realtime"
	"github.com/nao1215/quickhire/pkg/offer"
)

// HandleState はHandleの状態を表す。
type HandleState int

const (
	// HandleUnopened は購読がまだ確立していない状態。
	HandleUnopened HandleState = iota
	// HandleActive はイベントを配信している状態。
	HandleActive
	// HandleClosed は購読が解除された状態。再び開かれることはない。
	HandleClosed
)

// String は状態名を返す。
func (s HandleState) String() string {
	switch s {
	case HandleUnopened:
		return "unopened"
	case HandleActive:
		return "active"
	case HandleClosed:
		return "closed"
	default:
		return fmt.Sprintf("HandleState(%d)", int(s))
	}
}

// Handle は1ユーザー分のチャネル購読を表す。
type Handle struct {
	userID string
	topic  string

	manager *SubscriptionManager
	sub     realtime.Subscription
	cancel  context.CancelFunc
	done    chan struct{}

	// mu はstateとリスナーの呼び出しを保護する。
	mu    sync.Mutex
	state HandleState
}

func newHandle(m *SubscriptionManager, userID string) *Handle {
	return &Handle{
		userID:  userID,
		topic:   realtime.Topic(userID),
		manager: m,
		done:    make(chan struct{}),
		state:   HandleUnopened,
	}
}

// UserID は購読対象のユーザーIDを返す。
func (h *Handle) UserID() string { return h.userID }

// Topic は購読しているトピック名を返す。
func (h *Handle) Topic() string { return h.topic }

// State は現在の状態を返す。
func (h *Handle) State() HandleState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Done は配信ループが終了したときに閉じられるチャネルを返す。
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) activate(sub realtime.Subscription) {
	ctx, cancel := context.WithCancel(context.Background())

	h.mu.Lock()
	h.sub = sub
	h.cancel = cancel
	h.state = HandleActive
	h.mu.Unlock()

	go h.run(ctx)
}

// run は購読からイベントを受信してリスナーへ配信する。
func (h *Handle) run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.sub.Done():
			if err := h.sub.Err(); err != nil {
				log.Printf("[Live] 購読が切断されました: user_id=%s: %v", h.userID, fmt.Errorf("%w: %w", ErrTransport, err))
			}
			h.markClosed()
			_ = h.sub.Unsubscribe()
			h.manager.forget(h)
			return
		case ev := <-h.sub.Events():
			if err := h.deliver(ctx, ev); err != nil {
				return
			}
		}
	}
}

// deliver はイベントを登録順に全リスナーへ同期的に渡す。
// 閉じられたHandleではErrHandleClosedを返し、リスナーは呼び出されない。
func (h *Handle) deliver(ctx context.Context, ev offer.ChangeEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != HandleActive {
		return ErrHandleClosed
	}
	for _, l := range h.manager.snapshotListeners() {
		l(ctx, h.userID, ev)
	}
	return nil
}

func (h *Handle) markClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == HandleClosed {
		return false
	}
	h.state = HandleClosed
	return true
}

// close は配信を止めて購読を解除する。
// 実行中の配信があればその完了を待ち、戻った後は新たな配信を行わない。
func (h *Handle) close() error {
	if h.cancel != nil {
		h.cancel()
	}
	if !h.markClosed() {
		return nil
	}
	if h.sub == nil {
		return nil
	}
	if err := h.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}
