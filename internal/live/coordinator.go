package live

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/quickhire/internal/session"
	"github.com/nao1215/quickhire/pkg/offer"
)

// Coordinator はセッションの変化に合わせて購読と件数の整合を開閉する。
type Coordinator struct {
	sessions   SessionProvider
	manager    *SubscriptionManager
	reconciler *Reconciler
	dispatcher *Dispatcher

	mu     sync.Mutex
	handle *Handle
	userID string
	closed bool

	// opMu はclosingとopsを保護する。muを保持したまま取得しない。
	opMu    sync.Mutex
	closing bool
	// ops は実行中のSessionChangedを取り消す関数。
	ops    map[uint64]context.CancelFunc
	nextOp uint64
}

// NewCoordinator は新しいCoordinatorを生成し、イベントのリスナーをmanagerに登録する。
func NewCoordinator(sessions SessionProvider, manager *SubscriptionManager, reconciler *Reconciler, dispatcher *Dispatcher) *Coordinator {
	c := &Coordinator{
		sessions:   sessions,
		manager:    manager,
		reconciler: reconciler,
		dispatcher: dispatcher,
		ops:        make(map[uint64]context.CancelFunc),
	}
	manager.AddListener(c.onEvent)
	return c
}

// onEvent は件数の再取得を開始し、通知を表示する。
func (c *Coordinator) onEvent(ctx context.Context, userID string, ev offer.ChangeEvent) {
	c.reconciler.Trigger(userID)
	c.dispatcher.OnEvent(ctx, ev)
}

// Count は現在の保留中オファー件数を返す。
func (c *Coordinator) Count() int {
	return c.reconciler.Count()
}

// Handle は現在保持しているHandleを返す。
func (c *Coordinator) Handle() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// SessionChanged はセッションの変化を反映する。
// セッションを得た場合は購読を開き、初回の件数取得を並行に行う。
// セッションを失った場合は購読を閉じて件数を0に戻す。
// 購読の確立に失敗した場合はErrTransportを返すが、件数の取得は行われる。
func (c *Coordinator) SessionChanged(ctx context.Context, s session.Session, present bool) error {
	ctx, done, err := c.beginOp(ctx)
	if err != nil {
		return err
	}
	defer done()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCoordinatorClosed
	}

	if !present {
		c.teardownLocked()
		return nil
	}

	if c.userID == s.UserID && c.handle != nil && c.handle.State() == HandleActive {
		return nil
	}
	if c.userID != s.UserID {
		c.teardownLocked()
	}

	var (
		g       errgroup.Group
		h       *Handle
		openErr error
	)
	g.Go(func() error {
		h, openErr = c.manager.Open(ctx, s.UserID)
		return openErr
	})
	g.Go(func() error {
		_, _ = c.reconciler.Refresh(ctx, s.UserID)
		return nil
	})
	_ = g.Wait()

	c.userID = s.UserID
	c.handle = h
	return openErr
}

// beginOp はCloseから取り消せるコンテキストを用意する。
// Closeが始まっている場合はErrCoordinatorClosedを返す。
func (c *Coordinator) beginOp(ctx context.Context) (context.Context, func(), error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.closing {
		return nil, nil, ErrCoordinatorClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	id := c.nextOp
	c.nextOp++
	c.ops[id] = cancel
	return ctx, func() {
		c.opMu.Lock()
		delete(c.ops, id)
		c.opMu.Unlock()
		cancel()
	}, nil
}

func (c *Coordinator) teardownLocked() {
	if c.handle != nil {
		_ = c.manager.Close(c.handle)
		c.handle = nil
	}
	c.userID = ""
	c.reconciler.Reset()
}

// Refresh は現在のセッションの件数を取得し直す。
// セッションがない場合はsession.ErrNoSessionを返す。
func (c *Coordinator) Refresh(ctx context.Context) (int, error) {
	s, ok := c.sessions.Current()
	if !ok {
		return c.reconciler.Count(), session.ErrNoSession
	}
	return c.reconciler.Refresh(ctx, s.UserID)
}

// Run はセッションの変化を監視し、ctxが終了するまで反映し続ける。
// 終了時にはCloseを呼び出して購読を解除する。
func (c *Coordinator) Run(ctx context.Context) error {
	changes, stop := c.sessions.Watch()
	defer stop()
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if err := c.SessionChanged(ctx, change.Session, change.Present); err != nil {
				log.Printf("[Live] セッション変化の反映に失敗: %v", err)
			}
		}
	}
}

// Close は購読を解除し、実行中の件数取得を中断して完了を待つ。
// 実行中のSessionChangedは購読の再試行を含めて取り消される。
// 戻った後はリスナーが呼び出されることはない。
func (c *Coordinator) Close() {
	c.opMu.Lock()
	c.closing = true
	for _, cancel := range c.ops {
		cancel()
	}
	c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.handle != nil {
		_ = c.manager.Close(c.handle)
		c.handle = nil
	}
	c.userID = ""
	c.mu.Unlock()

	c.reconciler.Close()
}

// Wait は実行中の件数取得の完了を待つ。
func (c *Coordinator) Wait() {
	c.reconciler.Wait()
}
