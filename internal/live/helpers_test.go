package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/quickhire/internal/realtime"
	"github.com/nao1215/quickhire/pkg/offer"
)

const waitTimeout = time.Second

var errUnavailable = errors.New("チャネルに接続できません")

// recordingChannel はBrokerへの購読と解除を記録するChannel。
type recordingChannel struct {
	broker *realtime.Broker

	mu       sync.Mutex
	ops      []string
	active   int
	maxSeen  int
	failures int
	attempts int
}

func newRecordingChannel() *recordingChannel {
	return &recordingChannel{broker: realtime.NewBroker()}
}

// failNext は次のn回の購読を失敗させる。
func (c *recordingChannel) failNext(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = n
}

func (c *recordingChannel) Subscribe(ctx context.Context, topic string, filter realtime.Filter) (realtime.Subscription, error) {
	c.mu.Lock()
	c.attempts++
	if c.failures > 0 {
		c.failures--
		c.mu.Unlock()
		return nil, errUnavailable
	}
	c.mu.Unlock()

	sub, err := c.broker.Subscribe(ctx, topic, filter)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "open:"+filter.OwnerID)
	c.active++
	if c.active > c.maxSeen {
		c.maxSeen = c.active
	}
	return &recordingSubscription{Subscription: sub, channel: c, owner: filter.OwnerID}, nil
}

func (c *recordingChannel) snapshot() (ops []string, active, maxSeen, attempts int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ops...), c.active, c.maxSeen, c.attempts
}

type recordingSubscription struct {
	realtime.Subscription
	channel *recordingChannel
	owner   string
	once    sync.Once
}

func (s *recordingSubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.channel.mu.Lock()
		s.channel.ops = append(s.channel.ops, "close:"+s.owner)
		s.channel.active--
		s.channel.mu.Unlock()
	})
	return s.Subscription.Unsubscribe()
}

// publish はuserIDのトピックにステータス更新イベントを発行する。
func (c *recordingChannel) publish(t *testing.T, userID string, status offer.Status) offer.ChangeEvent {
	t.Helper()

	ev := offer.NewUpdateEvent(offer.Offer{ID: "offer-" + string(status), CustomerID: userID, Status: status}, offer.StatusPending)
	if err := c.broker.Publish(context.Background(), realtime.Topic(userID), ev); err != nil {
		t.Fatalf("Publish()でエラーが発生: %v", err)
	}
	return ev
}

// fixedClient はユーザーごとに固定のスナップショットを返すSnapshotClient。
type fixedClient struct {
	mu     sync.Mutex
	offers map[string][]offer.Offer
	err    error
	calls  int
}

func newFixedClient() *fixedClient {
	return &fixedClient{offers: make(map[string][]offer.Offer)}
}

func (c *fixedClient) set(userID string, statuses ...offer.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	offers := make([]offer.Offer, 0, len(statuses))
	for i, s := range statuses {
		offers = append(offers, offer.Offer{ID: fmt.Sprintf("%s-%d", userID, i), CustomerID: userID, Status: s})
	}
	c.offers[userID] = offers
}

func (c *fixedClient) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *fixedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *fixedClient) OffersForUser(_ context.Context, userID string) ([]offer.Offer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.offers[userID], nil
}

// blockingClient はreleaseされるまで応答しないSnapshotClient。
// コンテキストのキャンセルは無視する。
type blockingClient struct {
	*fixedClient
	started chan struct{}
	gate    chan struct{}
}

func newBlockingClient() *blockingClient {
	return &blockingClient{
		fixedClient: newFixedClient(),
		started:     make(chan struct{}, 16),
		gate:        make(chan struct{}),
	}
}

func (c *blockingClient) OffersForUser(ctx context.Context, userID string) ([]offer.Offer, error) {
	c.started <- struct{}{}
	<-c.gate
	return c.fixedClient.OffersForUser(ctx, userID)
}

func (c *blockingClient) waitStarted(t *testing.T) {
	t.Helper()

	select {
	case <-c.started:
	case <-time.After(waitTimeout):
		t.Fatal("スナップショット取得が開始されなかった")
	}
}

func (c *blockingClient) release() { close(c.gate) }

// pendingCall は完了を待っているスナップショット取得。
type pendingCall struct {
	userID string
	reply  chan []offer.Offer
}

// complete は取得を指定したステータスのオファーで完了させる。
func (p *pendingCall) complete(statuses ...offer.Status) {
	offers := make([]offer.Offer, 0, len(statuses))
	for _, s := range statuses {
		offers = append(offers, offer.Offer{Status: s})
	}
	p.reply <- offers
}

// controlledClient は取得の完了順をテストから制御できるSnapshotClient。
type controlledClient struct {
	calls chan *pendingCall
}

func newControlledClient() *controlledClient {
	return &controlledClient{calls: make(chan *pendingCall, 16)}
}

func (c *controlledClient) OffersForUser(ctx context.Context, userID string) ([]offer.Offer, error) {
	call := &pendingCall{userID: userID, reply: make(chan []offer.Offer, 1)}
	c.calls <- call

	select {
	case offers := <-call.reply:
		return offers, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *controlledClient) next(t *testing.T) *pendingCall {
	t.Helper()

	select {
	case call := <-c.calls:
		return call
	case <-time.After(waitTimeout):
		t.Fatal("スナップショット取得が開始されなかった")
	}
	return nil
}

// recordingSink は表示された通知を記録するNotificationSink。
type recordingSink struct {
	mu    sync.Mutex
	shown []Notification
	err   error
}

func (s *recordingSink) Show(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, n)
	return s.err
}

func (s *recordingSink) notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.shown...)
}

// eventually は条件が満たされるまで待つ。
func eventually(t *testing.T, msg string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("条件が満たされなかった: %s", msg)
}

// never は一定時間条件が満たされないことを確認する。
func never(t *testing.T, msg string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(50 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			t.Fatalf("条件が満たされてはならない: %s", msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
