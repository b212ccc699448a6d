package realtime

import (
	"context"
	"sync"

	"github.com/nao1215/quickhire/pkg/offer"
)

// defaultBufferSize は購読ごとのイベントバッファサイズ。
const defaultBufferSize = 16

// Broker はプロセス内で完結するpublish/subscribeチャネル。
// 単一プロセスでの開発実行とテストで使用する。
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[*brokerSubscription]struct{}
	buffer int
	closed bool
}

var (
	_ Channel   = (*Broker)(nil)
	_ Publisher = (*Broker)(nil)
)

// NewBroker は新しいBrokerを生成する。
func NewBroker() *Broker {
	return &Broker{
		subs:   make(map[string]map[*brokerSubscription]struct{}),
		buffer: defaultBufferSize,
	}
}

// Subscribe はtopicを購読する。
func (b *Broker) Subscribe(_ context.Context, topic string, filter Filter) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &brokerSubscription{
		broker: b,
		topic:  topic,
		filter: filter,
		ch:     make(chan offer.ChangeEvent, b.buffer),
		done:   make(chan struct{}),
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*brokerSubscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}
	return sub, nil
}

// Publish はtopicの購読者のうちフィルタを満たすものにイベントを配信する。
// 購読者のバッファが満杯の場合は、受信されるか購読が終了するまで待つ。
func (b *Broker) Publish(ctx context.Context, topic string, ev offer.ChangeEvent) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	targets := make([]*brokerSubscription, 0, len(b.subs[topic]))
	for sub := range b.subs[topic] {
		if sub.filter.Match(ev) {
			targets = append(targets, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.ch <- ev:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribers はtopicの現在の購読数を返す。
func (b *Broker) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

// Close はすべての購読をErrClosedで終了させ、以降の購読と発行を拒否する。
// 接続断のシミュレーションにも使用する。
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var all []*brokerSubscription
	for _, subs := range b.subs {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	b.subs = make(map[string]map[*brokerSubscription]struct{})
	b.mu.Unlock()

	for _, sub := range all {
		sub.finish(ErrClosed)
	}
}

func (b *Broker) remove(sub *brokerSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subs[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.subs, sub.topic)
		}
	}
}

type brokerSubscription struct {
	broker *Broker
	topic  string
	filter Filter
	ch     chan offer.ChangeEvent
	done   chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

func (s *brokerSubscription) Events() <-chan offer.ChangeEvent { return s.ch }

func (s *brokerSubscription) Done() <-chan struct{} { return s.done }

func (s *brokerSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *brokerSubscription) Unsubscribe() error {
	s.finish(nil)
	s.broker.remove(s)
	return nil
}

func (s *brokerSubscription) finish(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}
