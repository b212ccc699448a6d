package realtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/nao1215/quickhire/pkg/offer"
)

// Connect はURLまたはhost:port形式の指定からRedisクライアントを生成する。
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("RedisのURL解析に失敗: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redisへの接続に失敗: %w", err)
	}
	return client, nil
}

// RedisChannel はRedis Pub/Subを用いたChannel。
// 発行されたJSONペイロードをChangeEventに復元し、Filterで絞り込んで配信する。
type RedisChannel struct {
	client *redis.Client
	buffer int
}

var _ Channel = (*RedisChannel)(nil)

// NewRedisChannel は新しいRedisChannelを生成する。
func NewRedisChannel(client *redis.Client) *RedisChannel {
	return &RedisChannel{client: client, buffer: defaultBufferSize}
}

// Subscribe はtopicを購読する。購読の確立をRedisが確認するまで待つ。
func (c *RedisChannel) Subscribe(ctx context.Context, topic string, filter Filter) (Subscription, error) {
	ps := c.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("トピック %s の購読に失敗: %w", topic, err)
	}

	sub := &redisSubscription{
		ps:     ps,
		topic:  topic,
		filter: filter,
		ch:     make(chan offer.ChangeEvent, c.buffer),
		done:   make(chan struct{}),
	}
	go sub.forward(ps.Channel())
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	topic  string
	filter Filter
	ch     chan offer.ChangeEvent
	done   chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

func (s *redisSubscription) forward(msgs <-chan *redis.Message) {
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				s.finish(ErrClosed)
				return
			}
			ev, err := offer.Decode([]byte(msg.Payload))
			if err != nil {
				log.Printf("[Realtime] トピック %s のペイロードを破棄: %v", s.topic, err)
				continue
			}
			if !s.filter.Match(ev) {
				continue
			}
			select {
			case s.ch <- ev:
			case <-s.done:
				return
			}
		}
	}
}

func (s *redisSubscription) Events() <-chan offer.ChangeEvent { return s.ch }

func (s *redisSubscription) Done() <-chan struct{} { return s.done }

func (s *redisSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *redisSubscription) Unsubscribe() error {
	s.finish(nil)
	if err := s.ps.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("トピック %s の購読解除に失敗: %w", s.topic, err)
	}
	return nil
}

func (s *redisSubscription) finish(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}

// RedisPublisher はRedis Pub/Subにイベントを発行するPublisher。
type RedisPublisher struct {
	client *redis.Client
}

var _ Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher は新しいRedisPublisherを生成する。
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish はイベントをJSONにシリアライズしてtopicに発行する。
func (p *RedisPublisher) Publish(ctx context.Context, topic string, ev offer.ChangeEvent) error {
	data, err := offer.Encode(ev)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("トピック %s への発行に失敗: %w", topic, err)
	}
	return nil
}
