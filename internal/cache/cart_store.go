package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"flower_shop/internal/models"
)

const (
	CartTTL = 30 * 24 * time.Hour

	EventCartUpdated = "updated"
	EventCartCleared = "cleared"
)

func cartKey(sid string) string {
	return "cart:" + sid
}

// RedisCartStore keeps one JSON cart per session token and announces every
// change on the pub/sub channel of the same name.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: CartTTL}
}

func (s *RedisCartStore) Get(ctx context.Context, sid string) (models.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	cart := models.Cart{}
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return cart, nil
}

func (s *RedisCartStore) Set(ctx context.Context, sid string, cart models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(sid), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	s.client.Publish(ctx, cartKey(sid), EventCartUpdated)
	return nil
}

func (s *RedisCartStore) Pop(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, cartKey(sid)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	s.client.Publish(ctx, cartKey(sid), EventCartCleared)
	return nil
}

// Subscribe streams change events for one session until cancel is called.
func (s *RedisCartStore) Subscribe(ctx context.Context, sid string) (<-chan string, func()) {
	pubsub := s.client.Subscribe(ctx, cartKey(sid))
	out := make(chan string, 8)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			default:
			}
		}
	}()

	return out, func() { _ = pubsub.Close() }
}
