package cache

import (
	"context"
	"sync"

	"flower_shop/internal/models"
)

// MemoryCartStore is the single-process cart store used when Redis is not
// configured.
type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]models.Cart
	subs  map[string]map[chan string]struct{}
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		carts: make(map[string]models.Cart),
		subs:  make(map[string]map[chan string]struct{}),
	}
}

func (s *MemoryCartStore) Get(_ context.Context, sid string) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[sid]
	if !ok {
		return models.Cart{}, nil
	}
	return cart.Clone(), nil
}

func (s *MemoryCartStore) Set(_ context.Context, sid string, cart models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[sid] = cart.Clone()
	s.notify(sid, EventCartUpdated)
	return nil
}

func (s *MemoryCartStore) Pop(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sid)
	s.notify(sid, EventCartCleared)
	return nil
}

func (s *MemoryCartStore) Subscribe(_ context.Context, sid string) (<-chan string, func()) {
	ch := make(chan string, 8)

	s.mu.Lock()
	if s.subs[sid] == nil {
		s.subs[sid] = make(map[chan string]struct{})
	}
	s.subs[sid][ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[sid], ch)
			if len(s.subs[sid]) == 0 {
				delete(s.subs, sid)
			}
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// notify must be called with mu held.
func (s *MemoryCartStore) notify(sid, event string) {
	for ch := range s.subs[sid] {
		select {
		case ch <- event:
		default:
		}
	}
}
