package store

import (
	"context"
	"errors"

	"github.com/ayokah-next/internal/models"
)

var (
	ErrStoreNotReady = errors.New("store not ready")
	ErrInvalidItem   = errors.New("invalid item")
	ErrItemNotFound  = errors.New("item not found")
)

// 事件类型
const (
	EventHydrated = "hydrated"
	EventAdded    = "added"
	EventUpdated  = "updated"
	EventRemoved  = "removed"
	EventCleared  = "cleared"
)

// CartEvent 购物车变更事件
type CartEvent struct {
	Owner  string
	Kind   string
	ItemID uint
	Lines  []models.CartLine
}

// WishlistEvent 收藏夹变更事件
type WishlistEvent struct {
	Owner   string
	Kind    string
	ItemID  uint
	Entries []models.WishlistEntry
}

// CartPersister 购物车快照持久化
type CartPersister interface {
	Load(ctx context.Context) ([]models.CartLine, error)
	Save(ctx context.Context, lines []models.CartLine) error
}

// WishlistPersister 收藏夹快照持久化
type WishlistPersister interface {
	Load(ctx context.Context) ([]models.WishlistEntry, error)
	Save(ctx context.Context, entries []models.WishlistEntry) error
}

// subscribers 同步观察者列表，发布在调用方锁外进行
type subscribers[E any] struct {
	next int
	fns  map[int]func(E)
}

func (s *subscribers[E]) add(fn func(E)) int {
	if s.fns == nil {
		s.fns = map[int]func(E){}
	}
	s.next++
	s.fns[s.next] = fn
	return s.next
}

func (s *subscribers[E]) remove(id int) {
	delete(s.fns, id)
}

func (s *subscribers[E]) snapshot() []func(E) {
	out := make([]func(E), 0, len(s.fns))
	for i := 1; i <= s.next; i++ {
		if fn, ok := s.fns[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func publish[E any](fns []func(E), event E) {
	for _, fn := range fns {
		fn(event)
	}
}
