package store

import (
	"context"
	"sync"

	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/models"
)

// WishlistStore 会话收藏夹，重复添加为空操作
type WishlistStore struct {
	mu        sync.RWMutex
	owner     string
	persister WishlistPersister
	entries   []models.WishlistEntry
	ready     bool
	subs      subscribers[WishlistEvent]
}

// NewWishlistStore 创建收藏夹
func NewWishlistStore(owner string, persister WishlistPersister) *WishlistStore {
	return &WishlistStore{owner: owner, persister: persister}
}

// Hydrate 从持久层恢复；失败时保持未就绪
func (s *WishlistStore) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return nil
	}
	if s.persister != nil {
		entries, err := s.persister.Load(ctx)
		if err != nil {
			s.mu.Unlock()
			logger.FromContext(ctx).Warnw("wishlist_hydrate_failed", "owner", s.owner, "error", err)
			return err
		}
		s.entries = dedupeEntries(entries)
	}
	s.ready = true
	event := s.eventLocked(EventHydrated, 0)
	fns := s.subs.snapshot()
	s.mu.Unlock()
	publish(fns, event)
	return nil
}

// Ready 是否已完成恢复
func (s *WishlistStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Add 收藏，已存在时不做任何修改
func (s *WishlistStore) Add(ctx context.Context, entry models.WishlistEntry) error {
	if entry.ItemID == 0 {
		return ErrInvalidItem
	}
	return s.mutate(ctx, EventAdded, entry.ItemID, func() bool {
		if s.indexLocked(entry.ItemID) >= 0 {
			return false
		}
		s.entries = append(s.entries, entry)
		return true
	})
}

// Remove 取消收藏
func (s *WishlistStore) Remove(ctx context.Context, itemID uint) error {
	return s.mutate(ctx, EventRemoved, itemID, func() bool {
		idx := s.indexLocked(itemID)
		if idx < 0 {
			return false
		}
		s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
		return true
	})
}

// Get 按 id 查询
func (s *WishlistStore) Get(itemID uint) (models.WishlistEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexLocked(itemID); idx >= 0 {
		return s.entries[idx], true
	}
	return models.WishlistEntry{}, false
}

// Items 按插入顺序返回副本
func (s *WishlistStore) Items() []models.WishlistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEntries(s.entries)
}

// Subscribe 订阅变更，返回取消函数
func (s *WishlistStore) Subscribe(fn func(WishlistEvent)) func() {
	s.mu.Lock()
	id := s.subs.add(fn)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.subs.remove(id)
		s.mu.Unlock()
	}
}

func (s *WishlistStore) mutate(ctx context.Context, kind string, itemID uint, apply func() bool) error {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return ErrStoreNotReady
	}
	if !apply() {
		s.mu.Unlock()
		return nil
	}
	if s.persister != nil {
		if err := s.persister.Save(ctx, copyEntries(s.entries)); err != nil {
			logger.FromContext(ctx).Warnw("wishlist_persist_failed", "owner", s.owner, "event", kind, "error", err)
		}
	}
	event := s.eventLocked(kind, itemID)
	fns := s.subs.snapshot()
	s.mu.Unlock()
	publish(fns, event)
	return nil
}

func (s *WishlistStore) eventLocked(kind string, itemID uint) WishlistEvent {
	return WishlistEvent{Owner: s.owner, Kind: kind, ItemID: itemID, Entries: copyEntries(s.entries)}
}

func (s *WishlistStore) indexLocked(itemID uint) int {
	for i := range s.entries {
		if s.entries[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func copyEntries(entries []models.WishlistEntry) []models.WishlistEntry {
	out := make([]models.WishlistEntry, len(entries))
	copy(out, entries)
	return out
}

func dedupeEntries(entries []models.WishlistEntry) []models.WishlistEntry {
	out := make([]models.WishlistEntry, 0, len(entries))
	seen := make(map[uint]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.ItemID]; ok {
			continue
		}
		seen[entry.ItemID] = struct{}{}
		out = append(out, entry)
	}
	return out
}

// MoveToCart 以数量 1 加入购物车后再从收藏夹移除；两步不是原子的
func MoveToCart(ctx context.Context, wishlist *WishlistStore, cart *CartStore, itemID uint) error {
	entry, ok := wishlist.Get(itemID)
	if !ok {
		if !wishlist.Ready() {
			return ErrStoreNotReady
		}
		return ErrItemNotFound
	}
	if err := cart.Add(ctx, entry.ToCartLine(1)); err != nil {
		return err
	}
	return wishlist.Remove(ctx, itemID)
}
