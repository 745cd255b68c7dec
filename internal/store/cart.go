package store

import (
	"context"
	"sync"

	"github.com/ayokah-next/internal/constants"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/models"
)

// CartStore 会话购物车，按插入顺序保存，id 唯一
type CartStore struct {
	mu        sync.RWMutex
	owner     string
	persister CartPersister
	lines     []models.CartLine
	ready     bool
	subs      subscribers[CartEvent]
}

// NewCartStore 创建购物车，需 Hydrate 后才能修改
func NewCartStore(owner string, persister CartPersister) *CartStore {
	return &CartStore{owner: owner, persister: persister}
}

// Hydrate 从持久层恢复；读取失败时保持未就绪，可再次调用重试
func (s *CartStore) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return nil
	}
	if s.persister != nil {
		lines, err := s.persister.Load(ctx)
		if err != nil {
			s.mu.Unlock()
			logger.FromContext(ctx).Warnw("cart_hydrate_failed", "owner", s.owner, "error", err)
			return err
		}
		s.lines = dedupeLines(lines)
	}
	s.ready = true
	event := s.eventLocked(EventHydrated, 0)
	fns := s.subs.snapshot()
	s.mu.Unlock()
	publish(fns, event)
	return nil
}

// Ready 是否已完成恢复
func (s *CartStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Add 加入购物车；重复 id 时数量累加并刷新快照字段
func (s *CartStore) Add(ctx context.Context, line models.CartLine) error {
	if line.ItemID == 0 {
		return ErrInvalidItem
	}
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	if line.Type == "" {
		line.Type = constants.ItemTypeProducts
	}
	return s.mutate(ctx, EventAdded, line.ItemID, func() bool {
		if idx := s.indexLocked(line.ItemID); idx >= 0 {
			existing := s.lines[idx]
			line.Quantity += existing.Quantity
			line.CreatedAt = existing.CreatedAt
			s.lines[idx] = line
			return true
		}
		s.lines = append(s.lines, line)
		return true
	})
}

// SetQuantity 修改数量，qty <= 0 时移除
func (s *CartStore) SetQuantity(ctx context.Context, itemID uint, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, itemID)
	}
	found := true
	err := s.mutate(ctx, EventUpdated, itemID, func() bool {
		idx := s.indexLocked(itemID)
		if idx < 0 {
			found = false
			return false
		}
		s.lines[idx].Quantity = qty
		return true
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrItemNotFound
	}
	return nil
}

// Remove 移除一行，不存在时为空操作
func (s *CartStore) Remove(ctx context.Context, itemID uint) error {
	return s.mutate(ctx, EventRemoved, itemID, func() bool {
		idx := s.indexLocked(itemID)
		if idx < 0 {
			return false
		}
		s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
		return true
	})
}

// Clear 清空购物车
func (s *CartStore) Clear(ctx context.Context) error {
	return s.mutate(ctx, EventCleared, 0, func() bool {
		s.lines = nil
		return true
	})
}

// Lines 按插入顺序返回副本
func (s *CartStore) Lines() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyLines(s.lines)
}

// Subtotal 小计 sum(price*qty)
func (s *CartStore) Subtotal() models.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := models.Money{}
	for _, line := range s.lines {
		total = total.Add(line.Price.MulInt(line.Quantity))
	}
	return total
}

// Count 商品件数合计
func (s *CartStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

// HasServices 是否包含服务类商品
func (s *CartStore) HasServices() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, line := range s.lines {
		if line.Type == constants.ItemTypeServices {
			return true
		}
	}
	return false
}

// Subscribe 订阅变更，返回取消函数
func (s *CartStore) Subscribe(fn func(CartEvent)) func() {
	s.mu.Lock()
	id := s.subs.add(fn)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.subs.remove(id)
		s.mu.Unlock()
	}
}

// mutate 在锁内修改并写入完整快照，持久化失败只记录日志
func (s *CartStore) mutate(ctx context.Context, kind string, itemID uint, apply func() bool) error {
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
		if err := s.persister.Save(ctx, copyLines(s.lines)); err != nil {
			logger.FromContext(ctx).Warnw("cart_persist_failed", "owner", s.owner, "event", kind, "error", err)
		}
	}
	event := s.eventLocked(kind, itemID)
	fns := s.subs.snapshot()
	s.mu.Unlock()
	publish(fns, event)
	return nil
}

func (s *CartStore) eventLocked(kind string, itemID uint) CartEvent {
	return CartEvent{Owner: s.owner, Kind: kind, ItemID: itemID, Lines: copyLines(s.lines)}
}

func (s *CartStore) indexLocked(itemID uint) int {
	for i := range s.lines {
		if s.lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func copyLines(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	return out
}

// dedupeLines 恢复时合并重复 id（保留首次出现位置）
func dedupeLines(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ItemID]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.ItemID] = len(out)
		out = append(out, line)
	}
	return out
}
