package shipping

import (
	"context"
	"sync"
	"time"

	"github.com/ayokah-next/internal/cache"
	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/models"
)

// QuoteState 会话的运费报价与选择
type QuoteState struct {
	Kind              string                  `json:"kind,omitempty"`
	Rates             *commerce.ShippingRates `json:"rates,omitempty"`
	Selected          string                  `json:"selected,omitempty"`
	Fee               models.Money            `json:"fee"`
	Carrier           string                  `json:"carrier,omitempty"`
	EstimatedDelivery string                  `json:"estimated_delivery,omitempty"`
	ServiceCode       string                  `json:"service_code,omitempty"`
	GuestEmail        string                  `json:"guest_email,omitempty"`
	QuotedAt          *time.Time              `json:"quoted_at,omitempty"`
}

// HasSelection 是否已选中有效运费
func (q QuoteState) HasSelection() bool {
	return q.Selected != "" && q.Fee.IsPositive()
}

// invalidate 清除报价与选择，保留访客邮箱
func (q QuoteState) invalidate() QuoteState {
	return QuoteState{GuestEmail: q.GuestEmail}
}

// QuoteStore 报价状态存储
type QuoteStore interface {
	Load(ctx context.Context, owner string) (QuoteState, error)
	Save(ctx context.Context, owner string, state QuoteState) error
	Delete(ctx context.Context, owner string) error
}

// MemoryQuoteStore 进程内实现
type MemoryQuoteStore struct {
	mu     sync.RWMutex
	states map[string]QuoteState
}

// NewMemoryQuoteStore 创建内存存储
func NewMemoryQuoteStore() *MemoryQuoteStore {
	return &MemoryQuoteStore{states: map[string]QuoteState{}}
}

// Load 读取状态，不存在时返回零值
func (s *MemoryQuoteStore) Load(_ context.Context, owner string) (QuoteState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[owner], nil
}

// Save 写入状态
func (s *MemoryQuoteStore) Save(_ context.Context, owner string, state QuoteState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[owner] = state
	return nil
}

// Delete 删除状态
func (s *MemoryQuoteStore) Delete(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, owner)
	return nil
}

// RedisQuoteStore 基于 Redis 的实现，多实例部署时共享报价
type RedisQuoteStore struct {
	ttl time.Duration
}

// NewRedisQuoteStore 创建 Redis 存储，Redis 未启用时返回 nil
func NewRedisQuoteStore(ttl time.Duration) *RedisQuoteStore {
	if !cache.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisQuoteStore{ttl: ttl}
}

func quoteKey(owner string) string {
	return "shipping:quote:" + owner
}

// Load 读取状态
func (s *RedisQuoteStore) Load(ctx context.Context, owner string) (QuoteState, error) {
	var state QuoteState
	if _, err := cache.GetJSON(ctx, quoteKey(owner), &state); err != nil {
		return QuoteState{}, err
	}
	return state, nil
}

// Save 写入状态并刷新过期时间
func (s *RedisQuoteStore) Save(ctx context.Context, owner string, state QuoteState) error {
	return cache.SetJSON(ctx, quoteKey(owner), state, s.ttl)
}

// Delete 删除状态
func (s *RedisQuoteStore) Delete(ctx context.Context, owner string) error {
	return cache.Del(ctx, quoteKey(owner))
}
