package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ayokah-next/internal/checkout"
	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/identity"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/metrics"
	"github.com/ayokah-next/internal/repository"
	"github.com/ayokah-next/internal/shipping"
	"github.com/ayokah-next/internal/store"
)

const defaultIdleTTL = 30 * time.Minute

// Settings 会话组件参数
type Settings struct {
	IdleTTL          time.Duration
	DefaultCountry   string
	DeviceName       string
	VerifyDelay      time.Duration
	CatalogPageSize  int
	CatalogDebounce  time.Duration
	QuickSearchLimit int
	OrdersDebounce   time.Duration
	CustomerPageSize int
	SellerPageSize   int
}

// Deps 会话组件依赖
type Deps struct {
	Client   *commerce.Client
	Stores   *store.Registry
	Quotes   shipping.QuoteStore
	Records  repository.CheckoutRecordRepository
	Queue    checkout.Enqueuer
	Metrics  *metrics.Recorder
	Settings Settings
}

// Manager 进程级会话视图注册表，按空闲时间回收
type Manager struct {
	mu    sync.Mutex
	deps  *Deps
	views map[string]*View
	now   func() time.Time
}

// NewManager 创建会话管理器
func NewManager(deps Deps) *Manager {
	if deps.Settings.IdleTTL <= 0 {
		deps.Settings.IdleTTL = defaultIdleTTL
	}
	if deps.Stores == nil {
		deps.Stores = store.NewRegistry(nil)
	}
	if deps.Quotes == nil {
		deps.Quotes = shipping.NewMemoryQuoteStore()
	}
	return &Manager{
		deps:  &deps,
		views: map[string]*View{},
		now:   time.Now,
	}
}

// View 返回身份对应的视图，不存在时创建并恢复购物车
func (m *Manager) View(ctx context.Context, id identity.Identity) *View {
	owner := id.Owner()
	m.mu.Lock()
	view, ok := m.views[owner]
	if !ok {
		stores := m.deps.Stores.Get(ctx, owner)
		view = newView(owner, stores, m.deps)
		m.views[owner] = view
		m.deps.Metrics.SetActiveSessions(len(m.views))
		logger.FromContext(ctx).Debugw("session_view_created", "owner", owner)
	}
	m.mu.Unlock()
	view.touch(id, m.now())
	return view
}

// Sweep 回收空闲超过 TTL 的视图，返回回收数量
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	var idle []*View
	for owner, view := range m.views {
		if view.idleSince(now) < m.deps.Settings.IdleTTL {
			continue
		}
		idle = append(idle, view)
		delete(m.views, owner)
		m.deps.Stores.Evict(owner)
	}
	m.deps.Metrics.SetActiveSessions(len(m.views))
	m.mu.Unlock()

	for _, view := range idle {
		view.Close()
	}
	if len(idle) > 0 {
		logger.Debugw("session_views_swept", "count", len(idle))
	}
	return len(idle)
}

// Owners 当前活跃的会话归属（排序后）
func (m *Manager) Owners() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	owners := make([]string, 0, len(m.views))
	for owner := range m.views {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners
}

// Len 活跃视图数
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}

// Close 关闭全部视图
func (m *Manager) Close() {
	m.mu.Lock()
	views := m.views
	m.views = map[string]*View{}
	m.mu.Unlock()
	for _, view := range views {
		view.Close()
	}
}
