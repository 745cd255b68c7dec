package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/debounce"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/metrics"
)

const (
	viewQuickSearch         = "quick_search"
	defaultQuickSearchLimit = 10
)

// ItemSearcher 公开商品搜索接口
type ItemSearcher interface {
	ListItems(ctx context.Context, q commerce.ItemListQuery) (*commerce.ListEnvelope[commerce.Item], error)
}

// QuickSearchSnapshot 搜索框状态
type QuickSearchSnapshot struct {
	Query   string          `json:"query"`
	Results []commerce.Item `json:"results"`
	Loading bool            `json:"loading"`
}

// QuickSearch 头部搜索框：防抖，空查询直接清空
type QuickSearch struct {
	mu        sync.Mutex
	client    ItemSearcher
	debouncer *debounce.Debouncer
	metrics   *metrics.Recorder
	limit     int
	query     string
	results   []commerce.Item
	loading   bool
}

// NewQuickSearch 创建搜索框
func NewQuickSearch(client ItemSearcher, limit int, delay time.Duration, recorder *metrics.Recorder) *QuickSearch {
	if limit <= 0 {
		limit = defaultQuickSearchLimit
	}
	if delay <= 0 {
		delay = defaultDebounce
	}
	s := &QuickSearch{
		client:    client,
		debouncer: debounce.New(delay),
		metrics:   recorder,
		limit:     limit,
	}
	s.debouncer.OnSupersede(func() { recorder.DebounceSuperseded(viewQuickSearch) })
	return s
}

// Search 更新查询词；空白查询清空结果且不请求
func (s *QuickSearch) Search(q string) uint64 {
	q = strings.TrimSpace(q)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	if q == "" {
		s.debouncer.Cancel()
		s.results = nil
		s.loading = false
		return 0
	}
	s.loading = true
	return s.debouncer.Trigger(s.fetch)
}

func (s *QuickSearch) fetch(ctx context.Context, gen uint64) {
	s.mu.Lock()
	q := commerce.ItemListQuery{Limit: s.limit, Offset: 0, Search: s.query}
	s.mu.Unlock()

	env, err := s.client.ListItems(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil || !s.debouncer.IsCurrent(gen) {
		s.metrics.StaleDiscarded(viewQuickSearch)
		return
	}
	s.loading = false
	if err != nil {
		logger.Debugw("quick_search_failed", "query", q.Search, "error", err)
		s.results = nil
		return
	}
	s.results = env.Data
}

// Wait 等待最新一代搜索结束
func (s *QuickSearch) Wait(ctx context.Context) error {
	return s.debouncer.Wait(ctx)
}

// Snapshot 当前状态
func (s *QuickSearch) Snapshot() QuickSearchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := make([]commerce.Item, len(s.results))
	copy(results, s.results)
	return QuickSearchSnapshot{Query: s.query, Results: results, Loading: s.loading}
}

// Close 取消待执行的搜索
func (s *QuickSearch) Close() {
	s.debouncer.Close()
}
