package orders

import (
	"context"
	"sync"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/debounce"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/metrics"
)

// PagedSnapshot 分页列表状态
type PagedSnapshot[T Record] struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Search     string `json:"search"`
	Items      []T    `json:"items"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	CanPrev    bool   `json:"can_prev"`
	CanNext    bool   `json:"can_next"`
	Loading    bool   `json:"loading"`
	Loaded     bool   `json:"loaded"`
	Error      string `json:"error,omitempty"`
}

// PagedList 按页码翻页的订单列表（页码从 1 开始）
type PagedList[T Record] struct {
	mu        sync.Mutex
	fetcher   Fetcher[T]
	debouncer *debounce.Debouncer
	metrics   *metrics.Recorder
	view      string
	token     string
	page      int
	pageSize  int
	search    string
	items     []T
	total     int
	loading   bool
	loaded    bool
	err       string
}

// NewPagedList 创建分页列表
func NewPagedList[T Record](fetcher Fetcher[T], opts Options) *PagedList[T] {
	opts = opts.normalize(10)
	l := &PagedList[T]{
		fetcher:   fetcher,
		debouncer: debounce.New(opts.Debounce),
		metrics:   opts.Metrics,
		view:      opts.View,
		page:      1,
		pageSize:  opts.PageSize,
	}
	l.debouncer.OnSupersede(func() { opts.Metrics.DebounceSuperseded(opts.View) })
	return l
}

// SetToken 更新转发给上游的令牌
func (l *PagedList[T]) SetToken(token string) {
	l.mu.Lock()
	l.token = token
	l.mu.Unlock()
}

// SetSearch 防抖搜索并回到第一页
func (l *PagedList[T]) SetSearch(q string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.search = q
	l.page = 1
	l.loading = true
	return l.debouncer.Trigger(l.fetch)
}

// SetPage 立即跳转到第 n 页
func (l *PagedList[T]) SetPage(n int) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n < 1 {
		n = 1
	}
	l.page = n
	l.loading = true
	return l.debouncer.Now(l.fetch)
}

// Next 下一页，已是最后一页时不请求
func (l *PagedList[T]) Next() uint64 {
	l.mu.Lock()
	page, pages := l.page, TotalPages(l.total, l.pageSize)
	l.mu.Unlock()
	if page >= pages {
		return 0
	}
	return l.SetPage(page + 1)
}

// Prev 上一页，已是第一页时不请求
func (l *PagedList[T]) Prev() uint64 {
	l.mu.Lock()
	page := l.page
	l.mu.Unlock()
	if page <= 1 {
		return 0
	}
	return l.SetPage(page - 1)
}

func (l *PagedList[T]) fetch(ctx context.Context, gen uint64) {
	l.mu.Lock()
	q := commerce.PageQuery{Limit: l.pageSize, Offset: (l.page - 1) * l.pageSize, Search: l.search}
	token := l.token
	l.mu.Unlock()

	env, err := l.fetcher(commerce.ContextWithToken(ctx, token), q)

	l.mu.Lock()
	defer l.mu.Unlock()
	if ctx.Err() != nil || !l.debouncer.IsCurrent(gen) {
		l.metrics.StaleDiscarded(l.view)
		logger.Debugw("orders_stale_response_discarded", "view", l.view, "generation", gen)
		return
	}
	l.loading = false
	l.loaded = true
	if err != nil {
		l.err = commerce.HumanMessage(err, msgLoadFailed)
		logger.Warnw("orders_fetch_failed", "view", l.view, "offset", q.Offset, "error", err)
		return
	}
	l.err = ""
	l.items = env.Data
	l.total = env.Total
}

// Wait 等待最新一代请求结束
func (l *PagedList[T]) Wait(ctx context.Context) error {
	return l.debouncer.Wait(ctx)
}

// Snapshot 当前状态
func (l *PagedList[T]) Snapshot() PagedSnapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make([]T, len(l.items))
	copy(items, l.items)
	pages := TotalPages(l.total, l.pageSize)
	return PagedSnapshot[T]{
		Page:       l.page,
		PageSize:   l.pageSize,
		Search:     l.search,
		Items:      items,
		Total:      l.total,
		TotalPages: pages,
		CanPrev:    l.page > 1,
		CanNext:    l.page < pages,
		Loading:    l.loading,
		Loaded:     l.loaded,
		Error:      l.err,
	}
}

// Close 取消待执行与进行中的请求
func (l *PagedList[T]) Close() {
	l.debouncer.Close()
	l.mu.Lock()
	l.loading = false
	l.mu.Unlock()
}
