package orders

import (
	"context"
	"sync"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/debounce"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/metrics"
)

// LoadMoreSnapshot 累加列表状态
type LoadMoreSnapshot[T Record] struct {
	Search  string `json:"search"`
	Items   []T    `json:"items"`
	Total   int    `json:"total"`
	HasMore bool   `json:"has_more"`
	Loading bool   `json:"loading"`
	Loaded  bool   `json:"loaded"`
	Error   string `json:"error,omitempty"`
}

// LoadMoreList "加载更多" 式累加列表：搜索从 0 重新开始，加载更多按 id 去重追加
type LoadMoreList[T Record] struct {
	mu         sync.Mutex
	fetcher    Fetcher[T]
	debouncer  *debounce.Debouncer
	metrics    *metrics.Recorder
	view       string
	token      string
	pageSize   int
	search     string
	nextOffset int
	replacing  bool
	items      []T
	total      int
	loading    bool
	loaded     bool
	err        string
}

// NewLoadMoreList 创建累加列表
func NewLoadMoreList[T Record](fetcher Fetcher[T], opts Options) *LoadMoreList[T] {
	opts = opts.normalize(2)
	l := &LoadMoreList[T]{
		fetcher:   fetcher,
		debouncer: debounce.New(opts.Debounce),
		metrics:   opts.Metrics,
		view:      opts.View,
		pageSize:  opts.PageSize,
	}
	l.debouncer.OnSupersede(func() { opts.Metrics.DebounceSuperseded(opts.View) })
	return l
}

// SetToken 更新转发给上游的令牌
func (l *LoadMoreList[T]) SetToken(token string) {
	l.mu.Lock()
	l.token = token
	l.mu.Unlock()
}

// SetSearch 防抖搜索，结果替换整个列表
func (l *LoadMoreList[T]) SetSearch(q string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.search = q
	return l.replaceLocked(false)
}

// Refresh 立即从 0 重新加载
func (l *LoadMoreList[T]) Refresh() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replaceLocked(true)
}

func (l *LoadMoreList[T]) replaceLocked(immediate bool) uint64 {
	l.replacing = true
	l.loading = true
	q := commerce.PageQuery{Limit: l.pageSize, Offset: 0, Search: l.search}
	fn := func(ctx context.Context, gen uint64) { l.fetch(ctx, gen, q, false) }
	if immediate {
		return l.debouncer.Now(fn)
	}
	return l.debouncer.Trigger(fn)
}

// LoadMore 追加下一页；没有更多或正在重新搜索时返回 0
func (l *LoadMoreList[T]) LoadMore() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.replacing || len(l.items) >= l.total {
		return 0
	}
	l.loading = true
	q := commerce.PageQuery{Limit: l.pageSize, Offset: l.nextOffset, Search: l.search}
	return l.debouncer.Now(func(ctx context.Context, gen uint64) { l.fetch(ctx, gen, q, true) })
}

func (l *LoadMoreList[T]) fetch(ctx context.Context, gen uint64, q commerce.PageQuery, appendPage bool) {
	l.mu.Lock()
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
	l.replacing = false
	l.loaded = true
	if err != nil {
		l.err = commerce.HumanMessage(err, msgLoadFailed)
		logger.Warnw("orders_fetch_failed", "view", l.view, "offset", q.Offset, "error", err)
		return
	}
	l.err = ""
	l.total = env.Total
	if appendPage {
		l.items = appendUnique(l.items, env.Data)
	} else {
		l.items = appendUnique(nil, env.Data)
	}
	l.nextOffset = q.Offset + q.Limit
}

// Wait 等待最新一代请求结束
func (l *LoadMoreList[T]) Wait(ctx context.Context) error {
	return l.debouncer.Wait(ctx)
}

// Snapshot 当前状态
func (l *LoadMoreList[T]) Snapshot() LoadMoreSnapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make([]T, len(l.items))
	copy(items, l.items)
	return LoadMoreSnapshot[T]{
		Search:  l.search,
		Items:   items,
		Total:   l.total,
		HasMore: len(l.items) < l.total,
		Loading: l.loading,
		Loaded:  l.loaded,
		Error:   l.err,
	}
}

// Close 取消待执行与进行中的请求
func (l *LoadMoreList[T]) Close() {
	l.debouncer.Close()
	l.mu.Lock()
	l.loading = false
	l.replacing = false
	l.mu.Unlock()
}

func appendUnique[T Record](dst []T, src []T) []T {
	seen := make(map[uint]struct{}, len(dst)+len(src))
	for _, item := range dst {
		seen[item.RecordID()] = struct{}{}
	}
	for _, item := range src {
		id := item.RecordID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		dst = append(dst, item)
	}
	return dst
}
