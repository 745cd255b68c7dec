package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/debounce"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/metrics"
)

const (
	viewSellerItems    = "seller_items"
	defaultPageSize    = 10
	defaultDebounce    = 300 * time.Millisecond
	msgItemsLoadFailed = "Failed to load items"
)

// SellerClient 卖家商品相关上游接口
type SellerClient interface {
	ListSellerItems(ctx context.Context, q commerce.PageQuery) (*commerce.ListEnvelope[commerce.Item], error)
	UpdateItemStatus(ctx context.Context, itemID uint, status string) error
}

// Options 表格配置
type Options struct {
	PageSize int
	Debounce time.Duration
	Metrics  *metrics.Recorder
}

// TableSnapshot 表格对外状态
type TableSnapshot struct {
	PageIndex  int             `json:"page_index"`
	PageSize   int             `json:"page_size"`
	Search     string          `json:"search"`
	Rows       []commerce.Item `json:"rows"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	CanPrev    bool            `json:"can_prev"`
	CanNext    bool            `json:"can_next"`
	Loading    bool            `json:"loading"`
	Error      string          `json:"error,omitempty"`
	Generation uint64          `json:"generation"`
}

// Table 卖家商品分页表格：防抖查询，只接受最新代的结果
type Table struct {
	mu        sync.Mutex
	client    SellerClient
	debouncer *debounce.Debouncer
	metrics   *metrics.Recorder
	token     string
	pageIndex int
	pageSize  int
	search    string
	rows      []commerce.Item
	total     int
	loading   bool
	err       string
	cells     map[uint]*StatusCell
}

// NewTable 创建表格，不会自动发起查询
func NewTable(client SellerClient, opts Options) *Table {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	t := &Table{
		client:    client,
		debouncer: debounce.New(opts.Debounce),
		metrics:   opts.Metrics,
		pageSize:  opts.PageSize,
		cells:     map[uint]*StatusCell{},
	}
	t.debouncer.OnSupersede(func() { opts.Metrics.DebounceSuperseded(viewSellerItems) })
	return t
}

// SetToken 更新转发给上游的令牌
func (t *Table) SetToken(token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
}

// SetSearch 修改搜索词，页码回到第一页
func (t *Table) SetSearch(q string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.search = q
	t.pageIndex = 0
	return t.scheduleLocked(false)
}

// SetPage 跳转到指定页（从 0 开始）
func (t *Table) SetPage(index int) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 {
		index = 0
	}
	t.pageIndex = index
	return t.scheduleLocked(false)
}

// SetPageSize 修改每页条数，页码回到第一页
func (t *Table) SetPageSize(size int) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if size <= 0 {
		size = defaultPageSize
	}
	t.pageSize = size
	t.pageIndex = 0
	return t.scheduleLocked(false)
}

// Refresh 立即按当前条件重新查询
func (t *Table) Refresh() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scheduleLocked(true)
}

func (t *Table) scheduleLocked(immediate bool) uint64 {
	t.loading = true
	if immediate {
		return t.debouncer.Now(t.fetch)
	}
	return t.debouncer.Trigger(t.fetch)
}

func (t *Table) fetch(ctx context.Context, gen uint64) {
	t.mu.Lock()
	q := commerce.PageQuery{Limit: t.pageSize, Offset: t.pageIndex * t.pageSize, Search: t.search}
	token := t.token
	t.mu.Unlock()

	env, err := t.client.ListSellerItems(commerce.ContextWithToken(ctx, token), q)

	t.mu.Lock()
	defer t.mu.Unlock()
	if ctx.Err() != nil || !t.debouncer.IsCurrent(gen) {
		t.metrics.StaleDiscarded(viewSellerItems)
		logger.Debugw("catalog_stale_response_discarded", "generation", gen)
		return
	}
	t.loading = false
	if err != nil {
		t.err = commerce.HumanMessage(err, msgItemsLoadFailed)
		logger.Warnw("catalog_fetch_failed", "offset", q.Offset, "limit", q.Limit, "error", err)
		return
	}
	t.err = ""
	t.rows = env.Data
	t.total = env.Total
	t.dropSettledCellsLocked()
}

// dropSettledCellsLocked 新结果落定后丢弃空闲单元，进行中的修改保留
func (t *Table) dropSettledCellsLocked() {
	for id, cell := range t.cells {
		if cell.State().Phase != PhasePending {
			delete(t.cells, id)
		}
	}
}

// Wait 等待最新一代查询结束
func (t *Table) Wait(ctx context.Context) error {
	return t.debouncer.Wait(ctx)
}

// Snapshot 当前状态
func (t *Table) Snapshot() TableSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := make([]commerce.Item, len(t.rows))
	copy(rows, t.rows)
	pages := TotalPages(t.total, t.pageSize)
	return TableSnapshot{
		PageIndex:  t.pageIndex,
		PageSize:   t.pageSize,
		Search:     t.search,
		Rows:       rows,
		Total:      t.total,
		TotalPages: pages,
		CanPrev:    t.pageIndex > 0,
		CanNext:    t.pageIndex+1 < pages,
		Loading:    t.loading,
		Error:      t.err,
		Generation: t.debouncer.Generation(),
	}
}

// Cell 返回某一行的状态单元，不存在时按当前行数据创建
func (t *Table) Cell(itemID uint) *StatusCell {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cell, ok := t.cells[itemID]; ok {
		return cell
	}
	status, _ := t.rowStatusLocked(itemID)
	cell := newStatusCell(itemID, status, t)
	t.cells[itemID] = cell
	return cell
}

// rowStatus 当前表格中某行的状态
func (t *Table) rowStatus(itemID uint) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rowStatusLocked(itemID)
}

func (t *Table) rowStatusLocked(itemID uint) (string, bool) {
	for _, row := range t.rows {
		if row.ID == itemID {
			return row.Status, true
		}
	}
	return "", false
}

// patchRow 状态提交成功后同步表格行
func (t *Table) patchRow(itemID uint, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if t.rows[i].ID == itemID {
			t.rows[i].Status = status
			return
		}
	}
}

func (t *Table) currentToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

// Close 取消待执行与进行中的查询
func (t *Table) Close() {
	t.debouncer.Close()
	t.mu.Lock()
	t.loading = false
	t.mu.Unlock()
}

// TotalPages 向上取整的总页数
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
