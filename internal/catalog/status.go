package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/constants"
	"github.com/ayokah-next/internal/logger"
)

// 状态单元阶段
const (
	PhaseIdle       = "idle"
	PhasePending    = "pending"
	PhaseCommitted  = "committed"
	PhaseRolledBack = "rolled_back"
)

// ErrStatusUpdate 上下架修改失败
var ErrStatusUpdate = commerce.NewValidationError(constants.MsgStatusUpdateFailed)

// ErrItemNotLoaded 行不在当前表格中，没有可回滚的基准状态
var ErrItemNotLoaded = commerce.NewValidationError("Item is not in the current list, reload it and try again")

// CellState 状态单元快照
type CellState struct {
	ItemID uint   `json:"item_id"`
	Value  string `json:"value"`
	Phase  string `json:"phase"`
}

// StatusCell 单行上下架状态：乐观更新，失败回滚
type StatusCell struct {
	mu        sync.Mutex
	itemID    uint
	value     string
	committed string
	phase     string
	seq       uint64
	table     *Table
}

func newStatusCell(itemID uint, status string, table *Table) *StatusCell {
	return &StatusCell{
		itemID:    itemID,
		value:     status,
		committed: status,
		phase:     PhaseIdle,
		table:     table,
	}
}

// Change 乐观修改状态；同一行后发起的修改会覆盖先前的结果。
// 没有进行中的修改时，回滚基准取表格当前行的状态。
func (c *StatusCell) Change(ctx context.Context, status string) (CellState, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != constants.ItemStatusActive && status != constants.ItemStatusInactive {
		return c.State(), commerce.NewValidationError("Status: Must be one of: %s %s", constants.ItemStatusActive, constants.ItemStatusInactive)
	}
	baseline, known := c.table.rowStatus(c.itemID)

	c.mu.Lock()
	if c.phase != PhasePending {
		if !known {
			state := c.stateLocked()
			c.mu.Unlock()
			return state, ErrItemNotLoaded
		}
		c.committed = baseline
		c.value = baseline
	}
	c.seq++
	seq := c.seq
	c.value = status
	c.phase = PhasePending
	c.mu.Unlock()

	ctx = commerce.ContextWithToken(ctx, c.table.currentToken())
	err := c.table.client.UpdateItemStatus(ctx, c.itemID, status)

	c.mu.Lock()
	if err == nil {
		c.committed = status
	}
	if seq != c.seq {
		state := c.stateLocked()
		c.mu.Unlock()
		return state, err
	}
	if err != nil {
		c.value = c.committed
		c.phase = PhaseRolledBack
		state := c.stateLocked()
		c.mu.Unlock()
		c.table.metrics.StatusRolledBack()
		logger.FromContext(ctx).Warnw("catalog_status_rolled_back", "item_id", c.itemID, "status", status, "error", err)
		return state, fmt.Errorf("%w: %w", ErrStatusUpdate, err)
	}
	c.phase = PhaseCommitted
	state := c.stateLocked()
	c.mu.Unlock()
	c.table.patchRow(c.itemID, status)
	return state, nil
}

// State 当前状态
func (c *StatusCell) State() CellState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *StatusCell) stateLocked() CellState {
	return CellState{ItemID: c.itemID, Value: c.value, Phase: c.phase}
}
