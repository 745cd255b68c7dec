package seller

import (
	"strconv"
	"strings"

	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UpdateItemStatusRequest 上下架请求
type UpdateItemStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListItems GET /seller/items?search=&page=&page_size= 条件变化时防抖查询，等待落定后返回表格状态
func (h *Handler) ListItems(c *gin.Context) {
	table := h.view(c).SellerItems()
	snapshot := table.Snapshot()
	changed := false
	if search, ok := c.GetQuery("search"); ok {
		if search = strings.TrimSpace(search); search != snapshot.Search {
			table.SetSearch(search)
			changed = true
		}
	}
	if size := handlershared.QueryInt(c, "page_size", snapshot.PageSize); size > 0 && size != snapshot.PageSize {
		table.SetPageSize(size)
		changed = true
	}
	if page := handlershared.QueryInt(c, "page", 0); page > 0 && page-1 != table.Snapshot().PageIndex {
		table.SetPage(page - 1)
		changed = true
	}
	if !changed && snapshot.Generation == 0 {
		table.Refresh()
	}
	ctx, cancel := settleContext(c)
	defer cancel()
	if err := table.Wait(ctx); err != nil {
		handlershared.RequestLog(c).Debugw("seller_items_wait_interrupted", "error", err)
	}
	result := table.Snapshot()
	if result.Error != "" && len(result.Rows) == 0 {
		handlershared.RespondErrorWithData(c, response.CodeBadGateway, msgSellerItemsFailed, result)
		return
	}
	response.Success(c, result)
}

// UpdateItemStatus PATCH /seller/items/:id/status 乐观修改，失败时返回回滚后的单元状态
func (h *Handler) UpdateItemStatus(c *gin.Context) {
	itemID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		handlershared.RespondError(c, response.CodeBadRequest, msgInvalidItemID, nil)
		return
	}
	var req UpdateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, msgInvalidRequest, nil)
		return
	}
	table := h.view(c).SellerItems()
	if table.Snapshot().Generation == 0 {
		// 新会话尚未加载表格，先取一次当前页作为回滚基准
		table.Refresh()
		ctx, cancel := settleContext(c)
		if err := table.Wait(ctx); err != nil {
			handlershared.RequestLog(c).Debugw("seller_items_wait_interrupted", "error", err)
		}
		cancel()
	}
	state, err := table.Cell(itemID).Change(c.Request.Context(), req.Status)
	if err != nil {
		handlershared.RequestLog(c).Infow("seller_item_status_rejected", "item_id", itemID, "phase", state.Phase)
		respondSellerError(c, err, msgItemSaveFailed)
		return
	}
	response.Success(c, state)
}

// CreateItem POST /seller/items multipart 或 JSON 表单
func (h *Handler) CreateItem(c *gin.Context) {
	form, err := bindItemForm(c)
	if err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, msgInvalidRequest, nil)
		return
	}
	item, err := h.ItemEditor.Create(c.Request.Context(), form)
	if err != nil {
		respondSellerError(c, err, msgItemSaveFailed)
		return
	}
	h.view(c).SellerItems().Refresh()
	response.Success(c, item)
}

// UpdateItem PUT /seller/items/:id
func (h *Handler) UpdateItem(c *gin.Context) {
	itemID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		handlershared.RespondError(c, response.CodeBadRequest, msgInvalidItemID, nil)
		return
	}
	form, err := bindItemForm(c)
	if err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, msgInvalidRequest, nil)
		return
	}
	item, err := h.ItemEditor.Update(c.Request.Context(), itemID, form)
	if err != nil {
		respondSellerError(c, err, msgItemSaveFailed)
		return
	}
	h.view(c).SellerItems().Refresh()
	response.Success(c, item)
}

// DeleteItem DELETE /seller/items/:id
func (h *Handler) DeleteItem(c *gin.Context) {
	itemID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		handlershared.RespondError(c, response.CodeBadRequest, msgInvalidItemID, nil)
		return
	}
	if err := h.ItemEditor.Delete(c.Request.Context(), itemID); err != nil {
		respondSellerError(c, err, msgItemDeleteFailed)
		return
	}
	h.view(c).SellerItems().Refresh()
	response.Success(c, gin.H{"id": strconv.FormatUint(uint64(itemID), 10)})
}

// Statistics GET /seller/items/statistics
func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.ItemEditor.Statistics(c.Request.Context())
	if err != nil {
		respondSellerError(c, err, msgStatisticsFailed)
		return
	}
	response.Success(c, stats)
}
