package seller

import (
	"strings"

	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListOrders GET /seller/orders?search=&page= 卖家订单分页列表
func (h *Handler) ListOrders(c *gin.Context) {
	list := h.view(c).SellerOrders()
	snapshot := list.Snapshot()
	search, hasSearch := c.GetQuery("search")
	search = strings.TrimSpace(search)
	page := handlershared.QueryInt(c, "page", snapshot.Page)
	switch {
	case hasSearch && search != snapshot.Search:
		list.SetSearch(search)
	case page != snapshot.Page:
		list.SetPage(page)
	case !snapshot.Loaded && !snapshot.Loading:
		list.SetPage(snapshot.Page)
	}
	ctx, cancel := settleContext(c)
	defer cancel()
	if err := list.Wait(ctx); err != nil {
		handlershared.RequestLog(c).Debugw("seller_orders_wait_interrupted", "error", err)
	}
	result := list.Snapshot()
	if result.Error != "" && !result.Loaded {
		handlershared.RespondErrorWithData(c, response.CodeBadGateway, msgSellerOrdersFailed, result)
		return
	}
	response.Success(c, result)
}
