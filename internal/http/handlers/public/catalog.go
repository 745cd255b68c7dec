package public

import (
	"strconv"
	"strings"

	"github.com/ayokah-next/internal/commerce"
	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultItemPageSize = 12
	msgItemsLoadFailed  = "Unable to load items"
	msgShopsLoadFailed  = "Unable to load shops"
)

// ListItems GET /items 公开商品列表
func (h *Handler) ListItems(c *gin.Context) {
	limit, offset := handlershared.LimitOffset(c, defaultItemPageSize)
	maxPrice, _ := strconv.ParseFloat(strings.TrimSpace(c.Query("max_price")), 64)
	env, err := h.StorefrontService.Items(c.Request.Context(), commerce.ItemListQuery{
		Limit:        limit,
		Offset:       offset,
		Search:       strings.TrimSpace(c.Query("search")),
		Type:         strings.TrimSpace(c.Query("type")),
		Status:       strings.TrimSpace(c.Query("status")),
		Category:     strings.TrimSpace(c.Query("category")),
		Sort:         strings.TrimSpace(c.Query("sort")),
		MaxPrice:     maxPrice,
		Availability: strings.TrimSpace(c.Query("availability")),
	})
	if err != nil {
		respondUpstreamError(c, err, msgItemsLoadFailed)
		return
	}
	response.SuccessWithPage(c, env.Data, pageOf(env))
}

// QuickSearch GET /items/search?q= 头部搜索框：防抖后返回最新结果
func (h *Handler) QuickSearch(c *gin.Context) {
	search := h.view(c).QuickSearch
	search.Search(c.Query("q"))
	ctx, cancel := settleContext(c)
	defer cancel()
	if err := search.Wait(ctx); err != nil {
		handlershared.RequestLog(c).Debugw("quick_search_wait_interrupted", "error", err)
	}
	response.Success(c, search.Snapshot())
}

// GetItem GET /items/:slug 商品详情
func (h *Handler) GetItem(c *gin.Context) {
	item, err := h.StorefrontService.Item(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondUpstreamError(c, err, msgItemsLoadFailed)
		return
	}
	response.Success(c, item)
}

// ListShops GET /shops 店铺列表
func (h *Handler) ListShops(c *gin.Context) {
	limit, offset := handlershared.LimitOffset(c, defaultItemPageSize)
	env, err := h.StorefrontService.Shops(c.Request.Context(), commerce.ShopListQuery{
		Limit:  limit,
		Offset: offset,
		Type:   strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		respondUpstreamError(c, err, msgShopsLoadFailed)
		return
	}
	response.SuccessWithPage(c, env.Data, pageOf(env))
}

// ListShopItems GET /shops/:slug/items 店铺商品
func (h *Handler) ListShopItems(c *gin.Context) {
	limit, offset := handlershared.LimitOffset(c, defaultItemPageSize)
	env, err := h.StorefrontService.ShopItems(c.Request.Context(), c.Param("slug"), commerce.PageQuery{
		Limit:  limit,
		Offset: offset,
		Search: strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondUpstreamError(c, err, msgItemsLoadFailed)
		return
	}
	response.SuccessWithPage(c, env.Data, pageOf(env))
}
