package public

import (
	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/http/response"
	"github.com/ayokah-next/internal/models"
	"github.com/ayokah-next/internal/session"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	Slug     string `json:"slug" binding:"required"`
	Quantity int    `json:"quantity"`
}

// UpdateCartItemRequest 修改数量请求，数量 <= 0 时移除
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type cartResponse struct {
	Items    []models.CartLine `json:"items"`
	Count    int               `json:"count"`
	Subtotal models.Money      `json:"subtotal"`
	Ready    bool              `json:"ready"`
}

func buildCartResponse(view *session.View) cartResponse {
	lines := view.Cart.Lines()
	if lines == nil {
		lines = []models.CartLine{}
	}
	return cartResponse{
		Items:    lines,
		Count:    view.Cart.Count(),
		Subtotal: view.Cart.Subtotal(),
		Ready:    view.Cart.Ready(),
	}
}

// GetCart GET /cart
func (h *Handler) GetCart(c *gin.Context) {
	response.Success(c, buildCartResponse(h.view(c)))
}

// ClearCart DELETE /cart
func (h *Handler) ClearCart(c *gin.Context) {
	view := h.view(c)
	if err := view.Cart.Clear(c.Request.Context()); err != nil {
		respondStoreError(c, err)
		return
	}
	response.Success(c, buildCartResponse(view))
}

// AddCartItem POST /cart/items 按 slug 拉取商品快照后加入
func (h *Handler) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "Slug: This field is required", nil)
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	view := h.view(c)
	if err := h.StorefrontService.AddToCart(c.Request.Context(), view.Cart, req.Slug, req.Quantity); err != nil {
		respondStoreError(c, err)
		return
	}
	response.Success(c, buildCartResponse(view))
}

// UpdateCartItem PATCH /cart/items/:id
func (h *Handler) UpdateCartItem(c *gin.Context) {
	itemID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		handlershared.RespondError(c, response.CodeBadRequest, "Invalid item", nil)
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "Quantity: This field is required", nil)
		return
	}
	view := h.view(c)
	if err := view.Cart.SetQuantity(c.Request.Context(), itemID, *req.Quantity); err != nil {
		respondStoreError(c, err)
		return
	}
	response.Success(c, buildCartResponse(view))
}

// DeleteCartItem DELETE /cart/items/:id
func (h *Handler) DeleteCartItem(c *gin.Context) {
	itemID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		handlershared.RespondError(c, response.CodeBadRequest, "Invalid item", nil)
		return
	}
	view := h.view(c)
	if err := view.Cart.Remove(c.Request.Context(), itemID); err != nil {
		respondStoreError(c, err)
		return
	}
	response.Success(c, buildCartResponse(view))
}
