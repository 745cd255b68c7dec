package public

import (
	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/http/response"
	"github.com/ayokah-next/internal/models"
	"github.com/ayokah-next/internal/session"
	"github.com/ayokah-next/internal/store"

	"github.com/gin-gonic/gin"
)

// AddWishlistItemRequest 加入收藏夹请求
type AddWishlistItemRequest struct {
	Slug string `json:"slug" binding:"required"`
}

type wishlistResponse struct {
	Items []models.WishlistEntry `json:"items"`
	Ready bool                   `json:"ready"`
}

func buildWishlistResponse(view *session.View) wishlistResponse {
	items := view.Wishlist.Items()
	if items == nil {
		items = []models.WishlistEntry{}
	}
	return wishlistResponse{Items: items, Ready: view.Wishlist.Ready()}
}

// GetWishlist GET /wishlist
func (h *Handler) GetWishlist(c *gin.Context) {
	response.Success(c, buildWishlistResponse(h.view(c)))
}

// AddWishlistItem POST /wishlist/items
func (h *Handler) AddWishlistItem(c *gin.Context) {
	var req AddWishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "Slug: This field is required", nil)
		return
	}
	view := h.view(c)
	if err := h.StorefrontService.AddToWishlist(c.Request.Context(), view.Wishlist, req.Slug); err != nil {
		respondStoreError(c, err)
		return
	}
	response.Success(c, buildWishlistResponse(view))
}

// DeleteWishlistItem DELETE /wishlist/items/:id
func (h *Handler) DeleteWishlistItem(c *gin.Context) {
	itemID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		handlershared.RespondError(c, response.CodeBadRequest, "Invalid item", nil)
		return
	}
	view := h.view(c)
	if err := view.Wishlist.Remove(c.Request.Context(), itemID); err != nil {
		respondStoreError(c, err)
		return
	}
	response.Success(c, buildWishlistResponse(view))
}

// MoveWishlistItemToCart POST /wishlist/items/:id/move-to-cart
func (h *Handler) MoveWishlistItemToCart(c *gin.Context) {
	itemID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		handlershared.RespondError(c, response.CodeBadRequest, "Invalid item", nil)
		return
	}
	view := h.view(c)
	if err := store.MoveToCart(c.Request.Context(), view.Wishlist, view.Cart, itemID); err != nil {
		respondStoreError(c, err)
		return
	}
	response.Success(c, gin.H{
		"wishlist": buildWishlistResponse(view),
		"cart":     buildCartResponse(view),
	})
}
