package public

import (
	"strings"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/constants"
	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/http/response"
	"github.com/ayokah-next/internal/repository"
	"github.com/ayokah-next/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	msgAddressLoadFailed     = "Unable to load your address"
	msgPreferencesLoadFailed = "Unable to load your preferences"
	msgPreferencesSaveFailed = "Unable to save your preferences"
	msgWishlistLoadFailed    = "Unable to load your wishlist"
	msgWishlistSaveFailed    = "Unable to save your wishlist"
	msgInvalidRequest        = "Invalid request"
	msgCheckoutHistoryFailed = "Unable to load your checkouts"
)

// GetAddress GET /account/address 首个地址，没有时返回默认值
func (h *Handler) GetAddress(c *gin.Context) {
	addr, err := h.AccountService.Address(c.Request.Context(), handlershared.CurrentIdentity(c))
	if err != nil {
		respondAccountError(c, err, msgAddressLoadFailed)
		return
	}
	response.Success(c, addr)
}

// SaveAddress PUT /account/address
func (h *Handler) SaveAddress(c *gin.Context) {
	var in service.AddressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, msgInvalidRequest, nil)
		return
	}
	addr, err := h.AccountService.SaveAddress(c.Request.Context(), in)
	if err != nil {
		respondAccountError(c, err, constants.MsgAddressSaveFailed)
		return
	}
	response.Success(c, addr)
}

// ListCustomerOrders GET /account/orders?search= 搜索变化时防抖替换，首次访问时加载
func (h *Handler) ListCustomerOrders(c *gin.Context) {
	list := h.view(c).CustomerOrders()
	snapshot := list.Snapshot()
	search, hasSearch := c.GetQuery("search")
	search = strings.TrimSpace(search)
	switch {
	case hasSearch && search != snapshot.Search:
		list.SetSearch(search)
	case !snapshot.Loaded && !snapshot.Loading:
		list.Refresh()
	}
	ctx, cancel := settleContext(c)
	defer cancel()
	if err := list.Wait(ctx); err != nil {
		handlershared.RequestLog(c).Debugw("customer_orders_wait_interrupted", "error", err)
	}
	response.Success(c, list.Snapshot())
}

// LoadMoreCustomerOrders POST /account/orders/more 追加下一页
func (h *Handler) LoadMoreCustomerOrders(c *gin.Context) {
	list := h.view(c).CustomerOrders()
	if list.LoadMore() != 0 {
		ctx, cancel := settleContext(c)
		defer cancel()
		if err := list.Wait(ctx); err != nil {
			handlershared.RequestLog(c).Debugw("customer_orders_wait_interrupted", "error", err)
		}
	}
	response.Success(c, list.Snapshot())
}

// GetPreferences GET /account/communication-preferences
func (h *Handler) GetPreferences(c *gin.Context) {
	prefs, err := h.AccountService.Preferences(c.Request.Context())
	if err != nil {
		respondAccountError(c, err, msgPreferencesLoadFailed)
		return
	}
	response.Success(c, prefs)
}

// SavePreferences PUT /account/communication-preferences
func (h *Handler) SavePreferences(c *gin.Context) {
	var prefs commerce.CommunicationPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, msgInvalidRequest, nil)
		return
	}
	resp, err := h.AccountService.SavePreferences(c.Request.Context(), prefs)
	if err != nil {
		respondAccountError(c, err, msgPreferencesSaveFailed)
		return
	}
	msg := "Preferences saved"
	if resp != nil && strings.TrimSpace(resp.Message) != "" {
		msg = resp.Message
	}
	response.SuccessWithMsg(c, msg, prefs)
}

// GetServerWishlist GET /account/wishlists 服务端收藏夹
func (h *Handler) GetServerWishlist(c *gin.Context) {
	items, err := h.AccountService.ServerWishlist(c.Request.Context())
	if err != nil {
		respondAccountError(c, err, msgWishlistLoadFailed)
		return
	}
	if items == nil {
		items = []commerce.Item{}
	}
	response.Success(c, items)
}

// SaveServerWishlist PUT /account/wishlists
func (h *Handler) SaveServerWishlist(c *gin.Context) {
	var req commerce.WishlistSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.AccountService.SaveServerWishlist(c.Request.Context(), req); err != nil {
		respondAccountError(c, err, msgWishlistSaveFailed)
		return
	}
	response.Success(c, req)
}

// ListCheckoutHistory GET /account/checkouts?status=&search=&page=&page_size= 当前用户的结账记录
func (h *Handler) ListCheckoutHistory(c *gin.Context) {
	page, pageSize := handlershared.NormalizePagination(
		handlershared.QueryInt(c, "page", 1),
		handlershared.QueryInt(c, "page_size", 20),
	)
	records, total, err := h.CheckoutRecordRepo.List(repository.CheckoutRecordListFilter{
		Page:     page,
		PageSize: pageSize,
		OwnerKey: handlershared.CurrentIdentity(c).Owner(),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
	})
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, msgCheckoutHistoryFailed, err)
		return
	}
	response.SuccessWithPage(c, records, response.NewPagination(page, pageSize, total))
}
