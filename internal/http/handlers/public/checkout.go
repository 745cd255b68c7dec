package public

import (
	"strings"

	"github.com/ayokah-next/internal/constants"
	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/http/response"
	"github.com/ayokah-next/internal/shipping"

	"github.com/gin-gonic/gin"
)

// SelectShippingRequest 选择运费选项
type SelectShippingRequest struct {
	Option string `json:"option" binding:"required"`
}

// RequestShippingRates POST /checkout/shipping-rates 请求报价，同时记录访客邮箱
func (h *Handler) RequestShippingRates(c *gin.Context) {
	var in shipping.RateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, constants.MsgShippingRateFailed, nil)
		return
	}
	in.IP = c.ClientIP()
	if strings.TrimSpace(in.Email) == "" {
		in.Email = handlershared.CurrentIdentity(c).Email
	}
	snapshot, err := h.view(c).Shipping.Request(c.Request.Context(), in)
	if err != nil {
		respondShippingError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// SelectShippingRate POST /checkout/shipping-rates/select
func (h *Handler) SelectShippingRate(c *gin.Context) {
	var req SelectShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, constants.MsgSelectShippingOption, nil)
		return
	}
	snapshot, err := h.view(c).Shipping.Pick(c.Request.Context(), req.Option)
	if err != nil {
		respondShippingError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// GetCheckoutSummary GET /checkout/summary
func (h *Handler) GetCheckoutSummary(c *gin.Context) {
	response.Success(c, h.view(c).Checkout.Summary(c.Request.Context()))
}

// SubmitCheckout POST /checkout 返回支付跳转地址
func (h *Handler) SubmitCheckout(c *gin.Context) {
	result, err := h.view(c).Checkout.Submit(c.Request.Context(), handlershared.CurrentIdentity(c))
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, result)
}

// VerifyCheckout GET /checkout/verify?session_id= 支付回跳校验
func (h *Handler) VerifyCheckout(c *gin.Context) {
	result, err := h.Verifier.Verify(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, result.ReceiptFor(handlershared.CurrentIdentity(c).Owner()))
}
