package public

import (
	"errors"

	"github.com/ayokah-next/internal/checkout"
	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/constants"
	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/http/response"
	"github.com/ayokah-next/internal/service"
	"github.com/ayokah-next/internal/shipping"
	"github.com/ayokah-next/internal/store"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
// msg 为空时使用错误本身归一化后的文案。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			msg := rule.msg
			if msg == "" {
				msg = commerce.HumanMessage(err, fallbackMsg)
			}
			handlershared.RespondError(c, rule.code, msg, nil)
			return
		}
	}
	handlershared.RespondError(c, upstreamCode(err), commerce.HumanMessage(err, fallbackMsg), err)
}

// upstreamCode 上游 4xx 视为业务拒绝，其余为网关错误
func upstreamCode(err error) int {
	var apiErr *commerce.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == 401:
			return response.CodeUnauthorized
		case apiErr.Status == 403:
			return response.CodeForbidden
		case apiErr.Status == 404:
			return response.CodeNotFound
		case apiErr.Status == 429:
			return response.CodeTooManyRequests
		case apiErr.Status >= 400 && apiErr.Status < 500:
			return response.CodeBadRequest
		}
		return response.CodeBadGateway
	}
	if errors.Is(err, commerce.ErrRequestFailed) || errors.Is(err, commerce.ErrResponseInvalid) {
		return response.CodeBadGateway
	}
	return response.CodeInternal
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var validationErrorRules = []mappedHandlerError{
	{target: commerce.ErrValidation, code: response.CodeBadRequest},
}

var storeErrorRules = []mappedHandlerError{
	{target: store.ErrStoreNotReady, code: response.CodeConflict, msg: "Your basket is still loading, please retry"},
	{target: store.ErrInvalidItem, code: response.CodeBadRequest, msg: "Invalid item"},
	{target: store.ErrItemNotFound, code: response.CodeNotFound, msg: "Item not found"},
	{target: service.ErrItemUnavailable, code: response.CodeBadRequest, msg: "This item is no longer available"},
}

var shippingErrorRules = []mappedHandlerError{
	{target: shipping.ErrCartEmpty, code: response.CodeBadRequest, msg: "Your cart is empty"},
	{target: shipping.ErrNoQuote, code: response.CodeBadRequest, msg: constants.MsgSelectShippingOption},
	{target: shipping.ErrUnknownOption, code: response.CodeBadRequest, msg: constants.MsgSelectShippingOption},
	{target: shipping.ErrQuoteSuperseded, code: response.CodeConflict, msg: "Shipping quote is out of date, please request it again"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: checkout.ErrSubmitInProgress, code: response.CodeConflict, msg: "Checkout is already in progress"},
	{target: checkout.ErrMissingRedirect, code: response.CodeBadGateway, msg: constants.MsgCheckoutFailed},
	{target: checkout.ErrSessionIDRequired, code: response.CodeBadRequest, msg: "Session id is required"},
}

var accountErrorRules = []mappedHandlerError{
	{target: service.ErrAddressSaveFailed, code: response.CodeBadRequest},
}

func respondStoreError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(validationErrorRules, storeErrorRules), "Unable to update your basket")
}

func respondShippingError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(validationErrorRules, shippingErrorRules), constants.MsgShippingRateFailed)
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(validationErrorRules, checkoutErrorRules), constants.MsgCheckoutFailed)
}

func respondAccountError(c *gin.Context, err error, fallbackMsg string) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(validationErrorRules, accountErrorRules), fallbackMsg)
}

func respondUpstreamError(c *gin.Context, err error, fallbackMsg string) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(validationErrorRules, storeErrorRules), fallbackMsg)
}
