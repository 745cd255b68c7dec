package seller

import (
	"errors"

	"github.com/ayokah-next/internal/catalog"
	"github.com/ayokah-next/internal/commerce"
	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest     = "Invalid request"
	msgInvalidItemID      = "Invalid item id"
	msgItemSaveFailed     = "Unable to save item"
	msgItemDeleteFailed   = "Unable to delete item"
	msgStatisticsFailed   = "Unable to load statistics"
	msgSellerItemsFailed  = "Unable to load your items"
	msgSellerOrdersFailed = "Unable to load your orders"
)

// respondSellerError 表单与状态校验错误返回 400，上游错误按状态码映射
func respondSellerError(c *gin.Context, err error, fallbackMsg string) {
	if errors.Is(err, catalog.ErrStatusUpdate) || errors.Is(err, commerce.ErrValidation) {
		handlershared.RespondError(c, response.CodeBadRequest, commerce.HumanMessage(err, fallbackMsg), nil)
		return
	}
	handlershared.RespondError(c, upstreamCode(err), commerce.HumanMessage(err, fallbackMsg), err)
}

func upstreamCode(err error) int {
	var apiErr *commerce.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, commerce.ErrRequestFailed) || errors.Is(err, commerce.ErrResponseInvalid) {
			return response.CodeBadGateway
		}
		return response.CodeInternal
	}
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
