package public

import (
	"context"
	"time"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

const settleTimeout = 10 * time.Second

// settleContext 等待防抖查询落定的上下文，随请求取消
func settleContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), settleTimeout)
}

func pageOf[T any](env *commerce.ListEnvelope[T]) response.Pagination {
	if env == nil {
		return response.NewPagination(1, 0, 0)
	}
	size := env.Limit
	if size <= 0 {
		size = len(env.Data)
	}
	page := 1
	if size > 0 {
		page = env.Offset/size + 1
	}
	return response.NewPagination(page, size, int64(env.Total))
}
