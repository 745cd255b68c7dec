package seller

import (
	"context"
	"time"

	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/provider"
	"github.com/ayokah-next/internal/session"

	"github.com/gin-gonic/gin"
)

const settleTimeout = 10 * time.Second

// Handler 卖家接口处理器入口
// 说明：该处理器仅用于 vendor 角色的 /seller 接口。
type Handler struct {
	*provider.Container
}

// New 创建卖家处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func (h *Handler) view(c *gin.Context) *session.View {
	return h.Sessions.View(c.Request.Context(), handlershared.CurrentIdentity(c))
}

func settleContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), settleTimeout)
}
