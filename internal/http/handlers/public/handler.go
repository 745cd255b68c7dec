package public

import (
	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/provider"
	"github.com/ayokah-next/internal/session"

	"github.com/gin-gonic/gin"
)

// Handler 前台接口处理器入口
// 说明：公开目录、会话（访客或用户）购物车与结账、客户账户接口。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// view 当前请求身份对应的会话视图
func (h *Handler) view(c *gin.Context) *session.View {
	return h.Sessions.View(c.Request.Context(), handlershared.CurrentIdentity(c))
}
