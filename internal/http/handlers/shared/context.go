package shared

import (
	"github.com/ayokah-next/internal/identity"

	"github.com/gin-gonic/gin"
)

// IdentityContextKey gin 上下文中的身份键
const IdentityContextKey = "identity"

// SetIdentity 写入当前请求身份
func SetIdentity(c *gin.Context, id identity.Identity) {
	c.Set(IdentityContextKey, id)
	c.Request = c.Request.WithContext(identity.WithContext(c.Request.Context(), id))
}

// CurrentIdentity 读取当前请求身份，未经过身份中间件时返回零值
func CurrentIdentity(c *gin.Context) identity.Identity {
	if c == nil {
		return identity.Identity{}
	}
	if value, ok := c.Get(IdentityContextKey); ok {
		if id, ok := value.(identity.Identity); ok {
			return id
		}
	}
	if c.Request != nil {
		if id, ok := identity.FromContext(c.Request.Context()); ok {
			return id
		}
	}
	return identity.Identity{}
}
