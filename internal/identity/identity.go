package identity

import (
	"context"
	"strconv"
	"strings"

	"github.com/ayokah-next/internal/constants"
)

// Identity 当前请求身份：登录用户或访客会话
type Identity struct {
	SessionID string
	UserID    uint
	Email     string
	Name      string
	Phone     string
	Role      string
	Token     string
}

// Authenticated 是否为登录用户
func (i Identity) Authenticated() bool {
	return i.UserID != 0 && strings.TrimSpace(i.Token) != ""
}

// Owner 会话归属键：登录用户 user:<id>，访客 guest:<session>
func (i Identity) Owner() string {
	if i.UserID != 0 {
		return constants.OwnerPrefixUser + strconv.FormatUint(uint64(i.UserID), 10)
	}
	return constants.OwnerPrefixGuest + strings.TrimSpace(i.SessionID)
}

// HasRole 判断角色
func (i Identity) HasRole(role string) bool {
	return i.Authenticated() && strings.EqualFold(strings.TrimSpace(i.Role), role)
}

// Subject 授权主体，未登录时为 guest
func (i Identity) Subject() string {
	if !i.Authenticated() {
		return constants.RoleGuest
	}
	role := strings.ToLower(strings.TrimSpace(i.Role))
	if role == "" {
		return constants.RoleGuest
	}
	return role
}

type ctxKey struct{}

// WithContext 将身份附加到 context
func WithContext(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext 读取 context 中的身份
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
