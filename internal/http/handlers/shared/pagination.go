package shared

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// NormalizePagination 归一化分页参数。
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// LimitOffset 读取 page/page_size 或 limit/offset 查询参数，统一为 limit/offset。
func LimitOffset(c *gin.Context, defaultSize int) (int, int) {
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, _ := strconv.Atoi(raw)
		offset, _ := strconv.Atoi(c.Query("offset"))
		if offset < 0 {
			offset = 0
		}
		_, limit = NormalizePagination(1, limit)
		return limit, offset
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultSize)))
	page, size = NormalizePagination(page, size)
	return size, (page - 1) * size
}

// QueryInt 读取整数查询参数，无效时返回 fallback。
func QueryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// ParamUint 读取路径中的正整数 id。
func ParamUint(c *gin.Context, key string) (uint, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(c.Param(key)), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
