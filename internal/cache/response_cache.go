package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// ResponseCache 上游公开 GET 响应缓存，按完整请求 URL 归档
type ResponseCache struct{}

// NewResponseCache 创建响应缓存；Redis 未启用时返回 nil
func NewResponseCache() *ResponseCache {
	if !Enabled() {
		return nil
	}
	return &ResponseCache{}
}

type cachedResponse struct {
	Body []byte `json:"body"`
}

// Get 读取缓存的响应体
func (c *ResponseCache) Get(ctx context.Context, url string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	var entry cachedResponse
	hit, err := GetJSON(ctx, responseKey(url), &entry)
	if err != nil || !hit {
		return nil, false
	}
	return entry.Body, true
}

// Set 写入响应体
func (c *ResponseCache) Set(ctx context.Context, url string, body []byte, ttl time.Duration) error {
	if c == nil || ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, responseKey(url), cachedResponse{Body: body}, ttl)
}

func responseKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return "http:get:" + hex.EncodeToString(sum[:])
}
