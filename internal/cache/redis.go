package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayokah-next/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "ayk"
	pingTimeout      = 3 * time.Second
)

// store 进程级 Redis 句柄，client 为 nil 时所有操作退化为未命中
type store struct {
	client *redis.Client
	prefix string
}

var shared = store{prefix: defaultKeyPrefix}

// InitRedis 按配置连接 Redis；连接探测失败时保持关闭并返回错误，调用方回退到内存实现
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		UseClient(nil, "")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		UseClient(nil, "")
		return fmt.Errorf("redis ping %s: %w", cfg.Addr(), err)
	}
	UseClient(client, cfg.Prefix)
	return nil
}

// UseClient 直接注入客户端，nil 表示关闭缓存
func UseClient(client *redis.Client, prefix string) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	shared = store{client: client, prefix: prefix}
}

// Enabled 是否有可用的 Redis
func Enabled() bool {
	return shared.client != nil
}

// Client 返回底层客户端，未启用时为 nil
func Client() *redis.Client {
	return shared.client
}

// GetJSON 读取并反序列化，未命中返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !Enabled() {
		return false, nil
	}
	raw, err := shared.client.Get(ctx, shared.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return true, nil
}

// SetJSON 序列化写入，ttl<=0 表示不过期
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return shared.client.Set(ctx, shared.key(key), raw, ttl).Err()
}

// Del 删除键
func Del(ctx context.Context, key string) error {
	if !Enabled() {
		return nil
	}
	return shared.client.Del(ctx, shared.key(key)).Err()
}

func (s store) key(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.prefix
	}
	return s.prefix + ":" + key
}
