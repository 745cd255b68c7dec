package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestSetDefaultsUnmarshal(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal defaults failed: %v", err)
	}
	if cfg.Commerce.BaseURL != "https://api.ayokah.co.uk/api/v1" {
		t.Fatalf("unexpected base url: %s", cfg.Commerce.BaseURL)
	}
	if cfg.Catalog.DebounceMS != 300 || cfg.Orders.DebounceMS != 300 {
		t.Fatalf("debounce defaults want 300ms, got catalog=%d orders=%d", cfg.Catalog.DebounceMS, cfg.Orders.DebounceMS)
	}
	if cfg.Orders.CustomerPageSize != 2 {
		t.Fatalf("customer page size want 2 got %d", cfg.Orders.CustomerPageSize)
	}
	if cfg.Commerce.CacheTTL() != time.Hour {
		t.Fatalf("cache ttl want 1h got %s", cfg.Commerce.CacheTTL())
	}
	if cfg.Queue.Queues["critical"] != 5 {
		t.Fatalf("unexpected queues: %v", cfg.Queue.Queues)
	}
}

func TestCommerceTimeoutFallback(t *testing.T) {
	if got := (CommerceConfig{}).Timeout(); got != 15*time.Second {
		t.Fatalf("timeout fallback want 15s got %s", got)
	}
	if got := (CommerceConfig{TimeoutSeconds: 3}).Timeout(); got != 3*time.Second {
		t.Fatalf("timeout want 3s got %s", got)
	}
	if got := (CommerceConfig{}).CacheTTL(); got != 0 {
		t.Fatalf("cache ttl should be disabled, got %s", got)
	}
}

func TestMillis(t *testing.T) {
	if got := Millis(0, 300*time.Millisecond); got != 300*time.Millisecond {
		t.Fatalf("fallback want 300ms got %s", got)
	}
	if got := Millis(50, time.Second); got != 50*time.Millisecond {
		t.Fatalf("want 50ms got %s", got)
	}
}

func TestRedisAddrDefaults(t *testing.T) {
	if addr := (RedisConfig{}).Addr(); addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected default addr %s", addr)
	}
	if addr := (QueueConfig{Host: " redis ", Port: 6380}).Addr(); addr != "redis:6380" {
		t.Fatalf("unexpected queue addr %s", addr)
	}
}
