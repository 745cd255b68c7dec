package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ayokah-next/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Commerce CommerceConfig `mapstructure:"commerce"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Session  SessionConfig  `mapstructure:"session"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Orders   OrdersConfig   `mapstructure:"orders"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Stdout     bool   `mapstructure:"stdout"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Stdout:     c.Stdout,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`

	// 慢查询阈值（毫秒）
	SlowQueryMs int `mapstructure:"slow_query_ms"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Addr 返回 host:port，缺省为本机 6379
func (c RedisConfig) Addr() string {
	return redisAddr(c.Host, c.Port)
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// Addr 返回队列 Redis 的 host:port
func (c QueueConfig) Addr() string {
	return redisAddr(c.Host, c.Port)
}

func redisAddr(host string, port int) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = "127.0.0.1"
	}
	if port <= 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// CommerceConfig 上游商城 API 配置
type CommerceConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds"`
	RateLimitRPS    float64 `mapstructure:"rate_limit_rps"` // 0 表示不限流
	RateLimitBurst  int     `mapstructure:"rate_limit_burst"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds"`
	DeviceName      string  `mapstructure:"device_name"`
}

// Timeout 请求超时
func (c CommerceConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL 公开 GET 响应缓存时间
func (c CommerceConfig) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// AuthConfig 鉴权配置（令牌由上游签发）
type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"` // 为空时仅解析不验签
	TokenCookie string `mapstructure:"token_cookie"`
	RoleCookie  string `mapstructure:"role_cookie"`
}

// SessionConfig 会话配置
type SessionConfig struct {
	Cookie               string `mapstructure:"cookie"`
	CookieMaxAgeSeconds  int    `mapstructure:"cookie_max_age_seconds"`
	ViewIdleTTLSeconds   int    `mapstructure:"view_idle_ttl_seconds"`
	SweepIntervalSeconds int    `mapstructure:"sweep_interval_seconds"`
	QuoteTTLSeconds      int    `mapstructure:"quote_ttl_seconds"`
}

// CatalogConfig 卖家商品列表配置
type CatalogConfig struct {
	DebounceMS       int `mapstructure:"debounce_ms"`
	PageSize         int `mapstructure:"page_size"`
	QuickSearchLimit int `mapstructure:"quick_search_limit"`
}

// OrdersConfig 订单列表配置
type OrdersConfig struct {
	DebounceMS       int `mapstructure:"debounce_ms"`
	CustomerPageSize int `mapstructure:"customer_page_size"`
	SellerPageSize   int `mapstructure:"seller_page_size"`
}

// CheckoutConfig 结账配置
type CheckoutConfig struct {
	VerifyDelaySeconds int    `mapstructure:"verify_delay_seconds"`
	DefaultCountry     string `mapstructure:"default_country"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	CheckoutRateLimit RateLimitConfig `mapstructure:"checkout_rate_limit"`
	ShippingRateLimit RateLimitConfig `mapstructure:"shipping_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// Millis 将毫秒配置转换为时长
func Millis(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults(viper.GetViper())

	// 环境变量支持（例如 commerce.base_url -> COMMERCE_BASE_URL），.env 不覆盖已有变量
	if err := godotenv.Load(); err == nil {
		logger.Infow("config_dotenv_loaded")
	}
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("config unmarshal failed: %w", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "")
	v.SetDefault("log.stdout", false)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/ayokah.db")
	v.SetDefault("database.slow_query_ms", 500)
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "ayk")
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("commerce.base_url", "https://api.ayokah.co.uk/api/v1")
	v.SetDefault("commerce.timeout_seconds", 15)
	v.SetDefault("commerce.rate_limit_rps", 0)
	v.SetDefault("commerce.rate_limit_burst", 10)
	v.SetDefault("commerce.cache_ttl_seconds", 3600)
	v.SetDefault("commerce.device_name", "web")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_cookie", "token")
	v.SetDefault("auth.role_cookie", "role")
	v.SetDefault("session.cookie", "ayk_sid")
	v.SetDefault("session.cookie_max_age_seconds", 30*24*3600)
	v.SetDefault("session.view_idle_ttl_seconds", 1800)
	v.SetDefault("session.sweep_interval_seconds", 60)
	v.SetDefault("session.quote_ttl_seconds", 3600)
	v.SetDefault("catalog.debounce_ms", 300)
	v.SetDefault("catalog.page_size", 10)
	v.SetDefault("catalog.quick_search_limit", 10)
	v.SetDefault("orders.debounce_ms", 300)
	v.SetDefault("orders.customer_page_size", 2)
	v.SetDefault("orders.seller_page_size", 10)
	v.SetDefault("checkout.verify_delay_seconds", 60)
	v.SetDefault("checkout.default_country", "UK")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.checkout_rate_limit.window_seconds", 60)
	v.SetDefault("security.checkout_rate_limit.max_requests", 10)
	v.SetDefault("security.shipping_rate_limit.window_seconds", 60)
	v.SetDefault("security.shipping_rate_limit.max_requests", 30)
}
