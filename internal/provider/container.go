package provider

import (
	"strings"
	"time"

	"github.com/ayokah-next/internal/authz"
	"github.com/ayokah-next/internal/cache"
	"github.com/ayokah-next/internal/catalog"
	"github.com/ayokah-next/internal/checkout"
	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/config"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/metrics"
	"github.com/ayokah-next/internal/models"
	"github.com/ayokah-next/internal/queue"
	"github.com/ayokah-next/internal/repository"
	"github.com/ayokah-next/internal/service"
	"github.com/ayokah-next/internal/session"
	"github.com/ayokah-next/internal/shipping"
	"github.com/ayokah-next/internal/store"
)

const (
	defaultSweepInterval = time.Minute
	defaultVerifyDelay   = 30 * time.Second
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Recorder
	Commerce    *commerce.Client

	// Repositories
	CartRepo           repository.CartRepository
	WishlistRepo       repository.WishlistRepository
	CheckoutRecordRepo repository.CheckoutRecordRepository

	// Services
	AuthzService      *authz.Service
	StorefrontService *service.StorefrontService
	AccountService    *service.AccountService
	ItemEditor        *catalog.Editor
	Verifier          *checkout.Verifier
	Sessions          *session.Manager
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端（未启用时为空操作客户端）
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Metrics:     metrics.New(),
	}

	// 1. 初始化上游客户端
	c.initCommerce()

	// 2. 初始化 Repositories
	c.initRepositories()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initCommerce() {
	opts := commerce.Options{
		BaseURL:        c.Config.Commerce.BaseURL,
		Timeout:        c.Config.Commerce.Timeout(),
		RateLimitRPS:   c.Config.Commerce.RateLimitRPS,
		RateLimitBurst: c.Config.Commerce.RateLimitBurst,
		CacheTTL:       c.Config.Commerce.CacheTTL(),
		Metrics:        c.Metrics,
	}
	if responseCache := cache.NewResponseCache(); responseCache != nil {
		opts.Cache = responseCache
	}
	client, err := commerce.New(opts)
	if err != nil {
		logger.Errorw("provider_init_commerce_client_failed", "error", err)
		panic(err)
	}
	c.Commerce = client
}

func (c *Container) initRepositories() {
	db := models.DB
	c.CartRepo = repository.NewCartRepository(db)
	c.WishlistRepo = repository.NewWishlistRepository(db)
	c.CheckoutRecordRepo = repository.NewCheckoutRecordRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.StorefrontService = service.NewStorefrontService(c.Commerce)
	c.AccountService = service.NewAccountService(c.Commerce, c.Config.Checkout.DefaultCountry)
	c.ItemEditor = catalog.NewEditor(c.Commerce)
	c.Verifier = checkout.NewVerifier(c.Commerce, c.CheckoutRecordRepo)

	deps := session.Deps{
		Client:   c.Commerce,
		Stores:   store.NewRegistry(store.NewRepositoryPersisters(c.CartRepo, c.WishlistRepo)),
		Records:  c.CheckoutRecordRepo,
		Queue:    c.QueueClient,
		Metrics:  c.Metrics,
		Settings: c.sessionSettings(),
	}
	if quotes := shipping.NewRedisQuoteStore(time.Duration(c.Config.Session.QuoteTTLSeconds) * time.Second); quotes != nil {
		deps.Quotes = quotes
	}
	c.Sessions = session.NewManager(deps)
}

func (c *Container) sessionSettings() session.Settings {
	cfg := c.Config
	verifyDelay := defaultVerifyDelay
	if cfg.Checkout.VerifyDelaySeconds > 0 {
		verifyDelay = time.Duration(cfg.Checkout.VerifyDelaySeconds) * time.Second
	}
	return session.Settings{
		IdleTTL:          time.Duration(cfg.Session.ViewIdleTTLSeconds) * time.Second,
		DefaultCountry:   strings.TrimSpace(cfg.Checkout.DefaultCountry),
		DeviceName:       cfg.Commerce.DeviceName,
		VerifyDelay:      verifyDelay,
		CatalogPageSize:  cfg.Catalog.PageSize,
		CatalogDebounce:  config.Millis(cfg.Catalog.DebounceMS, 300*time.Millisecond),
		QuickSearchLimit: cfg.Catalog.QuickSearchLimit,
		OrdersDebounce:   config.Millis(cfg.Orders.DebounceMS, 300*time.Millisecond),
		CustomerPageSize: cfg.Orders.CustomerPageSize,
		SellerPageSize:   cfg.Orders.SellerPageSize,
	}
}

// SweepInterval 会话回收周期
func (c *Container) SweepInterval() time.Duration {
	if c.Config.Session.SweepIntervalSeconds <= 0 {
		return defaultSweepInterval
	}
	return time.Duration(c.Config.Session.SweepIntervalSeconds) * time.Second
}
