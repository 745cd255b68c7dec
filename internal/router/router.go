package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ayokah-next/internal/authz"
	"github.com/ayokah-next/internal/cache"
	"github.com/ayokah-next/internal/config"
	publichandlers "github.com/ayokah-next/internal/http/handlers/public"
	sellerhandlers "github.com/ayokah-next/internal/http/handlers/seller"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/provider"
	"github.com/ayokah-next/internal/validation"

	"github.com/gin-gonic/gin"
)

const (
	apiPrefix          = "/api/v1"
	defaultRedisPrefix = "ayk"
)

var guardedModules = []string{"account", "seller"}

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	validation.SetupGinValidator()
	r := gin.New()

	// 初始化 Handler（按前台/卖家分组）
	publicHandler := publichandlers.New(c)
	sellerHandler := sellerhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = defaultRedisPrefix
	}
	redisClient := cache.Client()
	shippingRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:shipping", redisPrefix),
		WindowSeconds: cfg.Security.ShippingRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.ShippingRateLimit.MaxRequests,
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(SessionMiddleware(cfg.Session))
	r.Use(IdentityMiddleware(cfg.Auth))

	apiV1 := r.Group(apiPrefix)
	{
		// 公开目录
		apiV1.GET("/items", publicHandler.ListItems)
		apiV1.GET("/items/search", publicHandler.QuickSearch)
		apiV1.GET("/items/:slug", publicHandler.GetItem)
		apiV1.GET("/shops", publicHandler.ListShops)
		apiV1.GET("/shops/:slug/items", publicHandler.ListShopItems)
		apiV1.GET("/checkout/verify", publicHandler.VerifyCheckout)

		// 会话接口（访客或用户）
		apiV1.GET("/cart", publicHandler.GetCart)
		apiV1.DELETE("/cart", publicHandler.ClearCart)
		apiV1.POST("/cart/items", publicHandler.AddCartItem)
		apiV1.PATCH("/cart/items/:id", publicHandler.UpdateCartItem)
		apiV1.DELETE("/cart/items/:id", publicHandler.DeleteCartItem)

		apiV1.GET("/wishlist", publicHandler.GetWishlist)
		apiV1.POST("/wishlist/items", publicHandler.AddWishlistItem)
		apiV1.DELETE("/wishlist/items/:id", publicHandler.DeleteWishlistItem)
		apiV1.POST("/wishlist/items/:id/move-to-cart", publicHandler.MoveWishlistItemToCart)

		apiV1.POST("/checkout/shipping-rates", RateLimitMiddleware(redisClient, shippingRule, KeyBySession), publicHandler.RequestShippingRates)
		apiV1.POST("/checkout/shipping-rates/select", publicHandler.SelectShippingRate)
		apiV1.GET("/checkout/summary", publicHandler.GetCheckoutSummary)
		apiV1.POST("/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByOwner), publicHandler.SubmitCheckout)

		// 客户账户（需 customer 角色）
		account := apiV1.Group("/account")
		account.Use(RoleGuardMiddleware(c.AuthzService))
		{
			account.GET("/address", publicHandler.GetAddress)
			account.PUT("/address", publicHandler.SaveAddress)
			account.GET("/orders", publicHandler.ListCustomerOrders)
			account.POST("/orders/more", publicHandler.LoadMoreCustomerOrders)
			account.GET("/communication-preferences", publicHandler.GetPreferences)
			account.PUT("/communication-preferences", publicHandler.SavePreferences)
			account.GET("/wishlists", publicHandler.GetServerWishlist)
			account.PUT("/wishlists", publicHandler.SaveServerWishlist)
			account.GET("/checkouts", publicHandler.ListCheckoutHistory)
		}

		// 卖家后台（需 vendor 角色）
		seller := apiV1.Group("/seller")
		seller.Use(RoleGuardMiddleware(c.AuthzService))
		{
			seller.GET("/items", sellerHandler.ListItems)
			seller.GET("/items/statistics", sellerHandler.Statistics)
			seller.POST("/items", sellerHandler.CreateItem)
			seller.PUT("/items/:id", sellerHandler.UpdateItem)
			seller.DELETE("/items/:id", sellerHandler.DeleteItem)
			seller.PATCH("/items/:id/status", sellerHandler.UpdateItemStatus)
			seller.GET("/orders", sellerHandler.ListOrders)
		}
	}

	r.GET("/metrics", gin.WrapH(c.Metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	reportUnreachableRoutes(r, c.AuthzService)
	return r
}

type guardedRoute struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildGuardedRouteCatalog 列出角色守卫下的路由，按模块与对象排序
func buildGuardedRouteCatalog(engine *gin.Engine) []guardedRoute {
	if engine == nil {
		return []guardedRoute{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]guardedRoute, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		module := deriveRouteModule(object)
		if !isGuardedModule(module) {
			continue
		}
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, guardedRoute{
			Module:     module,
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveRouteModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	return strings.Split(normalized, "/")[0]
}

func isGuardedModule(module string) bool {
	for _, m := range guardedModules {
		if m == module {
			return true
		}
	}
	return false
}

// reportUnreachableRoutes 启动时检查守卫路由至少对一个已有角色开放
func reportUnreachableRoutes(engine *gin.Engine, authzService *authz.Service) []guardedRoute {
	if authzService == nil {
		return nil
	}
	roles, err := authzService.ListRoles()
	if err != nil {
		logger.Warnw("role_guard_list_roles_failed", "error", err)
		return nil
	}
	var unreachable []guardedRoute
	for _, route := range buildGuardedRouteCatalog(engine) {
		if !routeReachable(authzService, roles, route) {
			unreachable = append(unreachable, route)
			logger.Warnw("role_guard_route_unreachable", "permission", route.Permission)
		}
	}
	return unreachable
}

func routeReachable(authzService *authz.Service, roles []string, route guardedRoute) bool {
	for _, role := range roles {
		allowed, err := authzService.Enforce(role, route.Object, route.Method)
		if err == nil && allowed {
			return true
		}
	}
	return false
}
