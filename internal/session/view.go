package session

import (
	"sync"
	"time"

	"github.com/ayokah-next/internal/catalog"
	"github.com/ayokah-next/internal/checkout"
	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/identity"
	"github.com/ayokah-next/internal/orders"
	"github.com/ayokah-next/internal/shipping"
	"github.com/ayokah-next/internal/store"
)

// View 单个会话归属下的全部有状态组件
type View struct {
	Owner       string
	Cart        *store.CartStore
	Wishlist    *store.WishlistStore
	Shipping    *shipping.Flow
	Checkout    *checkout.Orchestrator
	QuickSearch *catalog.QuickSearch

	mu             sync.Mutex
	deps           *Deps
	token          string
	lastSeen       time.Time
	closed         bool
	sellerItems    *catalog.Table
	customerOrders *orders.LoadMoreList[commerce.CustomerOrder]
	sellerOrders   *orders.PagedList[commerce.VendorOrderItem]
}

func newView(owner string, stores *store.Stores, deps *Deps) *View {
	flow := shipping.NewFlow(owner, stores.Cart, deps.Client, deps.Quotes, shipping.Options{
		DefaultCountry: deps.Settings.DefaultCountry,
	})
	return &View{
		Owner:    owner,
		Cart:     stores.Cart,
		Wishlist: stores.Wishlist,
		Shipping: flow,
		Checkout: checkout.New(owner, stores.Cart, flow, deps.Client, deps.Records, deps.Queue, checkout.Options{
			DeviceName:  deps.Settings.DeviceName,
			VerifyDelay: deps.Settings.VerifyDelay,
			Metrics:     deps.Metrics,
		}),
		QuickSearch: catalog.NewQuickSearch(deps.Client, deps.Settings.QuickSearchLimit, deps.Settings.CatalogDebounce, deps.Metrics),
		deps:        deps,
	}
}

// touch 刷新活跃时间与令牌
func (v *View) touch(id identity.Identity, now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastSeen = now
	v.token = id.Token
	if v.sellerItems != nil {
		v.sellerItems.SetToken(id.Token)
	}
	if v.customerOrders != nil {
		v.customerOrders.SetToken(id.Token)
	}
	if v.sellerOrders != nil {
		v.sellerOrders.SetToken(id.Token)
	}
}

func (v *View) idleSince(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.lastSeen)
}

// SellerItems 卖家商品表格（首次访问时创建）
func (v *View) SellerItems() *catalog.Table {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sellerItems == nil {
		v.sellerItems = catalog.NewTable(v.deps.Client, catalog.Options{
			PageSize: v.deps.Settings.CatalogPageSize,
			Debounce: v.deps.Settings.CatalogDebounce,
			Metrics:  v.deps.Metrics,
		})
		v.sellerItems.SetToken(v.token)
	}
	return v.sellerItems
}

// CustomerOrders 客户订单（加载更多）
func (v *View) CustomerOrders() *orders.LoadMoreList[commerce.CustomerOrder] {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.customerOrders == nil {
		v.customerOrders = orders.NewLoadMoreList(orders.CustomerFetcher(v.deps.Client), orders.Options{
			View:     "customer_orders",
			PageSize: v.deps.Settings.CustomerPageSize,
			Debounce: v.deps.Settings.OrdersDebounce,
			Metrics:  v.deps.Metrics,
		})
		v.customerOrders.SetToken(v.token)
	}
	return v.customerOrders
}

// SellerOrders 卖家订单（分页）
func (v *View) SellerOrders() *orders.PagedList[commerce.VendorOrderItem] {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sellerOrders == nil {
		v.sellerOrders = orders.NewPagedList(orders.VendorFetcher(v.deps.Client), orders.Options{
			View:     "seller_orders",
			PageSize: v.deps.Settings.SellerPageSize,
			Debounce: v.deps.Settings.OrdersDebounce,
			Metrics:  v.deps.Metrics,
		})
		v.sellerOrders.SetToken(v.token)
	}
	return v.sellerOrders
}

// Close 取消所有待执行的防抖请求并解除订阅
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	table, customer, seller := v.sellerItems, v.customerOrders, v.sellerOrders
	v.mu.Unlock()

	v.Shipping.Close()
	v.QuickSearch.Close()
	if table != nil {
		table.Close()
	}
	if customer != nil {
		customer.Close()
	}
	if seller != nil {
		seller.Close()
	}
}
