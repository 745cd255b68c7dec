package store

import (
	"context"
	"sync"
)

// Stores 同一会话归属下的购物车与收藏夹
type Stores struct {
	Cart     *CartStore
	Wishlist *WishlistStore
}

// Registry 进程级 owner -> Stores 映射，首次访问时创建并恢复
type Registry struct {
	mu      sync.Mutex
	factory PersisterFactory
	byOwner map[string]*Stores
}

// NewRegistry 创建注册表，factory 为 nil 时仅保存在内存
func NewRegistry(factory PersisterFactory) *Registry {
	return &Registry{
		factory: factory,
		byOwner: map[string]*Stores{},
	}
}

// Get 返回 Stores 并尝试恢复；恢复失败的一方保持未就绪，下次 Get 会重试
func (r *Registry) Get(ctx context.Context, owner string) *Stores {
	r.mu.Lock()
	stores, ok := r.byOwner[owner]
	if !ok {
		var cartPersister CartPersister
		var wishlistPersister WishlistPersister
		if r.factory != nil {
			cartPersister = r.factory.Cart(owner)
			wishlistPersister = r.factory.Wishlist(owner)
		}
		stores = &Stores{
			Cart:     NewCartStore(owner, cartPersister),
			Wishlist: NewWishlistStore(owner, wishlistPersister),
		}
		r.byOwner[owner] = stores
	}
	r.mu.Unlock()

	_ = stores.Cart.Hydrate(ctx)
	_ = stores.Wishlist.Hydrate(ctx)
	return stores
}

// Evict 释放内存中的 Stores，下次访问会重新从持久层恢复
func (r *Registry) Evict(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byOwner, owner)
}

// Len 当前持有的会话数
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byOwner)
}
