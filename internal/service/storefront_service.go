package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/store"
)

var ErrItemUnavailable = errors.New("item unavailable")

// CatalogClient 公开商品目录接口
type CatalogClient interface {
	ListItems(ctx context.Context, q commerce.ItemListQuery) (*commerce.ListEnvelope[commerce.Item], error)
	GetItem(ctx context.Context, slug string) (*commerce.Item, error)
	ListShops(ctx context.Context, q commerce.ShopListQuery) (*commerce.ListEnvelope[commerce.Shop], error)
	ListShopItems(ctx context.Context, slug string, q commerce.PageQuery) (*commerce.ListEnvelope[commerce.Item], error)
}

// StorefrontService 公开目录与购物车/收藏夹的商品快照
type StorefrontService struct {
	client CatalogClient
}

// NewStorefrontService 创建目录服务
func NewStorefrontService(client CatalogClient) *StorefrontService {
	return &StorefrontService{client: client}
}

// Items 商品列表
func (s *StorefrontService) Items(ctx context.Context, q commerce.ItemListQuery) (*commerce.ListEnvelope[commerce.Item], error) {
	return s.client.ListItems(ctx, q)
}

// Item 商品详情
func (s *StorefrontService) Item(ctx context.Context, slug string) (*commerce.Item, error) {
	return s.client.GetItem(ctx, strings.TrimSpace(slug))
}

// Shops 店铺列表
func (s *StorefrontService) Shops(ctx context.Context, q commerce.ShopListQuery) (*commerce.ListEnvelope[commerce.Shop], error) {
	return s.client.ListShops(ctx, q)
}

// ShopItems 店铺商品
func (s *StorefrontService) ShopItems(ctx context.Context, slug string, q commerce.PageQuery) (*commerce.ListEnvelope[commerce.Item], error) {
	return s.client.ListShopItems(ctx, strings.TrimSpace(slug), q)
}

// AddToCart 按 slug 拉取商品快照并加入购物车
func (s *StorefrontService) AddToCart(ctx context.Context, cart *store.CartStore, slug string, qty int) error {
	item, err := s.lookup(ctx, slug)
	if err != nil {
		return err
	}
	return cart.Add(ctx, item.ToCartLine(qty))
}

// AddToWishlist 按 slug 拉取商品快照并加入收藏夹
func (s *StorefrontService) AddToWishlist(ctx context.Context, wishlist *store.WishlistStore, slug string) error {
	item, err := s.lookup(ctx, slug)
	if err != nil {
		return err
	}
	return wishlist.Add(ctx, item.ToCartLine(1).ToWishlistEntry())
}

func (s *StorefrontService) lookup(ctx context.Context, slug string) (*commerce.Item, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, commerce.NewValidationError("Slug: This field is required")
	}
	item, err := s.client.GetItem(ctx, slug)
	if err != nil {
		return nil, err
	}
	if item == nil || item.ID == 0 {
		return nil, ErrItemUnavailable
	}
	return item, nil
}
