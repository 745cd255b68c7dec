package store

import (
	"context"

	"github.com/ayokah-next/internal/models"
	"github.com/ayokah-next/internal/repository"
)

// PersisterFactory 按会话归属创建持久化实现
type PersisterFactory interface {
	Cart(owner string) CartPersister
	Wishlist(owner string) WishlistPersister
}

// RepositoryPersisters 基于 gorm 仓库的持久化
type RepositoryPersisters struct {
	carts     repository.CartRepository
	wishlists repository.WishlistRepository
}

// NewRepositoryPersisters 创建仓库持久化工厂
func NewRepositoryPersisters(carts repository.CartRepository, wishlists repository.WishlistRepository) *RepositoryPersisters {
	return &RepositoryPersisters{carts: carts, wishlists: wishlists}
}

// Cart 购物车持久化
func (p *RepositoryPersisters) Cart(owner string) CartPersister {
	if p == nil || p.carts == nil {
		return nil
	}
	return &cartRepoPersister{owner: owner, repo: p.carts}
}

// Wishlist 收藏夹持久化
func (p *RepositoryPersisters) Wishlist(owner string) WishlistPersister {
	if p == nil || p.wishlists == nil {
		return nil
	}
	return &wishlistRepoPersister{owner: owner, repo: p.wishlists}
}

type cartRepoPersister struct {
	owner string
	repo  repository.CartRepository
}

func (p *cartRepoPersister) Load(context.Context) ([]models.CartLine, error) {
	return p.repo.ListByOwner(p.owner)
}

func (p *cartRepoPersister) Save(_ context.Context, lines []models.CartLine) error {
	return p.repo.ReplaceByOwner(p.owner, lines)
}

type wishlistRepoPersister struct {
	owner string
	repo  repository.WishlistRepository
}

func (p *wishlistRepoPersister) Load(context.Context) ([]models.WishlistEntry, error) {
	return p.repo.ListByOwner(p.owner)
}

func (p *wishlistRepoPersister) Save(_ context.Context, entries []models.WishlistEntry) error {
	return p.repo.ReplaceByOwner(p.owner, entries)
}
