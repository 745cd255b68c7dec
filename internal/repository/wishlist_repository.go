package repository

import (
	"strings"

	"github.com/ayokah-next/internal/models"

	"gorm.io/gorm"
)

// WishlistRepository 收藏夹数据访问接口
type WishlistRepository interface {
	ListByOwner(owner string) ([]models.WishlistEntry, error)
	ReplaceByOwner(owner string, entries []models.WishlistEntry) error
}

// GormWishlistRepository GORM 实现
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewWishlistRepository 创建收藏夹仓库
func NewWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

// ListByOwner 按插入顺序获取收藏夹
func (r *GormWishlistRepository) ListByOwner(owner string) ([]models.WishlistEntry, error) {
	var entries []models.WishlistEntry
	if err := r.db.Where("owner_key = ?", strings.TrimSpace(owner)).Order("position asc, id asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ReplaceByOwner 以完整快照覆盖收藏夹
func (r *GormWishlistRepository) ReplaceByOwner(owner string, entries []models.WishlistEntry) error {
	owner = strings.TrimSpace(owner)
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_key = ?", owner).Delete(&models.WishlistEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		rows := make([]models.WishlistEntry, 0, len(entries))
		for i, entry := range entries {
			entry.ID = 0
			entry.OwnerKey = owner
			entry.Position = i
			rows = append(rows, entry)
		}
		return tx.Create(&rows).Error
	})
}
