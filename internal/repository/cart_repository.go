package repository

import (
	"strings"

	"github.com/ayokah-next/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByOwner(owner string) ([]models.CartLine, error)
	ReplaceByOwner(owner string, lines []models.CartLine) error
	ClearByOwner(owner string) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByOwner 按插入顺序获取会话购物车
func (r *GormCartRepository) ListByOwner(owner string) ([]models.CartLine, error) {
	var lines []models.CartLine
	if err := r.db.Where("owner_key = ?", strings.TrimSpace(owner)).Order("position asc, id asc").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// ReplaceByOwner 以完整快照覆盖会话购物车
func (r *GormCartRepository) ReplaceByOwner(owner string, lines []models.CartLine) error {
	owner = strings.TrimSpace(owner)
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_key = ?", owner).Delete(&models.CartLine{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		rows := make([]models.CartLine, 0, len(lines))
		for i, line := range lines {
			line.ID = 0
			line.OwnerKey = owner
			line.Position = i
			rows = append(rows, line)
		}
		return tx.Create(&rows).Error
	})
}

// ClearByOwner 清空会话购物车
func (r *GormCartRepository) ClearByOwner(owner string) error {
	return r.db.Where("owner_key = ?", strings.TrimSpace(owner)).Delete(&models.CartLine{}).Error
}
