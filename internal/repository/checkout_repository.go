package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/ayokah-next/internal/models"

	"gorm.io/gorm"
)

// CheckoutRecordListFilter 结账记录查询条件
type CheckoutRecordListFilter struct {
	Page     int
	PageSize int
	OwnerKey string
	Status   string
	Search   string
}

// CheckoutRecordRepository 结账记录数据访问接口
type CheckoutRecordRepository interface {
	Create(record *models.CheckoutRecord) error
	GetByRef(ref string) (*models.CheckoutRecord, error)
	GetBySessionID(sessionID string) (*models.CheckoutRecord, error)
	UpdateStatus(id uint, status string, verifiedAt *time.Time) error
	List(filter CheckoutRecordListFilter) ([]models.CheckoutRecord, int64, error)
}

// GormCheckoutRecordRepository GORM 实现
type GormCheckoutRecordRepository struct {
	db *gorm.DB
}

// NewCheckoutRecordRepository 创建结账记录仓库
func NewCheckoutRecordRepository(db *gorm.DB) *GormCheckoutRecordRepository {
	return &GormCheckoutRecordRepository{db: db}
}

// Create 创建记录
func (r *GormCheckoutRecordRepository) Create(record *models.CheckoutRecord) error {
	return r.db.Create(record).Error
}

// GetByRef 按引用号查询，不存在时返回 nil
func (r *GormCheckoutRecordRepository) GetByRef(ref string) (*models.CheckoutRecord, error) {
	return r.first("ref = ?", strings.TrimSpace(ref))
}

// GetBySessionID 按支付会话 ID 查询，不存在时返回 nil
func (r *GormCheckoutRecordRepository) GetBySessionID(sessionID string) (*models.CheckoutRecord, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil
	}
	return r.first("session_id = ?", sessionID)
}

func (r *GormCheckoutRecordRepository) first(query string, args ...interface{}) (*models.CheckoutRecord, error) {
	var record models.CheckoutRecord
	if err := r.db.Where(query, args...).Order("id desc").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// UpdateStatus 更新校验状态
func (r *GormCheckoutRecordRepository) UpdateStatus(id uint, status string, verifiedAt *time.Time) error {
	updates := map[string]interface{}{
		"status":      status,
		"verified_at": verifiedAt,
		"updated_at":  time.Now(),
	}
	return r.db.Model(&models.CheckoutRecord{}).Where("id = ?", id).Updates(updates).Error
}

// List 分页查询结账记录
func (r *GormCheckoutRecordRepository) List(filter CheckoutRecordListFilter) ([]models.CheckoutRecord, int64, error) {
	query := r.db.Model(&models.CheckoutRecord{})
	if owner := strings.TrimSpace(filter.OwnerKey); owner != "" {
		query = query.Where("owner_key = ?", owner)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, args := searchClause(r.db, search, "email", "ref", "session_id")
		query = query.Where(condition, args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []models.CheckoutRecord
	if err := newPageWindow(filter.Page, filter.PageSize).apply(query.Order("id desc")).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
