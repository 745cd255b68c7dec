package models

import "time"

// CartLine 购物车行（按会话归属保存完整快照）
type CartLine struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	OwnerKey  string    `gorm:"type:varchar(80);not null;uniqueIndex:idx_cart_owner_item;index" json:"-"` // 会话归属 user:<id> / guest:<uuid>
	ItemID    uint      `gorm:"not null;uniqueIndex:idx_cart_owner_item" json:"id"`                      // 上游商品ID
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Slug      string    `gorm:"type:varchar(255)" json:"slug"`
	Type      string    `gorm:"type:varchar(20);not null;default:'products'" json:"type"` // products / services
	Price     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"`
	Image     string    `gorm:"type:varchar(512)" json:"image"`
	Quantity  int       `gorm:"not null" json:"qty"`
	Stock     int       `gorm:"not null;default:0" json:"stock"`
	Position  int       `gorm:"not null;default:0" json:"-"` // 插入顺序
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName 指定表名
func (CartLine) TableName() string {
	return "cart_lines"
}

// ToWishlistEntry 转换为收藏夹条目
func (l CartLine) ToWishlistEntry() WishlistEntry {
	return WishlistEntry{
		ItemID: l.ItemID,
		Title:  l.Title,
		Slug:   l.Slug,
		Type:   l.Type,
		Price:  l.Price,
		Image:  l.Image,
		Stock:  l.Stock,
	}
}
