package models

import "time"

// WishlistEntry 收藏夹条目
type WishlistEntry struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	OwnerKey  string    `gorm:"type:varchar(80);not null;uniqueIndex:idx_wishlist_owner_item;index" json:"-"`
	ItemID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_owner_item" json:"id"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Slug      string    `gorm:"type:varchar(255)" json:"slug"`
	Type      string    `gorm:"type:varchar(20);not null;default:'products'" json:"type"`
	Price     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"`
	Image     string    `gorm:"type:varchar(512)" json:"image"`
	Stock     int       `gorm:"not null;default:0" json:"stock"`
	Position  int       `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName 指定表名
func (WishlistEntry) TableName() string {
	return "wishlist_entries"
}

// ToCartLine 以指定数量转换为购物车行
func (e WishlistEntry) ToCartLine(qty int) CartLine {
	return CartLine{
		ItemID:   e.ItemID,
		Title:    e.Title,
		Slug:     e.Slug,
		Type:     e.Type,
		Price:    e.Price,
		Image:    e.Image,
		Quantity: qty,
		Stock:    e.Stock,
	}
}
