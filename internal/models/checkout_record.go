package models

import "time"

// CheckoutRecord 结账跳转记录，用于支付回跳后的会话校验
type CheckoutRecord struct {
	ID                  uint       `gorm:"primarykey" json:"id"`
	Ref                 string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"ref"`
	OwnerKey            string     `gorm:"type:varchar(80);not null;index" json:"-"`
	Email               string     `gorm:"type:varchar(255)" json:"email"`
	SessionID           string     `gorm:"type:varchar(255);index" json:"session_id"`
	RedirectURL         string     `gorm:"type:text" json:"redirect_url"`
	ItemCount           int        `gorm:"not null;default:0" json:"item_count"`
	Subtotal            Money      `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`
	ShippingFee         Money      `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"`
	ShippingCarrier     string     `gorm:"type:varchar(120)" json:"shipping_carrier"`
	EstimatedDelivery   string     `gorm:"type:varchar(120)" json:"estimated_delivery"`
	ShippingServiceCode string     `gorm:"type:varchar(120)" json:"shipping_service_code"`
	Status              string     `gorm:"type:varchar(20);not null;index" json:"status"`
	VerifiedAt          *time.Time `json:"verified_at,omitempty"`
	CreatedAt           time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (CheckoutRecord) TableName() string {
	return "checkout_records"
}
