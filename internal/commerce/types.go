package commerce

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ayokah-next/internal/constants"
	"github.com/ayokah-next/internal/models"
)

// ListEnvelope 上游列表响应
type ListEnvelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    []T    `json:"data"`
	Total   int    `json:"total"`
	Offset  int    `json:"offset"`
	Limit   int    `json:"limit"`
}

// Envelope 上游单对象响应
type Envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// FlexString 兼容数字或字符串的字段
type FlexString string

// UnmarshalJSON 接受字符串、数字与 null
func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		*s = FlexString(raw)
		return nil
	}
	*s = FlexString(string(b))
	return nil
}

// String 返回字符串值
func (s FlexString) String() string {
	return string(s)
}

// Category 商品分类
type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Item 商品/服务
type Item struct {
	ID            uint         `json:"id"`
	Title         string       `json:"title"`
	Slug          string       `json:"slug"`
	Type          string       `json:"type"`
	Description   string       `json:"description,omitempty"`
	Images        []string     `json:"images"`
	Category      *Category    `json:"category,omitempty"`
	SalesPrice    models.Money `json:"sales_price"`
	RegularPrice  models.Money `json:"regular_price"`
	Quantity      int          `json:"quantity"`
	AverageRating float64      `json:"average_rating"`
	Views         int          `json:"views"`
	Status        string       `json:"status"`
	CreatedAt     string       `json:"created_at"`
	Shop          *Shop        `json:"shop,omitempty"`
}

// UnitPrice 售价优先，否则取原价
func (i Item) UnitPrice() models.Money {
	if i.SalesPrice.IsPositive() {
		return i.SalesPrice
	}
	return i.RegularPrice
}

// ToCartLine 转换为购物车行快照
func (i Item) ToCartLine(qty int) models.CartLine {
	image := ""
	if len(i.Images) > 0 {
		image = i.Images[0]
	}
	itemType := strings.TrimSpace(i.Type)
	if itemType == "" {
		itemType = constants.ItemTypeProducts
	}
	return models.CartLine{
		ItemID:   i.ID,
		Title:    i.Title,
		Slug:     i.Slug,
		Type:     itemType,
		Price:    i.UnitPrice(),
		Image:    image,
		Quantity: qty,
		Stock:    i.Quantity,
	}
}

// ItemStatistics 卖家商品统计，字段由上游决定
type ItemStatistics map[string]interface{}

// Shop 店铺
type Shop struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Address     string `json:"address,omitempty"`
	Type        string `json:"type"`
	Logo        string `json:"logo,omitempty"`
	Banner      string `json:"banner,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ItemListQuery 公开商品列表查询
type ItemListQuery struct {
	Limit        int
	Offset       int
	Search       string
	Type         string
	Status       string
	Category     string
	Sort         string
	MaxPrice     float64
	Availability string
}

// ShopListQuery 店铺列表查询
type ShopListQuery struct {
	Limit  int
	Offset int
	Type   string
}

// PageQuery 通用分页查询
type PageQuery struct {
	Limit  int
	Offset int
	Search string
}

// ProductQuantity 下单商品（只传 id 与数量）
type ProductQuantity struct {
	ID       uint `json:"id"`
	Quantity int  `json:"quantity"`
}

// RateOption 运费选项
type RateOption struct {
	Carrier           string       `json:"carrier"`
	Total             models.Money `json:"total"`
	DeliveryDays      FlexString   `json:"delivery_days"`
	EstimatedDelivery string       `json:"estimated_delivery"`
	ServiceCode       FlexString   `json:"service_code,omitempty"`
}

// ShippingRates 最便宜与最快两个选项
type ShippingRates struct {
	Cheapest *RateOption `json:"cheapest"`
	Fastest  *RateOption `json:"fastest"`
}

// Option 按键取选项
func (r ShippingRates) Option(key string) (*RateOption, bool) {
	switch key {
	case constants.RateOptionCheapest:
		return r.Cheapest, r.Cheapest != nil
	case constants.RateOptionFastest:
		return r.Fastest, r.Fastest != nil
	default:
		return nil, false
	}
}

// ShippingRateResponse 运费报价响应
type ShippingRateResponse struct {
	Rate *ShippingRates `json:"rate"`
}

// ShippingRateRequest 运费报价请求
type ShippingRateRequest struct {
	Firstname     string            `json:"firstname"`
	Lastname      string            `json:"lastname"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone"`
	Country       string            `json:"country"`
	IP            string            `json:"ip"`
	Products      []ProductQuantity `json:"products"`
	Type          string            `json:"type"`
	Street        string            `json:"street,omitempty"`
	City          string            `json:"city,omitempty"`
	State         string            `json:"state,omitempty"`
	Zip           string            `json:"zip,omitempty"`
	Note          string            `json:"note,omitempty"`
	PreferredDate string            `json:"preferred_date,omitempty"`
}

// CheckoutRequest 结账请求（价格由上游重新计算）
type CheckoutRequest struct {
	Email               string            `json:"email"`
	Products            []ProductQuantity `json:"products"`
	ShippingFee         float64           `json:"shipping_fee"`
	ShippingCarrier     string            `json:"shipping_carrier"`
	EstimatedDelivery   string            `json:"estimated_delivery"`
	ShippingServiceCode string            `json:"shipping_service_code,omitempty"`
	DeviceName          string            `json:"device_name"`
}

// CheckoutResponse 结账响应
type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id,omitempty"`
}

// VerifySessionResponse 支付会话校验结果
type VerifySessionResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	PaymentStatus string `json:"payment_status"`
}

// Paid 判断是否已支付
func (v VerifySessionResponse) Paid() bool {
	status := strings.ToLower(strings.TrimSpace(v.PaymentStatus))
	if status == "" {
		status = strings.ToLower(strings.TrimSpace(v.Status))
	}
	return status == "paid" || status == "success" || status == "complete"
}

// CustomerOrderProduct 订单商品
type CustomerOrderProduct struct {
	ID            uint     `json:"id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Images        []string `json:"images"`
	AverageRating float64  `json:"average_rating"`
}

// CustomerOrderItem 订单行
type CustomerOrderItem struct {
	ID        uint                 `json:"id"`
	Quantity  int                  `json:"quantity"`
	Price     models.Money         `json:"price"`
	Type      string               `json:"type"`
	Subtotal  models.Money         `json:"subtotal"`
	OrderID   uint                 `json:"order_id"`
	ProductID uint                 `json:"product_id"`
	CreatedAt string               `json:"created_at"`
	Product   CustomerOrderProduct `json:"product"`
}

// CustomerOrder 订单只读投影
type CustomerOrder struct {
	ID                  uint                `json:"id"`
	VendorID            *uint               `json:"vendor_id"`
	CustomerID          uint                `json:"customer_id"`
	Total               models.Money        `json:"total"`
	PaymentMethod       string              `json:"payment_method"`
	PaymentStatus       string              `json:"payment_status"`
	PaymentReference    *string             `json:"payment_reference"`
	PaymentLink         *string             `json:"payment_link"`
	ShippingStatus      string              `json:"shipping_status"`
	ShippingMethod      *string             `json:"shipping_method"`
	ShippingFee         *models.Money       `json:"shipping_fee"`
	ShippingServiceCode *string             `json:"shipping_service_code"`
	TrackingNumber      *string             `json:"tracking_number"`
	TrackingURL         *string             `json:"tracking_url"`
	CancelReason        *string             `json:"cancel_reason"`
	CreatedAt           string              `json:"created_at"`
	OrderItems          []CustomerOrderItem `json:"order_items"`
}

// RecordID 列表去重使用的 ID
func (o CustomerOrder) RecordID() uint {
	return o.ID
}

// Address 客户地址
type Address struct {
	AddressID     *uint  `json:"address_id,omitempty"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
	Country       string `json:"country"`
	Phone         string `json:"phone"`
	AddressLabel  string `json:"address_label"`
}

// CommunicationPreferences 通知偏好（读取为布尔）
type CommunicationPreferences struct {
	MarketingEmails   bool `json:"marketing_emails"`
	NewProducts       bool `json:"new_products"`
	Promotions        bool `json:"promotions"`
	PushNotification  bool `json:"push_notification"`
	EmailNotification bool `json:"email_notification"`
	SMSNotification   bool `json:"sms_notification"`
	Events            bool `json:"events"`
}

// communicationPayload 保存时上游要求 "true"/"false" 字符串
type communicationPayload struct {
	MarketingEmails   string `json:"marketing_emails"`
	NewProducts       string `json:"new_products"`
	Promotions        string `json:"promotions"`
	PushNotification  string `json:"push_notification"`
	EmailNotification string `json:"email_notification"`
	SMSNotification   string `json:"sms_notification"`
	Events            string `json:"events"`
}

func (p CommunicationPreferences) payload() communicationPayload {
	return communicationPayload{
		MarketingEmails:   strconv.FormatBool(p.MarketingEmails),
		NewProducts:       strconv.FormatBool(p.NewProducts),
		Promotions:        strconv.FormatBool(p.Promotions),
		PushNotification:  strconv.FormatBool(p.PushNotification),
		EmailNotification: strconv.FormatBool(p.EmailNotification),
		SMSNotification:   strconv.FormatBool(p.SMSNotification),
		Events:            strconv.FormatBool(p.Events),
	}
}

// WishlistSaveRequest 服务端收藏夹保存请求
type WishlistSaveRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity,omitempty"`
}

// SaveResponse 通用写操作响应
type SaveResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// VendorOrderItem 卖家订单行（附带所属订单）
type VendorOrderItem struct {
	ID        uint                 `json:"id"`
	OrderID   uint                 `json:"order_id"`
	ProductID uint                 `json:"product_id"`
	Quantity  int                  `json:"quantity"`
	Price     models.Money         `json:"price"`
	Subtotal  models.Money         `json:"subtotal"`
	CreatedAt string               `json:"created_at"`
	Order     *CustomerOrder       `json:"order,omitempty"`
	Product   CustomerOrderProduct `json:"product"`
}

// RecordID 列表去重使用的 ID
func (o VendorOrderItem) RecordID() uint {
	return o.ID
}
