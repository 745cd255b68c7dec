package constants

// 商品类型常量
const (
	ItemTypeProducts = "products"
	ItemTypeServices = "services"
)

// 商品上下架状态常量
const (
	ItemStatusActive   = "active"
	ItemStatusInactive = "inactive"
)

// 角色常量
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleGuest    = "guest"
)

// 运费选项常量
const (
	RateOptionCheapest = "cheapest"
	RateOptionFastest  = "fastest"
)

// 默认国家
const DefaultCountry = "UK"

// 会话归属前缀
const (
	OwnerPrefixUser  = "user:"
	OwnerPrefixGuest = "guest:"
)

// 结账记录状态常量
const (
	CheckoutStatusRedirected = "redirected"
	CheckoutStatusPaid       = "paid"
	CheckoutStatusUnpaid     = "unpaid"
	CheckoutStatusFailed     = "failed"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskCheckoutVerify = "checkout:verify"
)

// 提示文案
const (
	MsgSelectShippingOption = "Select a shipping option"
	MsgPleaseSelectShipping = "Please select a shipping option"
	MsgStatusUpdated        = "Status updated"
	MsgStatusUpdateFailed   = "Failed to update status"
	MsgAddressSaveFailed    = "Failed to save address"
	MsgCheckoutFailed       = "Failed to start checkout"
	MsgShippingRateFailed   = "Failed to fetch shipping rates"
	MsgSalesPriceTooHigh    = "Sales price must be lower than the regular price"
)
