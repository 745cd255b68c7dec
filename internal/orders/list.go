package orders

import (
	"context"
	"time"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/metrics"
)

const (
	defaultDebounce = 300 * time.Millisecond
	msgLoadFailed   = "Failed to load orders"
)

// Record 可去重的列表记录
type Record interface {
	RecordID() uint
}

// Fetcher 分页拉取函数
type Fetcher[T Record] func(ctx context.Context, q commerce.PageQuery) (*commerce.ListEnvelope[T], error)

// Options 列表配置
type Options struct {
	View     string
	PageSize int
	Debounce time.Duration
	Metrics  *metrics.Recorder
}

func (o Options) normalize(defaultSize int) Options {
	if o.PageSize <= 0 {
		o.PageSize = defaultSize
	}
	if o.Debounce <= 0 {
		o.Debounce = defaultDebounce
	}
	if o.View == "" {
		o.View = "orders"
	}
	return o
}

// CustomerFetcher 客户订单拉取
func CustomerFetcher(client *commerce.Client) Fetcher[commerce.CustomerOrder] {
	return client.ListCustomerOrders
}

// VendorFetcher 卖家订单拉取
func VendorFetcher(client *commerce.Client) Fetcher[commerce.VendorOrderItem] {
	return client.ListVendorOrders
}

// TotalPages 向上取整的总页数
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
