package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/constants"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/models"
	"github.com/ayokah-next/internal/store"
	"github.com/ayokah-next/internal/validation"
)

var (
	ErrCartEmpty       = errors.New("cart is empty")
	ErrNoQuote         = errors.New("no shipping quote")
	ErrUnknownOption   = errors.New("unknown shipping option")
	ErrQuoteSuperseded = errors.New("shipping quote superseded")
)

// RateClient 运费报价接口
type RateClient interface {
	ShippingRate(ctx context.Context, req commerce.ShippingRateRequest) (*commerce.ShippingRates, error)
}

// RateInput 报价输入：实物需要地址，服务需要备注与预约日期
type RateInput struct {
	Firstname     string `json:"firstname" validate:"required,max=100"`
	Lastname      string `json:"lastname" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required,max=32"`
	Country       string `json:"country" validate:"omitempty,max=64"`
	IP            string `json:"-"`
	Street        string `json:"street_address" validate:"required"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state" validate:"required"`
	Zip           string `json:"zip_code" validate:"required"`
	Note          string `json:"note" validate:"required"`
	PreferredDate string `json:"preferred_date" validate:"required"`
}

var (
	productFields = []string{"Street", "City", "State", "Zip"}
	serviceFields = []string{"Note", "PreferredDate"}
)

// Options 流程配置
type Options struct {
	DefaultCountry string
}

// Flow 会话级运费协商：请求报价、选择选项，购物车变化时失效
type Flow struct {
	mu             sync.Mutex
	owner          string
	cart           *store.CartStore
	client         RateClient
	quotes         QuoteStore
	defaultCountry string
	gen            uint64
	loading        bool
	unsubscribe    func()
	build          func(RateInput, []models.CartLine, string) (commerce.ShippingRateRequest, string, error)
}

// Snapshot 对外展示的状态
type Snapshot struct {
	QuoteState
	Loading bool `json:"loading"`
}

// NewFlow 创建流程并订阅购物车变更
func NewFlow(owner string, cart *store.CartStore, client RateClient, quotes QuoteStore, opts Options) *Flow {
	if quotes == nil {
		quotes = NewMemoryQuoteStore()
	}
	country := strings.TrimSpace(opts.DefaultCountry)
	if country == "" {
		country = constants.DefaultCountry
	}
	f := &Flow{
		owner:          owner,
		cart:           cart,
		client:         client,
		quotes:         quotes,
		defaultCountry: country,
		build:          BuildRequest,
	}
	if cart != nil {
		f.unsubscribe = cart.Subscribe(f.onCartEvent)
	}
	return f
}

// Kind 由购物车内容决定订单类型
func Kind(lines []models.CartLine) string {
	for _, line := range lines {
		if line.Type == constants.ItemTypeServices {
			return constants.ItemTypeServices
		}
	}
	return constants.ItemTypeProducts
}

// BuildRequest 校验输入并构建上游请求
func BuildRequest(in RateInput, lines []models.CartLine, defaultCountry string) (commerce.ShippingRateRequest, string, error) {
	if len(lines) == 0 {
		return commerce.ShippingRateRequest{}, "", ErrCartEmpty
	}
	kind := Kind(lines)
	skip := serviceFields
	if kind == constants.ItemTypeServices {
		skip = productFields
	}
	if err := validation.StructExcept(in, skip...); err != nil {
		return commerce.ShippingRateRequest{}, kind, err
	}
	country := strings.TrimSpace(in.Country)
	if country == "" {
		country = defaultCountry
	}
	products := make([]commerce.ProductQuantity, 0, len(lines))
	for _, line := range lines {
		products = append(products, commerce.ProductQuantity{ID: line.ItemID, Quantity: line.Quantity})
	}
	req := commerce.ShippingRateRequest{
		Firstname: strings.TrimSpace(in.Firstname),
		Lastname:  strings.TrimSpace(in.Lastname),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Country:   country,
		IP:        in.IP,
		Products:  products,
		Type:      kind,
	}
	if kind == constants.ItemTypeServices {
		req.Note = strings.TrimSpace(in.Note)
		req.PreferredDate = strings.TrimSpace(in.PreferredDate)
	} else {
		req.Street = strings.TrimSpace(in.Street)
		req.City = strings.TrimSpace(in.City)
		req.State = strings.TrimSpace(in.State)
		req.Zip = strings.TrimSpace(in.Zip)
	}
	return req, kind, nil
}

// Request 请求新报价；成功时替换旧报价并重置选择，失败时状态不变
// 购物车行与代数在同一把锁下读取，构建期间购物车变化时本次报价作废。
func (f *Flow) Request(ctx context.Context, in RateInput) (Snapshot, error) {
	f.mu.Lock()
	base := f.gen
	lines := f.cart.Lines()
	f.mu.Unlock()

	req, kind, err := f.build(in, lines, f.defaultCountry)
	if err != nil {
		return f.snapshot(ctx), err
	}

	f.mu.Lock()
	if f.gen != base {
		snap := f.snapshotLocked(ctx)
		f.mu.Unlock()
		logger.FromContext(ctx).Debugw("shipping_quote_cart_changed", "owner", f.owner, "generation", base)
		return snap, ErrQuoteSuperseded
	}
	f.gen++
	gen := f.gen
	f.loading = true
	f.mu.Unlock()

	rates, err := f.client.ShippingRate(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen == f.gen {
		f.loading = false
	}
	if gen != f.gen {
		logger.FromContext(ctx).Debugw("shipping_quote_superseded", "owner", f.owner, "generation", gen)
		return f.snapshotLocked(ctx), ErrQuoteSuperseded
	}
	if err != nil {
		return f.snapshotLocked(ctx), fmt.Errorf("shipping rate: %w", err)
	}

	now := time.Now()
	state := QuoteState{
		Kind:       kind,
		Rates:      rates,
		GuestEmail: req.Email,
		QuotedAt:   &now,
	}
	if err := f.quotes.Save(ctx, f.owner, state); err != nil {
		logger.FromContext(ctx).Warnw("shipping_quote_save_failed", "owner", f.owner, "error", err)
		return f.snapshotLocked(ctx), err
	}
	return Snapshot{QuoteState: state}, nil
}

// Pick 选择 cheapest 或 fastest
func (f *Flow) Pick(ctx context.Context, key string) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.quotes.Load(ctx, f.owner)
	if err != nil {
		return Snapshot{}, err
	}
	if state.Rates == nil {
		return Snapshot{QuoteState: state, Loading: f.loading}, ErrNoQuote
	}
	key = strings.ToLower(strings.TrimSpace(key))
	option, ok := state.Rates.Option(key)
	if !ok {
		return Snapshot{QuoteState: state, Loading: f.loading}, ErrUnknownOption
	}
	state.Selected = key
	state.Fee = option.Total
	state.Carrier = option.Carrier
	state.EstimatedDelivery = option.EstimatedDelivery
	state.ServiceCode = option.ServiceCode.String()
	if err := f.quotes.Save(ctx, f.owner, state); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{QuoteState: state, Loading: f.loading}, nil
}

// State 当前报价状态
func (f *Flow) State(ctx context.Context) Snapshot {
	return f.snapshot(ctx)
}

// Reset 结账跳转后清除全部状态（包括访客邮箱）
func (f *Flow) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.loading = false
	return f.quotes.Delete(ctx, f.owner)
}

// Close 取消购物车订阅
func (f *Flow) Close() {
	f.mu.Lock()
	unsubscribe := f.unsubscribe
	f.unsubscribe = nil
	f.gen++
	f.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (f *Flow) onCartEvent(event store.CartEvent) {
	if event.Kind == store.EventHydrated {
		return
	}
	ctx := context.Background()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.loading = false
	state, err := f.quotes.Load(ctx, f.owner)
	if err != nil {
		logger.Warnw("shipping_quote_load_failed", "owner", f.owner, "error", err)
		return
	}
	if state.Rates == nil && state.Selected == "" {
		return
	}
	if err := f.quotes.Save(ctx, f.owner, state.invalidate()); err != nil {
		logger.Warnw("shipping_quote_invalidate_failed", "owner", f.owner, "error", err)
	}
}

func (f *Flow) snapshot(ctx context.Context) Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked(ctx)
}

func (f *Flow) snapshotLocked(ctx context.Context) Snapshot {
	state, err := f.quotes.Load(ctx, f.owner)
	if err != nil {
		logger.FromContext(ctx).Warnw("shipping_quote_load_failed", "owner", f.owner, "error", err)
	}
	return Snapshot{QuoteState: state, Loading: f.loading}
}
