package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/constants"
	"github.com/ayokah-next/internal/identity"
	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/metrics"
	"github.com/ayokah-next/internal/models"
	"github.com/ayokah-next/internal/queue"
	"github.com/ayokah-next/internal/repository"
	"github.com/ayokah-next/internal/shipping"
	"github.com/ayokah-next/internal/store"

	"github.com/google/uuid"
)

var (
	ErrShippingNotSelected = commerce.NewValidationError(constants.MsgPleaseSelectShipping)
	ErrCartEmpty           = commerce.NewValidationError("Your cart is empty")
	ErrEmailRequired       = commerce.NewValidationError("Email is required to checkout")
	ErrMissingRedirect     = errors.New("checkout response missing redirect url")
	ErrSubmitInProgress    = errors.New("checkout already in progress")
)

const (
	handoffSuccess  = "success"
	handoffRejected = "rejected"
	handoffFailed   = "failed"
)

// Client 结账相关的上游接口
type Client interface {
	Checkout(ctx context.Context, req commerce.CheckoutRequest) (*commerce.CheckoutResponse, error)
	VerifySession(ctx context.Context, sessionID string) (*commerce.VerifySessionResponse, error)
}

// Enqueuer 校验任务投递
type Enqueuer interface {
	EnqueueCheckoutVerify(payload queue.CheckoutVerifyPayload, delay time.Duration) error
}

// Options 结账配置
type Options struct {
	DeviceName  string
	VerifyDelay time.Duration
	Metrics     *metrics.Recorder
}

// Summary 结账汇总
type Summary struct {
	Items             []models.CartLine `json:"items"`
	Count             int               `json:"count"`
	Subtotal          models.Money      `json:"subtotal"`
	Fee               models.Money      `json:"fee"`
	Total             models.Money      `json:"total"`
	TotalLabel        string            `json:"total_label"`
	Selected          string            `json:"selected,omitempty"`
	Carrier           string            `json:"carrier,omitempty"`
	EstimatedDelivery string            `json:"estimated_delivery,omitempty"`
	GuestEmail        string            `json:"guest_email,omitempty"`
	CanCheckout       bool              `json:"can_checkout"`
}

// Result 结账跳转结果
type Result struct {
	URL       string `json:"url"`
	Ref       string `json:"ref"`
	SessionID string `json:"session_id,omitempty"`
}

// Orchestrator 会话级结账编排
type Orchestrator struct {
	owner      string
	cart       *store.CartStore
	flow       *shipping.Flow
	client     Client
	records    repository.CheckoutRecordRepository
	queue      Enqueuer
	opts       Options
	mu         sync.Mutex
	submitting bool
}

// New 创建结账编排
func New(owner string, cart *store.CartStore, flow *shipping.Flow, client Client, records repository.CheckoutRecordRepository, queue Enqueuer, opts Options) *Orchestrator {
	if strings.TrimSpace(opts.DeviceName) == "" {
		opts.DeviceName = "web"
	}
	return &Orchestrator{
		owner:   owner,
		cart:    cart,
		flow:    flow,
		client:  client,
		records: records,
		queue:   queue,
		opts:    opts,
	}
}

// Summary 计算小计、运费与总额
func (o *Orchestrator) Summary(ctx context.Context) Summary {
	quote := o.flow.State(ctx)
	lines := o.cart.Lines()
	subtotal := o.cart.Subtotal()
	summary := Summary{
		Items:             lines,
		Count:             o.cart.Count(),
		Subtotal:          subtotal,
		Fee:               quote.Fee,
		Total:             subtotal.Add(quote.Fee),
		Selected:          quote.Selected,
		Carrier:           quote.Carrier,
		EstimatedDelivery: quote.EstimatedDelivery,
		GuestEmail:        quote.GuestEmail,
	}
	if quote.Fee.IsPositive() {
		summary.TotalLabel = summary.Total.String()
	} else {
		summary.TotalLabel = constants.MsgSelectShippingOption
	}
	summary.CanCheckout = len(lines) > 0 && quote.HasSelection()
	return summary
}

// Submit 提交结账；成功后清空购物车与访客邮箱并返回跳转地址
func (o *Orchestrator) Submit(ctx context.Context, id identity.Identity) (*Result, error) {
	o.mu.Lock()
	if o.submitting {
		o.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	o.submitting = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.submitting = false
		o.mu.Unlock()
	}()

	log := logger.FromContext(ctx)
	quote := o.flow.State(ctx)
	if !quote.HasSelection() {
		o.opts.Metrics.CheckoutHandoff(handoffRejected)
		return nil, ErrShippingNotSelected
	}
	lines := o.cart.Lines()
	if len(lines) == 0 {
		o.opts.Metrics.CheckoutHandoff(handoffRejected)
		return nil, ErrCartEmpty
	}
	email := strings.TrimSpace(id.Email)
	if !id.Authenticated() || email == "" {
		email = strings.TrimSpace(quote.GuestEmail)
	}
	if email == "" {
		o.opts.Metrics.CheckoutHandoff(handoffRejected)
		return nil, ErrEmailRequired
	}

	products := make([]commerce.ProductQuantity, 0, len(lines))
	for _, line := range lines {
		products = append(products, commerce.ProductQuantity{ID: line.ItemID, Quantity: line.Quantity})
	}
	fee, _ := quote.Fee.Float64()
	req := commerce.CheckoutRequest{
		Email:               email,
		Products:            products,
		ShippingFee:         fee,
		ShippingCarrier:     quote.Carrier,
		EstimatedDelivery:   quote.EstimatedDelivery,
		ShippingServiceCode: quote.ServiceCode,
		DeviceName:          o.opts.DeviceName,
	}
	resp, err := o.client.Checkout(ctx, req)
	if err != nil {
		o.opts.Metrics.CheckoutHandoff(handoffFailed)
		log.Warnw("checkout_submit_failed", "owner", o.owner, "error", err)
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.URL) == "" {
		o.opts.Metrics.CheckoutHandoff(handoffFailed)
		log.Warnw("checkout_submit_missing_url", "owner", o.owner)
		return nil, ErrMissingRedirect
	}

	record := &models.CheckoutRecord{
		Ref:                 uuid.NewString(),
		OwnerKey:            o.owner,
		Email:               email,
		SessionID:           strings.TrimSpace(resp.SessionID),
		RedirectURL:         resp.URL,
		ItemCount:           o.cart.Count(),
		Subtotal:            o.cart.Subtotal(),
		ShippingFee:         quote.Fee,
		ShippingCarrier:     quote.Carrier,
		EstimatedDelivery:   quote.EstimatedDelivery,
		ShippingServiceCode: quote.ServiceCode,
		Status:              constants.CheckoutStatusRedirected,
	}
	if err := o.cart.Clear(ctx); err != nil {
		log.Warnw("checkout_cart_clear_failed", "owner", o.owner, "error", err)
	}
	if err := o.flow.Reset(ctx); err != nil {
		log.Warnw("checkout_quote_reset_failed", "owner", o.owner, "error", err)
	}
	o.persist(ctx, record)
	o.opts.Metrics.CheckoutHandoff(handoffSuccess)
	log.Infow("checkout_redirect_issued", "owner", o.owner, "ref", record.Ref, "session_id", record.SessionID)
	return &Result{URL: resp.URL, Ref: record.Ref, SessionID: record.SessionID}, nil
}

// persist 记录与校验任务失败不影响跳转
func (o *Orchestrator) persist(ctx context.Context, record *models.CheckoutRecord) {
	log := logger.FromContext(ctx)
	if o.records == nil {
		return
	}
	if err := o.records.Create(record); err != nil {
		log.Warnw("checkout_record_create_failed", "owner", o.owner, "ref", record.Ref, "error", err)
		return
	}
	if o.queue == nil || record.SessionID == "" {
		return
	}
	payload := queue.CheckoutVerifyPayload{RecordID: record.ID, Ref: record.Ref, SessionID: record.SessionID}
	if err := o.queue.EnqueueCheckoutVerify(payload, o.opts.VerifyDelay); err != nil {
		log.Warnw("checkout_verify_enqueue_failed", "ref", record.Ref, "error", err)
	}
}
