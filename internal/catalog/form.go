package catalog

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/constants"
	"github.com/ayokah-next/internal/validation"

	"github.com/shopspring/decimal"
)

const (
	minItemImages  = 2
	maxItemImages  = 7
	maxImageBytes  = 2 << 20
	imageFormField = "images[]"
)

var serviceFormFields = []string{"PricingModel", "DeliveryMethod", "EstimatedDeliveryTime", "AvailableDays", "AvailableFrom", "AvailableTo"}

// ImageUpload 待上传图片
type ImageUpload struct {
	Filename    string `json:"filename" validate:"required,image_ext"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size" validate:"lte=2097152"`
	Data        []byte `json:"-"`
}

// ItemForm 商品创建/编辑表单
type ItemForm struct {
	Kind                  string        `json:"-"`
	Title                 string        `json:"title" form:"title" validate:"required,min=5,max=100"`
	Description           string        `json:"description" form:"description" validate:"required,min=100"`
	CategoryID            string        `json:"category_id" form:"category_id" validate:"required"`
	NotifyUser            bool          `json:"notify_user" form:"notify_user"`
	Weight                string        `json:"weight" form:"weight" validate:"dimension"`
	WeightUnit            string        `json:"weight_unit" form:"weight_unit"`
	Length                string        `json:"length" form:"length" validate:"dimension"`
	Width                 string        `json:"width" form:"width" validate:"dimension"`
	Height                string        `json:"height" form:"height" validate:"dimension"`
	SizeUnit              string        `json:"size_unit" form:"size_unit"`
	PricingModel          string        `json:"pricing_model" form:"pricing_model" validate:"required"`
	DeliveryMethod        string        `json:"delivery_method" form:"delivery_method" validate:"required"`
	EstimatedDeliveryTime string        `json:"estimated_delivery_time" form:"estimated_delivery_time" validate:"required,max=255"`
	AvailableDays         []string      `json:"available_days" form:"available_days" validate:"min=1"`
	AvailableFrom         string        `json:"available_from" form:"available_from" validate:"required"`
	AvailableTo           string        `json:"available_to" form:"available_to" validate:"required"`
	SalesPrice            string        `json:"sales_price" form:"sales_price" validate:"required,money"`
	RegularPrice          string        `json:"regular_price" form:"regular_price" validate:"required,money"`
	Quantity              string        `json:"quantity" form:"quantity" validate:"required,number"`
	ExistingImages        []string      `json:"existing_images" form:"existing_images"`
	Images                []ImageUpload `json:"images" validate:"dive"`
}

// Validate 快速失败的业务规则校验，返回首个错误
func (f ItemForm) Validate() error {
	skip := serviceFormFields
	if f.Kind == constants.ItemTypeServices {
		skip = nil
	}
	if err := validation.StructExcept(f, skip...); err != nil {
		return err
	}
	images := len(f.ExistingImages) + len(f.Images)
	if images < minItemImages {
		return commerce.NewValidationError("Images: Upload at least %d images", minItemImages)
	}
	if images > maxItemImages {
		return commerce.NewValidationError("Images: Maximum %d images allowed", maxItemImages)
	}
	for _, image := range f.Images {
		if image.Size > maxImageBytes || len(image.Data) > maxImageBytes {
			return commerce.NewValidationError("Images: Each image must be smaller than 2MB")
		}
	}
	sales := decimal.RequireFromString(strings.TrimSpace(f.SalesPrice))
	regular := decimal.RequireFromString(strings.TrimSpace(f.RegularPrice))
	if sales.GreaterThanOrEqual(regular) {
		return commerce.NewValidationError(constants.MsgSalesPriceTooHigh)
	}
	if f.Kind == constants.ItemTypeServices {
		from := strings.Join(strings.Fields(f.AvailableFrom), "")
		to := strings.Join(strings.Fields(f.AvailableTo), "")
		if from >= to {
			return commerce.NewValidationError("Available To: Must be later than Available From")
		}
	}
	return nil
}

// Payload 构建上游 multipart 表单
func (f ItemForm) Payload() (*commerce.MultipartPayload, error) {
	p := &commerce.MultipartPayload{}
	p.Add("title", capitalizeWords(f.Title))
	p.Add("description", f.Description)
	notify := "0"
	if f.NotifyUser {
		notify = "1"
	}
	p.Add("notify_user", notify)
	p.Add("category_id", strings.TrimSpace(f.CategoryID))
	addIfPresent(p, "weight", f.Weight)
	addIfPresent(p, "weight_unit", f.WeightUnit)
	addIfPresent(p, "length", f.Length)
	addIfPresent(p, "width", f.Width)
	addIfPresent(p, "height", f.Height)
	addIfPresent(p, "size_unit", f.SizeUnit)
	if f.Kind == constants.ItemTypeServices {
		days, err := json.Marshal(f.AvailableDays)
		if err != nil {
			return nil, err
		}
		p.Add("pricing_model", f.PricingModel)
		p.Add("delivery_method", f.DeliveryMethod)
		p.Add("estimated_delivery_time", f.EstimatedDeliveryTime)
		p.Add("available_days", string(days))
		p.Add("available_from", f.AvailableFrom)
		p.Add("available_to", f.AvailableTo)
	}
	p.Add("sales_price", strings.TrimSpace(f.SalesPrice))
	p.Add("regular_price", strings.TrimSpace(f.RegularPrice))
	p.Add("quantity", strings.TrimSpace(f.Quantity))
	for _, image := range f.ExistingImages {
		p.Add("existing_images[]", image)
	}
	for _, image := range f.Images {
		p.AddFile(commerce.FormFile{
			Field:       imageFormField,
			Filename:    image.Filename,
			ContentType: image.ContentType,
			Data:        image.Data,
		})
	}
	return p, nil
}

func addIfPresent(p *commerce.MultipartPayload, name, value string) {
	if value = strings.TrimSpace(value); value != "" {
		p.Add(name, value)
	}
}

func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// ItemClient 卖家商品写操作接口
type ItemClient interface {
	CreateItem(ctx context.Context, payload *commerce.MultipartPayload) (*commerce.Item, error)
	UpdateItem(ctx context.Context, itemID uint, payload *commerce.MultipartPayload) (*commerce.Item, error)
	DeleteItem(ctx context.Context, itemID uint) error
	ItemStatistics(ctx context.Context) (commerce.ItemStatistics, error)
}

// Editor 商品写操作：先校验再提交
type Editor struct {
	client ItemClient
}

// NewEditor 创建编辑器
func NewEditor(client ItemClient) *Editor {
	return &Editor{client: client}
}

// Create 校验并创建商品
func (e *Editor) Create(ctx context.Context, form ItemForm) (*commerce.Item, error) {
	payload, err := e.prepare(form)
	if err != nil {
		return nil, err
	}
	return e.client.CreateItem(ctx, payload)
}

// Update 校验并更新商品
func (e *Editor) Update(ctx context.Context, itemID uint, form ItemForm) (*commerce.Item, error) {
	payload, err := e.prepare(form)
	if err != nil {
		return nil, err
	}
	return e.client.UpdateItem(ctx, itemID, payload)
}

// Delete 删除商品
func (e *Editor) Delete(ctx context.Context, itemID uint) error {
	return e.client.DeleteItem(ctx, itemID)
}

// Statistics 卖家商品统计
func (e *Editor) Statistics(ctx context.Context) (commerce.ItemStatistics, error) {
	return e.client.ItemStatistics(ctx)
}

func (e *Editor) prepare(form ItemForm) (*commerce.MultipartPayload, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return form.Payload()
}
