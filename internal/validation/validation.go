package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/ayokah-next/internal/commerce"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	engineOnce sync.Once
	engine     *validator.Validate
)

// 允许的商品图片扩展名
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".gif":  {},
	".svg":  {},
}

// Engine 返回注册了自定义规则的校验器
func Engine() *validator.Validate {
	engineOnce.Do(func() {
		engine = validator.New(validator.WithRequiredStructEnabled())
		configure(engine)
	})
	return engine
}

// SetupGinValidator 让 gin 绑定校验使用同样的字段名与自定义规则
func SetupGinValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v)
	}
}

func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	_ = v.RegisterValidation("money", validateMoney)
	_ = v.RegisterValidation("dimension", validateDimension)
	_ = v.RegisterValidation("image_ext", validateImageExt)
}

// validateMoney 非负十进制金额字符串
func validateMoney(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return !d.IsNegative()
}

// validateDimension 为空或位于 0.1 ~ 10000
func validateDimension(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return false
	}
	return d.GreaterThanOrEqual(decimal.RequireFromString("0.1")) && d.LessThanOrEqual(decimal.NewFromInt(10000))
}

func validateImageExt(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, allowed := imageExtensions[strings.ToLower(filepath.Ext(strings.TrimSpace(value)))]
	return allowed
}

// Struct 校验结构体，失败时返回首个字段的可展示错误
func Struct(s interface{}) error {
	err := Engine().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &commerce.ValidationError{Message: FieldMessage(fieldErrs[0])}
	}
	return err
}

// FieldMessage 渲染为 "Field Name: message"
func FieldMessage(e validator.FieldError) string {
	return fmt.Sprintf("%s: %s", humanize(e.Field()), message(e))
}

func humanize(field string) string {
	field = strings.TrimSuffix(field, "[]")
	words := strings.Fields(strings.ReplaceAll(field, "_", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " entries"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at most " + e.Param() + " entries"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gtfield":
		return "Must be later than " + humanize(e.Param())
	case "money":
		return "Must be a non-negative amount"
	case "dimension":
		return "Must be between 0.1 and 10000"
	case "image_ext":
		return "Must be a JPG, PNG, WebP, GIF or SVG image"
	case "numeric":
		return "Must be numeric"
	case "number":
		return "Must be a non-negative integer"
	default:
		return "Invalid value"
	}
}

// StructExcept 校验结构体但跳过指定字段（使用 Go 字段名）
func StructExcept(s interface{}, fields ...string) error {
	err := Engine().StructExcept(s, fields...)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &commerce.ValidationError{Message: FieldMessage(fieldErrs[0])}
	}
	return err
}
