package commerce

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrValidation 本地业务规则校验失败
var ErrValidation = errors.New("validation failed")

// ValidationError 携带可直接展示的校验文案
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError 创建校验错误
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// errorShape 解析后的错误形态
type errorShape struct {
	err  error
	body []byte
	obj  map[string]interface{}
}

var envelopeKeys = map[string]struct{}{
	"status":  {},
	"message": {},
	"error":   {},
	"data":    {},
	"total":   {},
	"offset":  {},
	"limit":   {},
}

type extractor func(shape *errorShape) (string, bool)

// HumanMessage 将任意错误归一为一条可展示文案，按优先级依次尝试
func HumanMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	shape := &errorShape{err: err}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		shape.body = bytes.TrimSpace(apiErr.Body)
		shape.obj = decodeObject(shape.body)
	}
	chain := []extractor{
		plainStringMessage,
		jsonInStringMessage,
		fieldErrorsMessage,
		directFieldsMessage,
		envelopeMessage,
		transportMessage,
	}
	for _, extract := range chain {
		if msg, ok := extract(shape); ok {
			return msg
		}
	}
	return fallback
}

func plainStringMessage(shape *errorShape) (string, bool) {
	var validationErr *ValidationError
	if errors.As(shape.err, &validationErr) && strings.TrimSpace(validationErr.Message) != "" {
		return strings.TrimSpace(validationErr.Message), true
	}
	if len(shape.body) == 0 {
		return "", false
	}
	switch shape.body[0] {
	case '{', '[', '"':
		return "", false
	}
	if json.Valid(shape.body) {
		return "", false
	}
	return string(shape.body), true
}

func jsonInStringMessage(shape *errorShape) (string, bool) {
	if len(shape.body) == 0 || shape.body[0] != '"' {
		return "", false
	}
	var inner string
	if err := json.Unmarshal(shape.body, &inner); err != nil {
		return "", false
	}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return "", false
	}
	obj := decodeObject([]byte(inner))
	if obj == nil {
		return inner, true
	}
	reparsed := &errorShape{err: shape.err, body: []byte(inner), obj: obj}
	for _, extract := range []extractor{fieldErrorsMessage, directFieldsMessage, envelopeMessage} {
		if msg, ok := extract(reparsed); ok {
			return msg, true
		}
	}
	return inner, true
}

func fieldErrorsMessage(shape *errorShape) (string, bool) {
	if shape.obj == nil {
		return "", false
	}
	nested, ok := shape.obj["errors"].(map[string]interface{})
	if !ok {
		return "", false
	}
	msg := flattenFieldErrors(nested, true)
	return msg, msg != ""
}

func directFieldsMessage(shape *errorShape) (string, bool) {
	if shape.obj == nil {
		return "", false
	}
	fields := make(map[string]interface{}, len(shape.obj))
	for key, value := range shape.obj {
		if _, skip := envelopeKeys[key]; !skip {
			fields[key] = value
		}
	}
	msg := flattenFieldErrors(fields, false)
	return msg, msg != ""
}

func envelopeMessage(shape *errorShape) (string, bool) {
	if shape.obj == nil {
		return "", false
	}
	for _, key := range []string{"message", "error"} {
		if text, ok := shape.obj[key].(string); ok && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), true
		}
	}
	return "", false
}

func transportMessage(shape *errorShape) (string, bool) {
	var transportErr *TransportError
	if !errors.As(shape.err, &transportErr) || transportErr.Err == nil {
		return "", false
	}
	return transportErr.Err.Error(), true
}

// flattenFieldErrors 渲染 {field: [msg]} 为 "Field Name: msg"，递归嵌套对象；
// includeStrings 为 false 时跳过字符串值，避免把 message/status 当作字段错误
func flattenFieldErrors(obj map[string]interface{}, includeStrings bool) string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		switch typed := obj[key].(type) {
		case []interface{}:
			for _, v := range typed {
				parts = append(parts, fmt.Sprintf("%s: %v", humanizeField(key), v))
			}
		case string:
			if includeStrings && strings.TrimSpace(typed) != "" {
				parts = append(parts, fmt.Sprintf("%s: %s", humanizeField(key), typed))
			}
		case map[string]interface{}:
			if nested := flattenFieldErrors(typed, true); nested != "" {
				parts = append(parts, nested)
			}
		}
	}
	return strings.Join(parts, " ")
}

func humanizeField(field string) string {
	words := strings.Fields(strings.ReplaceAll(field, "_", " "))
	for i, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + word[size:]
	}
	return strings.Join(words, " ")
}

func decodeObject(body []byte) map[string]interface{} {
	if len(body) == 0 || body[0] != '{' {
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil
	}
	return obj
}
