package commerce

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// FormField 表单字段，保留添加顺序
type FormField struct {
	Name  string
	Value string
}

// FormFile 表单文件
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// MultipartPayload 商品创建/更新表单
type MultipartPayload struct {
	Fields []FormField
	Files  []FormFile
}

// Add 追加字段
func (p *MultipartPayload) Add(name, value string) {
	p.Fields = append(p.Fields, FormField{Name: name, Value: value})
}

// AddFile 追加文件
func (p *MultipartPayload) AddFile(file FormFile) {
	p.Files = append(p.Files, file)
}

// Value 读取第一个同名字段
func (p *MultipartPayload) Value(name string) string {
	for _, field := range p.Fields {
		if field.Name == name {
			return field.Value
		}
	}
	return ""
}

func (p *MultipartPayload) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, field := range p.Fields {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("%w: write field %s", ErrRequestFailed, field.Name)
		}
	}
	for _, file := range p.Files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(file.Field), escapeQuotes(file.Filename)))
		contentType := strings.TrimSpace(file.ContentType)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("%w: create file part", ErrRequestFailed)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("%w: write file part", ErrRequestFailed)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("%w: close multipart writer", ErrRequestFailed)
	}
	return buf, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
