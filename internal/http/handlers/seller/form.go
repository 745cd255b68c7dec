package seller

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/ayokah-next/internal/catalog"
	"github.com/ayokah-next/internal/constants"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const (
	imageField         = "images[]"
	existingImageField = "existing_images[]"
	availableDaysField = "available_days[]"
	maxMultipartMemory = 32 << 20
)

// bindItemForm 按 Content-Type 读取商品表单；type 决定是否校验服务类字段
func bindItemForm(c *gin.Context) (catalog.ItemForm, error) {
	var form catalog.ItemForm
	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
			return form, err
		}
		if err := c.ShouldBindWith(&form, binding.FormMultipart); err != nil {
			return form, err
		}
		mf := c.Request.MultipartForm
		form.ExistingImages = append(form.ExistingImages, mf.Value[existingImageField]...)
		form.AvailableDays = append(form.AvailableDays, mf.Value[availableDaysField]...)
		images, err := readImages(mf.File[imageField])
		if err != nil {
			return form, err
		}
		form.Images = images
	} else if err := c.ShouldBindJSON(&form); err != nil {
		return form, err
	}
	form.Kind = itemKind(c)
	return form, nil
}

func itemKind(c *gin.Context) string {
	kind := strings.ToLower(strings.TrimSpace(c.Query("type")))
	if kind == "" {
		kind = strings.ToLower(strings.TrimSpace(c.PostForm("type")))
	}
	if kind == constants.ItemTypeServices {
		return constants.ItemTypeServices
	}
	return constants.ItemTypeProducts
}

func readImages(headers []*multipart.FileHeader) ([]catalog.ImageUpload, error) {
	images := make([]catalog.ImageUpload, 0, len(headers))
	for _, header := range headers {
		data, err := readFile(header)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", header.Filename, err)
		}
		images = append(images, catalog.ImageUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Data:        data,
		})
	}
	return images, nil
}

func readFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
