package repository

import "gorm.io/gorm"

// maxListPageSize 单页记录上限
const maxListPageSize = 200

// pageWindow 归一化后的分页窗口，Size 为 0 表示不分页
type pageWindow struct {
	Size   int
	Offset int
}

func newPageWindow(page, pageSize int) pageWindow {
	if pageSize <= 0 {
		return pageWindow{}
	}
	if pageSize > maxListPageSize {
		pageSize = maxListPageSize
	}
	if page < 1 {
		page = 1
	}
	return pageWindow{Size: pageSize, Offset: (page - 1) * pageSize}
}

func (w pageWindow) apply(query *gorm.DB) *gorm.DB {
	if query == nil || w.Size == 0 {
		return query
	}
	return query.Limit(w.Size).Offset(w.Offset)
}
