package repository

import "gorm.io/gorm"

// maxPageSize 单页上限，审计类列表可能很长
const maxPageSize = 500

// applyPagination 应用分页参数，pageSize <= 0 表示不分页
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return query.Limit(pageSize).Offset(offset)
}
