package shared

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NormalizePagination 页码从 1 开始，每页条数落在 [1, 100]，缺省 20
func NormalizePagination(page, pageSize int) (int, int) {
	page = max(page, 1)
	if pageSize <= 0 {
		return page, defaultPageSize
	}
	return page, min(pageSize, maxPageSize)
}

// TotalPages 计算总页数
func TotalPages(total int64, pageSize int) int64 {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	size := int64(pageSize)
	return (total + size - 1) / size
}
