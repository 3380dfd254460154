package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SalesOrderRepository 销售订单数据访问接口
type SalesOrderRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) SalesOrderRepository

	Create(order *models.SalesOrder) error
	GetByID(id uint) (*models.SalesOrder, error)
	GetByIDForUpdate(id uint) (*models.SalesOrder, error)
	GetByOrderNo(orderNo string) (*models.SalesOrder, error)
	UpdateStatusFrom(id uint, from, to string, updates map[string]interface{}) (bool, error)
	List(filter SalesOrderListFilter) ([]models.SalesOrder, int64, error)
	ListAll() ([]models.SalesOrder, error)
}

// SalesOrderListFilter 订单列表筛选
type SalesOrderListFilter struct {
	SalesCode    string
	Status       string
	ExcludeCodes []string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Page         int
	PageSize     int
}

// GormSalesOrderRepository GORM 订单仓储
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewSalesOrderRepository 创建订单仓储
func NewSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// Transaction 执行事务
func (r *GormSalesOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormSalesOrderRepository) WithTx(tx *gorm.DB) SalesOrderRepository {
	if tx == nil {
		return r
	}
	return &GormSalesOrderRepository{db: tx}
}

// Create 创建订单
func (r *GormSalesOrderRepository) Create(order *models.SalesOrder) error {
	return r.db.Create(order).Error
}

// GetByID 按 ID 获取订单
func (r *GormSalesOrderRepository) GetByID(id uint) (*models.SalesOrder, error) {
	return r.first(r.db, "id = ?", id)
}

// GetByIDForUpdate 加锁读取订单
func (r *GormSalesOrderRepository) GetByIDForUpdate(id uint) (*models.SalesOrder, error) {
	return r.first(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

// GetByOrderNo 按订单号获取订单
func (r *GormSalesOrderRepository) GetByOrderNo(orderNo string) (*models.SalesOrder, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	return r.first(r.db, "order_no = ?", orderNo)
}

func (r *GormSalesOrderRepository) first(db *gorm.DB, cond string, arg interface{}) (*models.SalesOrder, error) {
	var order models.SalesOrder
	if err := db.Where(cond, arg).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatusFrom 仅在当前状态为 from 时更新，返回是否命中
func (r *GormSalesOrderRepository) UpdateStatusFrom(id uint, from, to string, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	result := r.db.Model(&models.SalesOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List 分页查询订单
func (r *GormSalesOrderRepository) List(filter SalesOrderListFilter) ([]models.SalesOrder, int64, error) {
	var rows []models.SalesOrder
	query := r.db.Model(&models.SalesOrder{})
	if code := strings.TrimSpace(filter.SalesCode); code != "" {
		query = query.Where("sales_code = ?", code)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if len(filter.ExcludeCodes) > 0 {
		query = query.Where("sales_code NOT IN ?", filter.ExcludeCodes)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at < ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListAll 全部订单，用于构建结算快照
func (r *GormSalesOrderRepository) ListAll() ([]models.SalesOrder, error) {
	var rows []models.SalesOrder
	if err := r.db.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
