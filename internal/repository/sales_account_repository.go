package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SalesAccountRepository 销售账号数据访问接口
type SalesAccountRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) SalesAccountRepository

	Create(account *models.SalesAccount) error
	GetByCode(code string) (*models.SalesAccount, error)
	GetByCodeForUpdate(code string) (*models.SalesAccount, error)
	List(filter SalesAccountListFilter) ([]models.SalesAccount, int64, error)
	ListAll() ([]models.SalesAccount, error)
	ListCodesByWechatNames(names []string) ([]string, error)
	UpdateCurrentRate(code string, rate decimal.Decimal, updatedAt time.Time) error
	UpdatePaidCommission(code string, paid models.Money, updatedAt time.Time) error
}

// SalesAccountListFilter 销售账号列表筛选
type SalesAccountListFilter struct {
	Tier       string
	ParentCode string
	Keyword    string
	Page       int
	PageSize   int
}

// GormSalesAccountRepository GORM 销售账号仓储
type GormSalesAccountRepository struct {
	db *gorm.DB
}

// NewSalesAccountRepository 创建销售账号仓储
func NewSalesAccountRepository(db *gorm.DB) *GormSalesAccountRepository {
	return &GormSalesAccountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSalesAccountRepository) WithTx(tx *gorm.DB) SalesAccountRepository {
	if tx == nil {
		return r
	}
	return &GormSalesAccountRepository{db: tx}
}

// Transaction 执行事务
func (r *GormSalesAccountRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建销售账号
func (r *GormSalesAccountRepository) Create(account *models.SalesAccount) error {
	return r.db.Create(account).Error
}

// GetByCode 按销售代码获取账号
func (r *GormSalesAccountRepository) GetByCode(code string) (*models.SalesAccount, error) {
	return r.getByCode(r.db, code)
}

// GetByCodeForUpdate 加锁读取账号
func (r *GormSalesAccountRepository) GetByCodeForUpdate(code string) (*models.SalesAccount, error) {
	return r.getByCode(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), code)
}

func (r *GormSalesAccountRepository) getByCode(db *gorm.DB, code string) (*models.SalesAccount, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var account models.SalesAccount
	if err := db.Where("code = ?", code).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// List 分页查询账号
func (r *GormSalesAccountRepository) List(filter SalesAccountListFilter) ([]models.SalesAccount, int64, error) {
	var rows []models.SalesAccount
	query := r.db.Model(&models.SalesAccount{})
	if tier := strings.TrimSpace(filter.Tier); tier != "" {
		query = query.Where("tier = ?", tier)
	}
	if parent := strings.TrimSpace(filter.ParentCode); parent != "" {
		query = query.Where("parent_code = ?", parent)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("code LIKE ? OR name LIKE ? OR wechat_name LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("code asc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListAll 查询全部账号
func (r *GormSalesAccountRepository) ListAll() ([]models.SalesAccount, error) {
	var rows []models.SalesAccount
	if err := r.db.Order("code asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCodesByWechatNames 按微信名反查销售代码
func (r *GormSalesAccountRepository) ListCodesByWechatNames(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var codes []string
	if err := r.db.Model(&models.SalesAccount{}).
		Where("wechat_name IN ?", names).
		Order("code asc").
		Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// UpdateCurrentRate 更新当前佣金比例
func (r *GormSalesAccountRepository) UpdateCurrentRate(code string, rate decimal.Decimal, updatedAt time.Time) error {
	return r.db.Model(&models.SalesAccount{}).
		Where("code = ?", strings.TrimSpace(code)).
		Updates(map[string]interface{}{
			"current_rate": rate,
			"updated_at":   updatedAt,
		}).Error
}

// UpdatePaidCommission 更新已付佣金
func (r *GormSalesAccountRepository) UpdatePaidCommission(code string, paid models.Money, updatedAt time.Time) error {
	return r.db.Model(&models.SalesAccount{}).
		Where("code = ?", strings.TrimSpace(code)).
		Updates(map[string]interface{}{
			"paid_commission": paid,
			"updated_at":      updatedAt,
		}).Error
}
