package repository

import (
	"strings"

	"github.com/dujiao-next/sales-settlement/internal/models"

	"gorm.io/gorm"
)

// CommissionPayoutRepository 佣金支付流水数据访问接口
type CommissionPayoutRepository interface {
	WithTx(tx *gorm.DB) CommissionPayoutRepository

	Create(payout *models.CommissionPayout) error
	ListByCode(code string, page, pageSize int) ([]models.CommissionPayout, int64, error)
}

// GormCommissionPayoutRepository GORM 佣金支付流水仓储
type GormCommissionPayoutRepository struct {
	db *gorm.DB
}

// NewCommissionPayoutRepository 创建佣金支付流水仓储
func NewCommissionPayoutRepository(db *gorm.DB) *GormCommissionPayoutRepository {
	return &GormCommissionPayoutRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionPayoutRepository) WithTx(tx *gorm.DB) CommissionPayoutRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionPayoutRepository{db: tx}
}

// Create 追加流水
func (r *GormCommissionPayoutRepository) Create(payout *models.CommissionPayout) error {
	return r.db.Create(payout).Error
}

// ListByCode 查询账号流水
func (r *GormCommissionPayoutRepository) ListByCode(code string, page, pageSize int) ([]models.CommissionPayout, int64, error) {
	var rows []models.CommissionPayout
	query := r.db.Model(&models.CommissionPayout{}).Where("sales_code = ?", strings.TrimSpace(code))
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
