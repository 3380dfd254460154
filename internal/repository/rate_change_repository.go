package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/models"

	"gorm.io/gorm"
)

// RateChangeRepository 佣金比例历史数据访问接口，只追加
type RateChangeRepository interface {
	WithTx(tx *gorm.DB) RateChangeRepository

	Create(change *models.RateChange) error
	GetByCodeAndDate(code string, effectiveDate time.Time) (*models.RateChange, error)
	GetEffectiveAt(code string, at time.Time) (*models.RateChange, error)
	ListByCode(code string) ([]models.RateChange, error)
	ListAll() ([]models.RateChange, error)
}

// GormRateChangeRepository GORM 比例历史仓储
type GormRateChangeRepository struct {
	db *gorm.DB
}

// NewRateChangeRepository 创建比例历史仓储
func NewRateChangeRepository(db *gorm.DB) *GormRateChangeRepository {
	return &GormRateChangeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRateChangeRepository) WithTx(tx *gorm.DB) RateChangeRepository {
	if tx == nil {
		return r
	}
	return &GormRateChangeRepository{db: tx}
}

// Create 追加变更记录
func (r *GormRateChangeRepository) Create(change *models.RateChange) error {
	return r.db.Create(change).Error
}

// GetByCodeAndDate 按账号与生效日期查询
func (r *GormRateChangeRepository) GetByCodeAndDate(code string, effectiveDate time.Time) (*models.RateChange, error) {
	var row models.RateChange
	err := r.db.Where("sales_code = ? AND effective_date = ?", strings.TrimSpace(code), effectiveDate).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetEffectiveAt at 时刻生效的一条，即 effective_date <= at 中最晚者；尚无生效记录时返回 nil
func (r *GormRateChangeRepository) GetEffectiveAt(code string, at time.Time) (*models.RateChange, error) {
	var row models.RateChange
	err := r.db.Where("sales_code = ? AND effective_date <= ?", strings.TrimSpace(code), at.UTC()).
		Order("effective_date desc").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByCode 账号的全部变更，按生效日期升序
func (r *GormRateChangeRepository) ListByCode(code string) ([]models.RateChange, error) {
	var rows []models.RateChange
	if err := r.db.Where("sales_code = ?", strings.TrimSpace(code)).
		Order("effective_date asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll 全部变更记录
func (r *GormRateChangeRepository) ListAll() ([]models.RateChange, error) {
	var rows []models.RateChange
	if err := r.db.Order("sales_code asc, effective_date asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
