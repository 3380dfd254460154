package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/models"

	"gorm.io/gorm"
)

// ExclusionRepository 排除名单数据访问接口，条目只失效不删除
type ExclusionRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ExclusionRepository

	Create(entry *models.ExclusionEntry) error
	GetActive(target, scope string) (*models.ExclusionEntry, error)
	Deactivate(id uint, restoredBy string, restoredAt time.Time) error
	ListActive(scopes []string) ([]models.ExclusionEntry, error)
	List(filter ExclusionListFilter) ([]models.ExclusionEntry, int64, error)
}

// ExclusionListFilter 排除名单筛选
type ExclusionListFilter struct {
	Target   string
	Scope    string
	Active   *bool
	Page     int
	PageSize int
}

// GormExclusionRepository GORM 排除名单仓储
type GormExclusionRepository struct {
	db *gorm.DB
}

// NewExclusionRepository 创建排除名单仓储
func NewExclusionRepository(db *gorm.DB) *GormExclusionRepository {
	return &GormExclusionRepository{db: db}
}

// Transaction 执行事务
func (r *GormExclusionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormExclusionRepository) WithTx(tx *gorm.DB) ExclusionRepository {
	if tx == nil {
		return r
	}
	return &GormExclusionRepository{db: tx}
}

// Create 新增排除条目
func (r *GormExclusionRepository) Create(entry *models.ExclusionEntry) error {
	return r.db.Create(entry).Error
}

// GetActive 查询生效中的条目
func (r *GormExclusionRepository) GetActive(target, scope string) (*models.ExclusionEntry, error) {
	var row models.ExclusionEntry
	err := r.db.Where("target = ? AND policy_scope = ? AND is_active = ?", strings.TrimSpace(target), strings.TrimSpace(scope), true).
		Order("id desc").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Deactivate 置为失效并释放生效唯一键
func (r *GormExclusionRepository) Deactivate(id uint, restoredBy string, restoredAt time.Time) error {
	return r.db.Model(&models.ExclusionEntry{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":   false,
			"active_key":  nil,
			"restored_by": strings.TrimSpace(restoredBy),
			"restored_at": restoredAt,
			"updated_at":  restoredAt,
		}).Error
}

// ListActive 指定作用域下生效的条目，scopes 为空表示全部
func (r *GormExclusionRepository) ListActive(scopes []string) ([]models.ExclusionEntry, error) {
	var rows []models.ExclusionEntry
	query := r.db.Where("is_active = ?", true)
	if len(scopes) > 0 {
		query = query.Where("policy_scope IN ?", scopes)
	}
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List 分页查询排除记录（含已恢复）
func (r *GormExclusionRepository) List(filter ExclusionListFilter) ([]models.ExclusionEntry, int64, error) {
	var rows []models.ExclusionEntry
	query := r.db.Model(&models.ExclusionEntry{})
	if target := strings.TrimSpace(filter.Target); target != "" {
		query = query.Where("target = ?", target)
	}
	if scope := strings.TrimSpace(filter.Scope); scope != "" {
		query = query.Where("policy_scope = ?", scope)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
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
