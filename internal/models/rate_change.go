package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateChange 佣金比例变更记录，只追加不修改
type RateChange struct {
	ID            uint                `gorm:"primarykey" json:"id"`                                                               // 主键
	SalesCode     string              `gorm:"type:varchar(64);not null;uniqueIndex:uniq_rate_change_effective" json:"sales_code"` // 销售代码
	OldRate       decimal.NullDecimal `gorm:"type:decimal(10,4)" json:"old_rate"`                                                 // 生效日前一刻的比例
	NewRate       decimal.Decimal     `gorm:"type:decimal(10,4);not null" json:"new_rate"`                                        // 变更后比例
	EffectiveDate time.Time           `gorm:"not null;uniqueIndex:uniq_rate_change_effective" json:"effective_date"`              // 生效日期（UTC 零点）
	ChangedBy     string              `gorm:"type:varchar(64)" json:"changed_by"`                                                 // 操作人
	Reason        string              `gorm:"type:varchar(255)" json:"reason"`                                                    // 变更原因
	CreatedAt     time.Time           `gorm:"index" json:"created_at"`                                                            // 记录时间
}

// TableName 指定表名
func (RateChange) TableName() string {
	return "sales_rate_changes"
}
