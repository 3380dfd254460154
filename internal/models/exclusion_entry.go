package models

import (
	"strings"
	"time"
)

// ExclusionEntry 统计排除名单，恢复时只置为失效，保留审计记录
type ExclusionEntry struct {
	ID          uint       `gorm:"primarykey" json:"id"`                                                           // 主键
	Target      string     `gorm:"type:varchar(100);not null;index:idx_exclusion_target_scope" json:"target"`      // 销售代码或微信名
	TargetType  string     `gorm:"type:varchar(20);not null" json:"target_type"`                                   // sales_code / wechat
	PolicyScope string     `gorm:"type:varchar(20);not null;index:idx_exclusion_target_scope" json:"policy_scope"` // display / permanent
	IsActive    bool       `gorm:"not null;default:true;index" json:"is_active"`                                   // 是否生效
	ActiveKey   *string    `gorm:"type:varchar(130);uniqueIndex:uniq_exclusion_active" json:"-"`                   // 生效时为 target|scope，失效置空
	Reason      string     `gorm:"type:varchar(255)" json:"reason"`                                                // 排除原因
	ExcludedBy  string     `gorm:"type:varchar(64)" json:"excluded_by"`                                            // 排除操作人
	ExcludedAt  time.Time  `gorm:"not null" json:"excluded_at"`                                                    // 排除时间
	RestoredBy  string     `gorm:"type:varchar(64)" json:"restored_by"`                                            // 恢复操作人
	RestoredAt  *time.Time `json:"restored_at"`                                                                    // 恢复时间
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`                                                        // 创建时间
	UpdatedAt   time.Time  `json:"updated_at"`                                                                     // 更新时间
}

// ExclusionActiveKey 生效条目的唯一键。
// 失效条目的键为 NULL，唯一索引只约束生效条目，多实例并发写入时由数据库兜底。
func ExclusionActiveKey(target, scope string) *string {
	key := strings.TrimSpace(target) + "|" + strings.TrimSpace(scope)
	return &key
}

// TableName 指定表名
func (ExclusionEntry) TableName() string {
	return "sales_exclusions"
}
