package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesAccount 销售账号（一级 / 二级）
type SalesAccount struct {
	ID             uint                `gorm:"primarykey" json:"id"`                                         // 主键
	Code           string              `gorm:"type:varchar(64);not null;uniqueIndex" json:"sales_code"`      // 销售代码，创建后不可变
	Tier           string              `gorm:"type:varchar(20);not null;index" json:"tier"`                  // 层级 primary/secondary
	ParentCode     *string             `gorm:"type:varchar(64);index" json:"parent_code,omitempty"`          // 上级一级销售代码，独立二级为空
	Name           string              `gorm:"type:varchar(100)" json:"name"`                                // 名称
	WechatName     string              `gorm:"type:varchar(100);index" json:"wechat_name"`                   // 微信名，可作为排除目标
	CurrentRate    decimal.NullDecimal `gorm:"type:decimal(10,4)" json:"current_rate"`                       // 当前已生效的佣金比例
	PaidCommission Money               `gorm:"type:decimal(20,2);not null;default:0" json:"paid_commission"` // 已付佣金
	CreatedAt      time.Time           `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time           `gorm:"index" json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (SalesAccount) TableName() string {
	return "sales_accounts"
}

// HasParent 是否挂靠一级销售
func (a SalesAccount) HasParent() bool {
	return a.ParentCode != nil && *a.ParentCode != ""
}
