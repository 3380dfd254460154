package models

import "time"

// CommissionPayout 已付佣金变动流水
type CommissionPayout struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	SalesCode  string    `gorm:"type:varchar(64);not null;index" json:"sales_code"`
	Amount     Money     `gorm:"type:decimal(20,2);not null" json:"amount"`      // 变动额，校正时可为负
	PaidBefore Money     `gorm:"type:decimal(20,2);not null" json:"paid_before"` // 变动前已付
	PaidAfter  Money     `gorm:"type:decimal(20,2);not null" json:"paid_after"`  // 变动后已付
	Operator   string    `gorm:"type:varchar(64)" json:"operator"`
	Note       string    `gorm:"type:varchar(255)" json:"note"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (CommissionPayout) TableName() string {
	return "sales_commission_payouts"
}
