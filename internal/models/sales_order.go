package models

import "time"

// SalesOrder 销售订单，不做物理删除
type SalesOrder struct {
	ID                  uint       `gorm:"primarykey" json:"id"`                                  // 主键
	OrderNo             string     `gorm:"type:varchar(32);not null;uniqueIndex" json:"order_no"` // 订单号
	SalesCode           string     `gorm:"type:varchar(64);not null;index" json:"sales_code"`     // 归属销售代码
	Amount              Money      `gorm:"type:decimal(20,2);not null" json:"amount"`             // 标价金额
	ActualPaymentAmount *Money     `gorm:"type:decimal(20,2)" json:"actual_payment_amount"`       // 实付金额，空则按标价
	PaymentCurrency     string     `gorm:"type:varchar(8);not null" json:"payment_currency"`      // 支付币种
	Status              string     `gorm:"type:varchar(32);not null;index" json:"status"`         // 订单状态
	IsTrial             bool       `gorm:"not null;default:false" json:"is_trial"`                // 是否试用单
	CustomerWechat      string     `gorm:"type:varchar(100)" json:"customer_wechat"`              // 客户微信
	ConfirmedAt         *time.Time `gorm:"index" json:"confirmed_at"`                             // 配置确认时间
	RejectedAt          *time.Time `json:"rejected_at"`                                           // 拒绝时间
	RejectReason        string     `gorm:"type:varchar(255)" json:"reject_reason"`                // 拒绝原因
	CreatedAt           time.Time  `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt           time.Time  `gorm:"index" json:"updated_at"`                               // 更新时间
}

// TableName 指定表名
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// NetAmount 计佣金额：实付优先，否则标价
func (o SalesOrder) NetAmount() Money {
	if o.ActualPaymentAmount != nil {
		return *o.ActualPaymentAmount
	}
	return o.Amount
}
