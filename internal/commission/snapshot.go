package commission

import (
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/constants"

	"github.com/shopspring/decimal"
)

// Account 结算视角下的销售账号
type Account struct {
	Code           string
	Tier           string
	ParentCode     string
	WechatName     string
	CurrentRate    *decimal.Decimal
	PaidCommission decimal.Decimal
}

// IsLinkedSecondary 是否为挂靠在一级下的二级
func (a Account) IsLinkedSecondary() bool {
	return a.Tier == constants.SalesTierSecondary && strings.TrimSpace(a.ParentCode) != ""
}

// Order 结算视角下的订单
type Order struct {
	ID                  uint
	OrderNo             string
	SalesCode           string
	Amount              decimal.Decimal
	ActualPaymentAmount *decimal.Decimal
	Currency            string
	Status              string
	CreatedAt           time.Time
}

// GrossAmount 实付优先，否则标价
func (o Order) GrossAmount() decimal.Decimal {
	if o.ActualPaymentAmount != nil {
		return *o.ActualPaymentAmount
	}
	return o.Amount
}

// Exclusion 生效中的排除条目
type Exclusion struct {
	Target string
	Scope  string
}

// Snapshot 一次计算所用的不可变数据快照
type Snapshot struct {
	Accounts    []Account
	RateChanges []RateEntry
	Orders      []Order
	Exclusions  []Exclusion
	TakenAt     time.Time
}

// AccountIndex 按销售代码索引账号
func (s *Snapshot) AccountIndex() map[string]Account {
	out := make(map[string]Account, len(s.Accounts))
	for _, account := range s.Accounts {
		code := strings.TrimSpace(account.Code)
		if code == "" {
			continue
		}
		out[code] = account
	}
	return out
}
