package commission

import (
	"fmt"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/constants"

	"github.com/shopspring/decimal"
)

// DefaultSettleTolerance 结算平衡容差
var DefaultSettleTolerance = decimal.RequireFromString("0.01")

// Settings 计算参数
type Settings struct {
	Defaults         RateDefaults
	NegativeOverride string
	SettleTolerance  decimal.Decimal
}

// DefaultSettings 默认计算参数：负向团队佣金透传并告警
func DefaultSettings() Settings {
	return Settings{
		Defaults:         DefaultRateDefaults(),
		NegativeOverride: constants.NegativeOverridePassthrough,
		SettleTolerance:  DefaultSettleTolerance,
	}
}

// Warning 计算过程中的非致命告警
type Warning struct {
	Code      string `json:"code"`
	SalesCode string `json:"sales_code"`
	OrderID   uint   `json:"order_id,omitempty"`
	Message   string `json:"message"`
}

// OrderCommission 单笔订单的佣金拆分
type OrderCommission struct {
	OrderID           uint
	SalesCode         string
	Net               USD
	Confirmed         bool
	Rate              decimal.Decimal
	Direct            decimal.Decimal
	ParentRate        decimal.Decimal
	Override          decimal.Decimal
	OverrideRecipient string
	Warnings          []Warning
}

// Calculator 单笔订单佣金计算
type Calculator struct {
	normalizer       *Normalizer
	rates            *RateHistory
	accounts         map[string]Account
	negativeOverride string
}

// NewCalculator 创建计算器
func NewCalculator(normalizer *Normalizer, rates *RateHistory, accounts map[string]Account, negativeOverride string) *Calculator {
	if accounts == nil {
		accounts = map[string]Account{}
	}
	if strings.TrimSpace(negativeOverride) == "" {
		negativeOverride = constants.NegativeOverridePassthrough
	}
	return &Calculator{
		normalizer:       normalizer,
		rates:            rates,
		accounts:         accounts,
		negativeOverride: negativeOverride,
	}
}

// Compute 计算订单佣金。
// 只有已确认配置的订单产生佣金；二级挂靠一级时，一级获得 (上级比例-本级比例) 的团队佣金。
func (c *Calculator) Compute(order Order, asOf time.Time) (OrderCommission, error) {
	code := strings.TrimSpace(order.SalesCode)
	result := OrderCommission{
		OrderID:    order.ID,
		SalesCode:  code,
		Direct:     decimal.Zero,
		ParentRate: decimal.Zero,
		Override:   decimal.Zero,
	}

	net, err := c.normalizer.NormalizeAt(order.GrossAmount(), order.Currency, order.CreatedAt)
	if err != nil {
		return result, err
	}
	result.Net = net
	result.Confirmed = strings.TrimSpace(order.Status) == constants.OrderStatusConfirmedConfig

	own := c.rates.Resolve(code, asOf, constants.SalesTierSecondary)
	result.Rate = own.Rate
	if !own.Known {
		result.Warnings = append(result.Warnings, Warning{
			Code:      constants.WarningMissingAccount,
			SalesCode: code,
			OrderID:   order.ID,
			Message:   fmt.Sprintf("销售账号 %s 不存在，按 %s 比例 %s 计算", code, own.Source, own.Rate.String()),
		})
	}
	if result.Confirmed {
		result.Direct = net.Mul(own.Rate)
	}

	account, ok := c.accounts[code]
	if !ok || !account.IsLinkedSecondary() {
		return result, nil
	}

	parentCode := strings.TrimSpace(account.ParentCode)
	parent := c.rates.Resolve(parentCode, asOf, constants.SalesTierPrimary)
	result.ParentRate = parent.Rate
	result.OverrideRecipient = parentCode
	if !parent.Known {
		result.Warnings = append(result.Warnings, Warning{
			Code:      constants.WarningMissingParent,
			SalesCode: code,
			OrderID:   order.ID,
			Message:   fmt.Sprintf("上级账号 %s 不存在，按 %s 比例 %s 计算", parentCode, parent.Source, parent.Rate.String()),
		})
	}
	if !result.Confirmed {
		return result, nil
	}

	override := net.Mul(parent.Rate.Sub(own.Rate))
	if override.IsNegative() {
		result.Warnings = append(result.Warnings, Warning{
			Code:      constants.WarningNegativeOverride,
			SalesCode: parentCode,
			OrderID:   order.ID,
			Message:   fmt.Sprintf("上级比例 %s 低于下级比例 %s，团队佣金为 %s", parent.Rate.String(), own.Rate.String(), override.Round(2).StringFixed(2)),
		})
		if c.negativeOverride == constants.NegativeOverrideClamp {
			override = decimal.Zero
		}
	}
	result.Override = override
	return result, nil
}
