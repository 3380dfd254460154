package commission

import (
	"sort"

	"github.com/dujiao-next/sales-settlement/internal/constants"

	"github.com/shopspring/decimal"
)

// Settlement 账号结算快照
type Settlement struct {
	SalesCode         string          `json:"sales_code"`
	Tier              string          `json:"tier"`
	ParentCode        string          `json:"parent_code,omitempty"`
	TotalOrders       int             `json:"total_orders"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	ConfirmedAmount   decimal.Decimal `json:"confirmed_amount"`
	DirectCommission  decimal.Decimal `json:"direct_commission"`
	TeamCommission    decimal.Decimal `json:"team_commission"`
	CommissionAmount  decimal.Decimal `json:"commission_amount"`
	PaidCommission    decimal.Decimal `json:"paid_commission"`
	PendingCommission decimal.Decimal `json:"pending_commission"`
	Status            string          `json:"status"`
	Warnings          []Warning       `json:"warnings,omitempty"`
}

// ClassifySettlement 待付 > 容差为待支付，< -容差为超付，否则已结清
func ClassifySettlement(pending, tolerance decimal.Decimal) string {
	if pending.GreaterThan(tolerance) {
		return constants.SettlementStatusPendingPayout
	}
	if pending.LessThan(tolerance.Neg()) {
		return constants.SettlementStatusOverpaid
	}
	return constants.SettlementStatusSettled
}

// Settle 由汇总结果和已付金额得出结算快照，rollup 为空视为无业绩
func (e *Engine) Settle(code string, account *Account, rollup *Rollup, paid decimal.Decimal) Settlement {
	if rollup == nil {
		rollup = newRollup(code, account)
	}
	pending := rollup.CommissionAmount.Sub(paid)
	s := Settlement{
		SalesCode:         code,
		Tier:              rollup.Tier,
		ParentCode:        rollup.ParentCode,
		TotalOrders:       rollup.TotalOrders,
		TotalAmount:       rollup.TotalAmount,
		ConfirmedAmount:   rollup.ConfirmedAmount,
		DirectCommission:  rollup.DirectCommission,
		TeamCommission:    rollup.TeamCommission,
		CommissionAmount:  rollup.CommissionAmount,
		PaidCommission:    paid,
		PendingCommission: pending,
		Status:            ClassifySettlement(pending, e.settings.SettleTolerance),
		Warnings:          rollup.Warnings,
	}
	if account != nil {
		s.Tier = account.Tier
		s.ParentCode = account.ParentCode
	}
	return s
}

// SettleAll 为所有汇总结果生成结算快照，按销售代码排序
func (e *Engine) SettleAll(snap *Snapshot, rollups map[string]*Rollup) []Settlement {
	var accounts map[string]Account
	if snap != nil {
		accounts = snap.AccountIndex()
	}
	codes := make([]string, 0, len(rollups))
	for code := range rollups {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]Settlement, 0, len(codes))
	for _, code := range codes {
		paid := decimal.Zero
		var account *Account
		if a, ok := accounts[code]; ok {
			account = &a
			paid = a.PaidCommission
		}
		out = append(out, e.Settle(code, account, rollups[code], paid))
	}
	return out
}

// Summary 全局汇总
type Summary struct {
	Accounts         int             `json:"accounts"`
	TotalOrders      int             `json:"total_orders"`
	ConfirmedOrders  int             `json:"confirmed_orders"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	ConfirmedAmount  decimal.Decimal `json:"confirmed_amount"`
	DirectCommission decimal.Decimal `json:"direct_commission"`
	TeamCommission   decimal.Decimal `json:"team_commission"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	WarningCount     int             `json:"warning_count"`
}

// Summarize 汇总所有账号
func Summarize(rollups map[string]*Rollup) Summary {
	s := Summary{
		TotalAmount:      decimal.Zero,
		ConfirmedAmount:  decimal.Zero,
		DirectCommission: decimal.Zero,
		TeamCommission:   decimal.Zero,
		CommissionAmount: decimal.Zero,
	}
	for _, r := range rollups {
		s.Accounts++
		s.TotalOrders += r.TotalOrders
		s.ConfirmedOrders += r.ConfirmedOrders
		s.TotalAmount = s.TotalAmount.Add(r.TotalAmount)
		s.ConfirmedAmount = s.ConfirmedAmount.Add(r.ConfirmedAmount)
		s.DirectCommission = s.DirectCommission.Add(r.DirectCommission)
		s.TeamCommission = s.TeamCommission.Add(r.TeamCommission)
		s.CommissionAmount = s.CommissionAmount.Add(r.CommissionAmount)
		s.WarningCount += len(r.Warnings)
	}
	return s
}

// Rank 按佣金降序排名，同额按确认业绩、销售代码排序；limit<=0 不截断
func Rank(rollups map[string]*Rollup, limit int) []*Rollup {
	out := make([]*Rollup, 0, len(rollups))
	for _, r := range rollups {
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].CommissionAmount.Cmp(out[j].CommissionAmount); c != 0 {
			return c > 0
		}
		if c := out[i].ConfirmedAmount.Cmp(out[j].ConfirmedAmount); c != 0 {
			return c > 0
		}
		return out[i].SalesCode < out[j].SalesCode
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
