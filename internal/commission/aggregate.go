package commission

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/constants"

	"github.com/shopspring/decimal"
)

// Engine 佣金汇总引擎，无状态，可并发使用
type Engine struct {
	settings   Settings
	normalizer *Normalizer
}

// NewEngine 创建汇总引擎
func NewEngine(settings Settings, normalizer *Normalizer) *Engine {
	if settings.Defaults.Primary.IsZero() && settings.Defaults.Secondary.IsZero() {
		settings.Defaults = DefaultRateDefaults()
	}
	if !settings.SettleTolerance.IsPositive() {
		settings.SettleTolerance = DefaultSettleTolerance
	}
	if normalizer == nil {
		normalizer = NewNormalizer(DefaultCNYPerUSD, nil)
	}
	return &Engine{settings: settings, normalizer: normalizer}
}

// Settings 返回引擎参数
func (e *Engine) Settings() Settings {
	return e.settings
}

// Normalizer 返回币种折算器
func (e *Engine) Normalizer() *Normalizer {
	return e.normalizer
}

// AggregateOptions 汇总选项
type AggregateOptions struct {
	From *time.Time // 下单时间下界（含）
	To   *time.Time // 下单时间上界（不含）
	AsOf *time.Time // 比例解析时刻，空则取各订单下单时间
}

// Rollup 单个账号的业绩汇总
type Rollup struct {
	SalesCode        string          `json:"sales_code"`
	Tier             string          `json:"tier"`
	ParentCode       string          `json:"parent_code,omitempty"`
	TotalOrders      int             `json:"total_orders"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	ConfirmedOrders  int             `json:"confirmed_orders"`
	ConfirmedAmount  decimal.Decimal `json:"confirmed_amount"`
	DirectCommission decimal.Decimal `json:"direct_commission"`
	TeamCommission   decimal.Decimal `json:"team_commission"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	Warnings         []Warning       `json:"warnings,omitempty"`
}

func newRollup(code string, account *Account) *Rollup {
	r := &Rollup{
		SalesCode:        code,
		TotalAmount:      decimal.Zero,
		ConfirmedAmount:  decimal.Zero,
		DirectCommission: decimal.Zero,
		TeamCommission:   decimal.Zero,
		CommissionAmount: decimal.Zero,
	}
	if account != nil {
		r.Tier = account.Tier
		r.ParentCode = account.ParentCode
	}
	return r
}

// Aggregate 按口径汇总快照中的订单。
// 已拒绝订单不计；被排除账号的订单整体跳过；团队佣金只记给未被排除的上级。
// 没有任何命中订单的账号不出现在结果中。
func (e *Engine) Aggregate(snap *Snapshot, policy string, opts AggregateOptions) (map[string]*Rollup, error) {
	if snap == nil {
		return nil, ErrSnapshotRequired
	}
	scopes, err := ScopesForPolicy(policy)
	if err != nil {
		return nil, err
	}

	accounts := snap.AccountIndex()
	rates := NewRateHistory(snap.RateChanges, accounts, e.settings.Defaults)
	exclusions := NewExclusionSet(snap.Exclusions)
	calc := NewCalculator(e.normalizer, rates, accounts, e.settings.NegativeOverride)

	excluded := func(code string) bool {
		var account *Account
		if a, ok := accounts[code]; ok {
			account = &a
		}
		return exclusions.IsAccountExcluded(code, account, scopes)
	}

	result := make(map[string]*Rollup)
	ensure := func(code string) *Rollup {
		if r, ok := result[code]; ok {
			return r
		}
		var account *Account
		if a, ok := accounts[code]; ok {
			account = &a
		}
		r := newRollup(code, account)
		result[code] = r
		return r
	}

	for _, order := range sortedOrders(snap.Orders) {
		code := strings.TrimSpace(order.SalesCode)
		if code == "" || strings.TrimSpace(order.Status) == constants.OrderStatusRejected {
			continue
		}
		if !inWindow(order.CreatedAt, opts) {
			continue
		}
		if excluded(code) {
			continue
		}

		asOf := order.CreatedAt
		if opts.AsOf != nil {
			asOf = *opts.AsOf
		}

		owner := ensure(code)
		owner.TotalOrders++

		item, err := calc.Compute(order, asOf)
		if err != nil {
			if errors.Is(err, ErrUnsupportedCurrency) {
				owner.Warnings = append(owner.Warnings, Warning{
					Code:      constants.WarningUnsupportedCurrency,
					SalesCode: code,
					OrderID:   order.ID,
					Message:   err.Error(),
				})
				continue
			}
			return nil, err
		}

		owner.TotalAmount = owner.TotalAmount.Add(item.Net.Decimal())
		if item.Confirmed {
			owner.ConfirmedOrders++
			owner.ConfirmedAmount = owner.ConfirmedAmount.Add(item.Net.Decimal())
			owner.DirectCommission = owner.DirectCommission.Add(item.Direct)
		}

		recipientIncluded := item.OverrideRecipient != "" && !excluded(item.OverrideRecipient)
		for _, w := range item.Warnings {
			if w.Code == constants.WarningNegativeOverride {
				if recipientIncluded {
					ensure(item.OverrideRecipient).Warnings = append(ensure(item.OverrideRecipient).Warnings, w)
				}
				continue
			}
			owner.Warnings = append(owner.Warnings, w)
		}

		if item.Confirmed && recipientIncluded {
			recipient := ensure(item.OverrideRecipient)
			recipient.TeamCommission = recipient.TeamCommission.Add(item.Override)
		}
	}

	for _, r := range result {
		r.CommissionAmount = r.DirectCommission.Add(r.TeamCommission)
	}
	return result, nil
}

// ComputeOrder 计算快照中单笔订单的佣金拆分
func (e *Engine) ComputeOrder(snap *Snapshot, order Order, asOf time.Time) (OrderCommission, error) {
	if snap == nil {
		return OrderCommission{}, ErrSnapshotRequired
	}
	accounts := snap.AccountIndex()
	rates := NewRateHistory(snap.RateChanges, accounts, e.settings.Defaults)
	return NewCalculator(e.normalizer, rates, accounts, e.settings.NegativeOverride).Compute(order, asOf)
}

// RateAt 在快照上解析账号比例
func (e *Engine) RateAt(snap *Snapshot, code string, asOf time.Time) RateResolution {
	var accounts map[string]Account
	var changes []RateEntry
	if snap != nil {
		accounts = snap.AccountIndex()
		changes = snap.RateChanges
	}
	return NewRateHistory(changes, accounts, e.settings.Defaults).Resolve(code, asOf, constants.SalesTierSecondary)
}

func sortedOrders(orders []Order) []Order {
	out := make([]Order, len(orders))
	copy(out, orders)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func inWindow(at time.Time, opts AggregateOptions) bool {
	if opts.From != nil && at.Before(*opts.From) {
		return false
	}
	if opts.To != nil && !at.Before(*opts.To) {
		return false
	}
	return true
}
