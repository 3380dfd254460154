package commission

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/constants"

	"github.com/shopspring/decimal"
)

// DefaultCNYPerUSD 人民币兑美元的静态折算汇率
var DefaultCNYPerUSD = decimal.RequireFromString("7.15")

// USD 已折算为美元的金额，只能由 Normalizer 产生
type USD struct {
	amount decimal.Decimal
}

// ZeroUSD 零美元
func ZeroUSD() USD {
	return USD{amount: decimal.Zero}
}

// Decimal 返回底层数值
func (u USD) Decimal() decimal.Decimal {
	return u.amount
}

// Add 美元金额相加
func (u USD) Add(other USD) USD {
	return USD{amount: u.amount.Add(other.amount)}
}

// Mul 按比例计算
func (u USD) Mul(rate decimal.Decimal) decimal.Decimal {
	return u.amount.Mul(rate)
}

// FXRate 带生效时间的汇率（1 USD 兑换的人民币数）
type FXRate struct {
	EffectiveAt time.Time
	CNYPerUSD   decimal.Decimal
}

// Normalizer 币种折算器
type Normalizer struct {
	cnyPerUSD decimal.Decimal
	history   []FXRate
}

// NewNormalizer 创建折算器，history 可为空
func NewNormalizer(cnyPerUSD decimal.Decimal, history []FXRate) *Normalizer {
	if !cnyPerUSD.IsPositive() {
		cnyPerUSD = DefaultCNYPerUSD
	}
	rows := make([]FXRate, 0, len(history))
	for _, item := range history {
		if !item.CNYPerUSD.IsPositive() || item.EffectiveAt.IsZero() {
			continue
		}
		rows = append(rows, item)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].EffectiveAt.Before(rows[j].EffectiveAt)
	})
	return &Normalizer{cnyPerUSD: cnyPerUSD, history: rows}
}

// Normalize 使用静态汇率折算为美元
func (n *Normalizer) Normalize(amount decimal.Decimal, currency string) (USD, error) {
	return n.convert(amount, currency, n.staticRate())
}

// NormalizeAt 使用 at 时刻生效的汇率折算，无历史时退回静态汇率
func (n *Normalizer) NormalizeAt(amount decimal.Decimal, currency string, at time.Time) (USD, error) {
	return n.convert(amount, currency, n.rateAt(at))
}

func (n *Normalizer) convert(amount decimal.Decimal, currency string, cnyPerUSD decimal.Decimal) (USD, error) {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case constants.CurrencyUSD:
		return USD{amount: amount}, nil
	case constants.CurrencyCNY:
		return USD{amount: amount.Div(cnyPerUSD)}, nil
	default:
		return USD{}, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}
}

func (n *Normalizer) staticRate() decimal.Decimal {
	if n == nil || !n.cnyPerUSD.IsPositive() {
		return DefaultCNYPerUSD
	}
	return n.cnyPerUSD
}

func (n *Normalizer) rateAt(at time.Time) decimal.Decimal {
	if n == nil || len(n.history) == 0 {
		return n.staticRate()
	}
	idx := sort.Search(len(n.history), func(i int) bool {
		return n.history[i].EffectiveAt.After(at)
	})
	if idx == 0 {
		return n.staticRate()
	}
	return n.history[idx-1].CNYPerUSD
}

// IsSupportedCurrency 判断币种是否可折算
func IsSupportedCurrency(currency string) bool {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case constants.CurrencyUSD, constants.CurrencyCNY:
		return true
	default:
		return false
	}
}
