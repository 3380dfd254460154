package commission

import (
	"sort"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/constants"

	"github.com/shopspring/decimal"
)

// 比例来源
const (
	RateSourceHistory = "history"
	RateSourceCurrent = "current"
	RateSourceDefault = "default"
)

// RateDefaults 各层级默认佣金比例
type RateDefaults struct {
	Primary   decimal.Decimal
	Secondary decimal.Decimal
}

// DefaultRateDefaults 一级 40%，二级 25%
func DefaultRateDefaults() RateDefaults {
	return RateDefaults{
		Primary:   decimal.RequireFromString("0.40"),
		Secondary: decimal.RequireFromString("0.25"),
	}
}

// ForTier 按层级取默认比例，未知层级按二级处理
func (d RateDefaults) ForTier(tier string) decimal.Decimal {
	if strings.TrimSpace(tier) == constants.SalesTierPrimary {
		return d.Primary
	}
	return d.Secondary
}

// RateEntry 比例变更历史中的一条
type RateEntry struct {
	SalesCode     string
	Rate          decimal.Decimal
	EffectiveDate time.Time
}

// RateResolution 比例解析结果
type RateResolution struct {
	Rate   decimal.Decimal `json:"rate"`
	Source string          `json:"source"`
	Known  bool            `json:"known"` // 账号是否存在
}

// RateHistory 只读的比例历史索引
type RateHistory struct {
	entries  map[string][]RateEntry
	accounts map[string]Account
	defaults RateDefaults
}

// NewRateHistory 构建比例索引，同一账号的记录按生效日期升序
func NewRateHistory(entries []RateEntry, accounts map[string]Account, defaults RateDefaults) *RateHistory {
	grouped := make(map[string][]RateEntry)
	for _, entry := range entries {
		code := strings.TrimSpace(entry.SalesCode)
		if code == "" {
			continue
		}
		grouped[code] = append(grouped[code], entry)
	}
	for code := range grouped {
		rows := grouped[code]
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].EffectiveDate.Before(rows[j].EffectiveDate)
		})
	}
	if accounts == nil {
		accounts = map[string]Account{}
	}
	return &RateHistory{entries: grouped, accounts: accounts, defaults: defaults}
}

// RateAt 返回账号在 asOf 时刻生效的比例，从不失败
func (h *RateHistory) RateAt(code string, asOf time.Time) decimal.Decimal {
	return h.Resolve(code, asOf, constants.SalesTierSecondary).Rate
}

// Resolve 依次查找：历史记录 -> 当前比例 -> 层级默认值。
// fallbackTier 仅在账号不存在时决定默认值。
func (h *RateHistory) Resolve(code string, asOf time.Time, fallbackTier string) RateResolution {
	code = strings.TrimSpace(code)
	account, known := h.accounts[code]

	if rows := h.entries[code]; len(rows) > 0 {
		idx := sort.Search(len(rows), func(i int) bool {
			return rows[i].EffectiveDate.After(asOf)
		})
		if idx > 0 {
			return RateResolution{Rate: rows[idx-1].Rate, Source: RateSourceHistory, Known: known}
		}
	}

	if known && account.CurrentRate != nil {
		return RateResolution{Rate: *account.CurrentRate, Source: RateSourceCurrent, Known: true}
	}

	tier := fallbackTier
	if known {
		tier = account.Tier
	}
	return RateResolution{Rate: h.defaults.ForTier(tier), Source: RateSourceDefault, Known: known}
}

// Entries 返回账号的比例历史副本
func (h *RateHistory) Entries(code string) []RateEntry {
	rows := h.entries[strings.TrimSpace(code)]
	out := make([]RateEntry, len(rows))
	copy(out, rows)
	return out
}
