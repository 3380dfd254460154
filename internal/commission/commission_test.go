package commission

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/constants"

	"github.com/shopspring/decimal"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func rate(value string) *decimal.Decimal {
	v := d(value)
	return &v
}

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func confirmedOrder(id uint, code, amount, currency string, at time.Time) Order {
	return Order{
		ID:        id,
		SalesCode: code,
		Amount:    d(amount),
		Currency:  currency,
		Status:    constants.OrderStatusConfirmedConfig,
		CreatedAt: at,
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Fatalf("%s want %s got %s", name, want, got.String())
	}
}

func baseSnapshot() *Snapshot {
	return &Snapshot{
		Accounts: []Account{
			{Code: "P", Tier: constants.SalesTierPrimary, CurrentRate: rate("0.40")},
			{Code: "S", Tier: constants.SalesTierSecondary, ParentCode: "P", CurrentRate: rate("0.25")},
		},
		Orders: []Order{
			confirmedOrder(1, "P", "1000", constants.CurrencyUSD, day("2024-03-01")),
			confirmedOrder(2, "S", "1000", constants.CurrencyUSD, day("2024-03-02")),
		},
	}
}

func TestAggregateDirectAndTeamCommission(t *testing.T) {
	engine := NewEngine(DefaultSettings(), nil)
	rollups, err := engine.Aggregate(baseSnapshot(), constants.PolicyStatistics, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}

	p := rollups["P"]
	s := rollups["S"]
	if p == nil || s == nil {
		t.Fatalf("expected rollups for P and S, got %+v", rollups)
	}
	assertDecimal(t, "P direct", p.DirectCommission, "400")
	assertDecimal(t, "P team", p.TeamCommission, "150")
	assertDecimal(t, "P commission", p.CommissionAmount, "550")
	assertDecimal(t, "S direct", s.DirectCommission, "250")
	assertDecimal(t, "S team", s.TeamCommission, "0")
	if s.ParentCode != "P" || p.Tier != constants.SalesTierPrimary {
		t.Fatalf("unexpected rollup identity: P=%+v S=%+v", p, s)
	}
}

func TestAggregateCNYOrderNormalized(t *testing.T) {
	snap := &Snapshot{
		Accounts: []Account{{Code: "C", Tier: constants.SalesTierSecondary, CurrentRate: rate("0.30")}},
		Orders:   []Order{confirmedOrder(1, "C", "715", constants.CurrencyCNY, day("2024-03-01"))},
	}
	rollups, err := NewEngine(DefaultSettings(), nil).Aggregate(snap, constants.PolicyStatistics, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	assertDecimal(t, "total amount", rollups["C"].TotalAmount, "100")
	assertDecimal(t, "direct", rollups["C"].DirectCommission, "30")
}

func TestAggregateSkipsRejectedAndUnconfirmed(t *testing.T) {
	snap := baseSnapshot()
	snap.Orders = append(snap.Orders,
		Order{ID: 3, SalesCode: "P", Amount: d("500"), Currency: constants.CurrencyUSD, Status: constants.OrderStatusRejected, CreatedAt: day("2024-03-03")},
		Order{ID: 4, SalesCode: "S", Amount: d("200"), Currency: constants.CurrencyUSD, Status: constants.OrderStatusPendingConfig, CreatedAt: day("2024-03-04")},
	)
	rollups, err := NewEngine(DefaultSettings(), nil).Aggregate(snap, constants.PolicyStatistics, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if rollups["P"].TotalOrders != 1 {
		t.Fatalf("rejected order should not be counted, got %d", rollups["P"].TotalOrders)
	}
	if rollups["S"].TotalOrders != 2 || rollups["S"].ConfirmedOrders != 1 {
		t.Fatalf("pending order counted but not confirmed, got %+v", rollups["S"])
	}
	assertDecimal(t, "S total amount", rollups["S"].TotalAmount, "1200")
	assertDecimal(t, "S direct", rollups["S"].DirectCommission, "250")
	assertDecimal(t, "P team", rollups["P"].TeamCommission, "150")
}

func TestAggregateAccountsWithoutOrdersAbsent(t *testing.T) {
	snap := baseSnapshot()
	snap.Accounts = append(snap.Accounts, Account{Code: "IDLE", Tier: constants.SalesTierSecondary})
	rollups, err := NewEngine(DefaultSettings(), nil).Aggregate(snap, constants.PolicyDisplay, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if _, ok := rollups["IDLE"]; ok {
		t.Fatalf("account without orders should be absent")
	}
}

func TestAggregateExclusionPolicies(t *testing.T) {
	snap := baseSnapshot()
	snap.Accounts = append(snap.Accounts, Account{Code: "Y", Tier: constants.SalesTierSecondary, WechatName: "wx-y"})
	snap.Orders = append(snap.Orders, confirmedOrder(5, "Y", "100", constants.CurrencyUSD, day("2024-03-05")))
	snap.Exclusions = []Exclusion{{Target: "wx-y", Scope: constants.ExclusionScopePermanent}}

	engine := NewEngine(DefaultSettings(), nil)
	display, err := engine.Aggregate(snap, constants.PolicyDisplay, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate display failed: %v", err)
	}
	if _, ok := display["Y"]; !ok {
		t.Fatalf("permanent-only exclusion should stay visible under display policy")
	}
	stats, err := engine.Aggregate(snap, constants.PolicyStatistics, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate statistics failed: %v", err)
	}
	if _, ok := stats["Y"]; ok {
		t.Fatalf("permanent exclusion should remove account from statistics")
	}
}

func TestAggregateExcludedParentGetsNoOverride(t *testing.T) {
	snap := baseSnapshot()
	snap.Exclusions = []Exclusion{{Target: "P", Scope: constants.ExclusionScopeDisplay}}
	rollups, err := NewEngine(DefaultSettings(), nil).Aggregate(snap, constants.PolicyStatistics, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if _, ok := rollups["P"]; ok {
		t.Fatalf("excluded parent should be absent")
	}
	assertDecimal(t, "S direct", rollups["S"].DirectCommission, "250")
}

func TestAggregateNegativeOverridePassthroughAndClamp(t *testing.T) {
	snap := &Snapshot{
		Accounts: []Account{
			{Code: "P", Tier: constants.SalesTierPrimary, CurrentRate: rate("0.20")},
			{Code: "S", Tier: constants.SalesTierSecondary, ParentCode: "P", CurrentRate: rate("0.30")},
		},
		Orders: []Order{confirmedOrder(1, "S", "1000", constants.CurrencyUSD, day("2024-03-01"))},
	}

	passthrough, err := NewEngine(DefaultSettings(), nil).Aggregate(snap, constants.PolicyStatistics, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	assertDecimal(t, "passthrough team", passthrough["P"].TeamCommission, "-100")
	if len(passthrough["P"].Warnings) != 1 || passthrough["P"].Warnings[0].Code != constants.WarningNegativeOverride {
		t.Fatalf("expected negative override warning, got %+v", passthrough["P"].Warnings)
	}

	settings := DefaultSettings()
	settings.NegativeOverride = constants.NegativeOverrideClamp
	clamped, err := NewEngine(settings, nil).Aggregate(snap, constants.PolicyStatistics, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	assertDecimal(t, "clamped team", clamped["P"].TeamCommission, "0")
	if len(clamped["P"].Warnings) != 1 {
		t.Fatalf("clamped override should still be flagged, got %+v", clamped["P"].Warnings)
	}
}

func TestAggregateMissingAccountDegradesToDefault(t *testing.T) {
	snap := &Snapshot{
		Orders: []Order{
			confirmedOrder(1, "GHOST", "100", constants.CurrencyUSD, day("2024-03-01")),
			confirmedOrder(2, "GHOST", "100", "EUR", day("2024-03-02")),
		},
	}
	rollups, err := NewEngine(DefaultSettings(), nil).Aggregate(snap, constants.PolicyStatistics, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	ghost := rollups["GHOST"]
	assertDecimal(t, "ghost direct", ghost.DirectCommission, "25")
	if len(ghost.Warnings) != 2 {
		t.Fatalf("expected missing_account and unsupported_currency warnings, got %+v", ghost.Warnings)
	}
	if ghost.Warnings[0].Code != constants.WarningMissingAccount || ghost.Warnings[1].Code != constants.WarningUnsupportedCurrency {
		t.Fatalf("unexpected warning order: %+v", ghost.Warnings)
	}
}

func TestAggregateWindowAndAsOf(t *testing.T) {
	snap := &Snapshot{
		Accounts: []Account{{Code: "A", Tier: constants.SalesTierSecondary}},
		RateChanges: []RateEntry{
			{SalesCode: "A", Rate: d("0.30"), EffectiveDate: day("2024-01-01")},
			{SalesCode: "A", Rate: d("0.35"), EffectiveDate: day("2024-02-01")},
		},
		Orders: []Order{
			confirmedOrder(1, "A", "100", constants.CurrencyUSD, day("2024-01-15")),
			confirmedOrder(2, "A", "100", constants.CurrencyUSD, day("2024-02-15")),
		},
	}
	engine := NewEngine(DefaultSettings(), nil)

	rollups, err := engine.Aggregate(snap, constants.PolicyStatistics, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	assertDecimal(t, "per-order rates", rollups["A"].DirectCommission, "65")

	asOf := day("2024-03-01")
	rollups, err = engine.Aggregate(snap, constants.PolicyStatistics, AggregateOptions{AsOf: &asOf})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	assertDecimal(t, "as-of rate", rollups["A"].DirectCommission, "70")

	from := day("2024-02-01")
	rollups, err = engine.Aggregate(snap, constants.PolicyStatistics, AggregateOptions{From: &from})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if rollups["A"].TotalOrders != 1 {
		t.Fatalf("window should keep one order, got %d", rollups["A"].TotalOrders)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	engine := NewEngine(DefaultSettings(), nil)
	snap := baseSnapshot()
	first, err := engine.Aggregate(snap, constants.PolicyStatistics, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	second, err := engine.Aggregate(snap, constants.PolicyStatistics, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("aggregate should be deterministic")
	}
}

func TestAggregateInvalidPolicy(t *testing.T) {
	_, err := NewEngine(DefaultSettings(), nil).Aggregate(baseSnapshot(), "everything", AggregateOptions{})
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestSettleClassification(t *testing.T) {
	engine := NewEngine(DefaultSettings(), nil)
	rollup := &Rollup{SalesCode: "X", CommissionAmount: d("500")}

	cases := []struct {
		paid   string
		status string
	}{
		{"500", constants.SettlementStatusSettled},
		{"499.995", constants.SettlementStatusSettled},
		{"400", constants.SettlementStatusPendingPayout},
		{"600", constants.SettlementStatusOverpaid},
	}
	for _, tc := range cases {
		got := engine.Settle("X", nil, rollup, d(tc.paid))
		if got.Status != tc.status {
			t.Fatalf("paid=%s status want %s got %s", tc.paid, tc.status, got.Status)
		}
	}
	settled := engine.Settle("X", nil, rollup, d("500"))
	assertDecimal(t, "pending", settled.PendingCommission, "0")
}

func TestSettleWithoutRollup(t *testing.T) {
	engine := NewEngine(DefaultSettings(), nil)
	account := &Account{Code: "Z", Tier: constants.SalesTierPrimary}
	got := engine.Settle("Z", account, nil, d("10"))
	if got.Status != constants.SettlementStatusOverpaid || got.Tier != constants.SalesTierPrimary {
		t.Fatalf("unexpected settlement: %+v", got)
	}
}

func TestSummarizeAndRank(t *testing.T) {
	rollups, err := NewEngine(DefaultSettings(), nil).Aggregate(baseSnapshot(), constants.PolicyStatistics, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	summary := Summarize(rollups)
	if summary.Accounts != 2 || summary.TotalOrders != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	assertDecimal(t, "summary commission", summary.CommissionAmount, "800")

	ranked := Rank(rollups, 1)
	if len(ranked) != 1 || ranked[0].SalesCode != "P" {
		t.Fatalf("expected P first, got %+v", ranked)
	}
}
