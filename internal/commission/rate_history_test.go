package commission

import (
	"errors"
	"testing"

	"github.com/dujiao-next/sales-settlement/internal/constants"
)

func TestRateAtFallbackChain(t *testing.T) {
	accounts := map[string]Account{
		"S1": {Code: "S1", Tier: constants.SalesTierSecondary},
		"P1": {Code: "P1", Tier: constants.SalesTierPrimary},
		"C1": {Code: "C1", Tier: constants.SalesTierSecondary, CurrentRate: rate("0.33")},
		"H1": {Code: "H1", Tier: constants.SalesTierSecondary, CurrentRate: rate("0.50")},
	}
	entries := []RateEntry{
		{SalesCode: "H1", Rate: d("0.35"), EffectiveDate: day("2024-02-01")},
		{SalesCode: "H1", Rate: d("0.30"), EffectiveDate: day("2024-01-01")},
	}
	h := NewRateHistory(entries, accounts, DefaultRateDefaults())

	assertDecimal(t, "secondary default", h.RateAt("S1", day("2024-05-01")), "0.25")
	assertDecimal(t, "primary default", h.RateAt("P1", day("2024-05-01")), "0.40")
	assertDecimal(t, "current rate", h.RateAt("C1", day("2024-05-01")), "0.33")
	assertDecimal(t, "history mid", h.RateAt("H1", day("2024-01-15")), "0.30")
	assertDecimal(t, "history latest", h.RateAt("H1", day("2024-02-01")), "0.35")
	assertDecimal(t, "before history", h.RateAt("H1", day("2023-12-31")), "0.50")

	missing := h.Resolve("NOPE", day("2024-05-01"), constants.SalesTierPrimary)
	if missing.Known || missing.Source != RateSourceDefault {
		t.Fatalf("unexpected resolution for missing account: %+v", missing)
	}
	assertDecimal(t, "missing parent default", missing.Rate, "0.40")
}

func TestRateHistoryEntriesSorted(t *testing.T) {
	h := NewRateHistory([]RateEntry{
		{SalesCode: "A", Rate: d("0.2"), EffectiveDate: day("2024-03-01")},
		{SalesCode: "A", Rate: d("0.1"), EffectiveDate: day("2024-01-01")},
	}, nil, DefaultRateDefaults())
	rows := h.Entries("A")
	if len(rows) != 2 || !rows[0].EffectiveDate.Before(rows[1].EffectiveDate) {
		t.Fatalf("entries should be sorted ascending: %+v", rows)
	}
}

func TestNormalizerRoundTrip(t *testing.T) {
	n := NewNormalizer(DefaultCNYPerUSD, nil)
	usd, err := n.Normalize(d("123.45"), constants.CurrencyCNY)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	back, err := n.Normalize(usd.Decimal().Mul(DefaultCNYPerUSD), constants.CurrencyUSD)
	if err != nil {
		t.Fatalf("normalize usd failed: %v", err)
	}
	if back.Decimal().Sub(d("123.45")).Abs().GreaterThan(d("0.000001")) {
		t.Fatalf("round trip drifted: %s", back.Decimal().String())
	}

	if _, err := n.Normalize(d("1"), "EUR"); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}
}

func TestNormalizerHistory(t *testing.T) {
	n := NewNormalizer(DefaultCNYPerUSD, []FXRate{
		{EffectiveAt: day("2024-06-01"), CNYPerUSD: d("7.00")},
	})
	before, err := n.NormalizeAt(d("715"), constants.CurrencyCNY, day("2024-05-31"))
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	assertDecimal(t, "static before history", before.Decimal(), "100")
	after, err := n.NormalizeAt(d("700"), constants.CurrencyCNY, day("2024-06-02"))
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	assertDecimal(t, "history rate", after.Decimal(), "100")
}

func TestExclusionSet(t *testing.T) {
	set := NewExclusionSet(nil)
	if err := set.Add(Exclusion{Target: "A", Scope: constants.ExclusionScopeDisplay}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := set.Add(Exclusion{Target: "A", Scope: constants.ExclusionScopeDisplay}); !errors.Is(err, ErrAlreadyExcluded) {
		t.Fatalf("expected ErrAlreadyExcluded, got %v", err)
	}
	if err := set.Add(Exclusion{Target: "A", Scope: constants.ExclusionScopePermanent}); err != nil {
		t.Fatalf("other scope should be independent: %v", err)
	}
	if err := set.Add(Exclusion{Target: "A", Scope: "forever"}); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope, got %v", err)
	}

	if !set.Restore("A", constants.ExclusionScopeDisplay) {
		t.Fatalf("restore should report change")
	}
	if set.Restore("A", constants.ExclusionScopeDisplay) {
		t.Fatalf("second restore should be a no-op")
	}

	display, _ := set.IsExcludedUnder("A", constants.PolicyDisplay)
	stats, _ := set.IsExcludedUnder("A", constants.PolicyStatistics)
	if display || !stats {
		t.Fatalf("permanent-only target: display=%v statistics=%v", display, stats)
	}
}

func TestValidateTransition(t *testing.T) {
	ok := [][2]string{
		{constants.OrderStatusPendingPayment, constants.OrderStatusConfirmedPayment},
		{constants.OrderStatusConfirmedPayment, constants.OrderStatusPendingConfig},
		{constants.OrderStatusPendingConfig, constants.OrderStatusConfirmedConfig},
		{constants.OrderStatusPendingPayment, constants.OrderStatusRejected},
		{constants.OrderStatusPendingConfig, constants.OrderStatusRejected},
	}
	for _, pair := range ok {
		if err := ValidateTransition(pair[0], pair[1]); err != nil {
			t.Fatalf("%s -> %s should be allowed: %v", pair[0], pair[1], err)
		}
	}
	bad := [][2]string{
		{constants.OrderStatusPendingPayment, constants.OrderStatusConfirmedConfig},
		{constants.OrderStatusConfirmedConfig, constants.OrderStatusRejected},
		{constants.OrderStatusRejected, constants.OrderStatusPendingPayment},
		{constants.OrderStatusPendingConfig, "shipped"},
	}
	for _, pair := range bad {
		if err := ValidateTransition(pair[0], pair[1]); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s should be rejected, got %v", pair[0], pair[1], err)
		}
	}
	if InitialOrderStatus(true) != constants.OrderStatusPendingConfig {
		t.Fatalf("trial orders start at pending_config")
	}
}
