package main

import (
	"context"
	"errors"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/config"
	"github.com/dujiao-next/sales-settlement/internal/constants"
	"github.com/dujiao-next/sales-settlement/internal/logger"
	"github.com/dujiao-next/sales-settlement/internal/provider"
	"github.com/dujiao-next/sales-settlement/internal/service"

	"github.com/shopspring/decimal"
)

const seedOperator = "seed"

type seedOrder struct {
	OrderNo   string
	SalesCode string
	Amount    string
	Actual    string
	Currency  string
	Trial     bool
	Status    string
	DaysAgo   int
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := provider.InitDatabase(cfg.Database); err != nil {
		stdLog.Fatalf("Failed to init database: %v", err)
	}

	c := provider.NewContainer(cfg)
	ctx := context.Background()

	// 销售账号：P001 下挂两个二级，T001 为内部测试号
	accounts := []service.CreateAccountInput{
		{Code: "P001", Tier: constants.SalesTierPrimary, Name: "Alice", WechatName: "alice_wx", InitialRate: rate("0.40")},
		{Code: "P002", Tier: constants.SalesTierPrimary, Name: "Bob", WechatName: "bob_wx"},
		{Code: "S001", Tier: constants.SalesTierSecondary, ParentCode: "P001", Name: "Carol", InitialRate: rate("0.25")},
		{Code: "S002", Tier: constants.SalesTierSecondary, ParentCode: "P001", Name: "Dave", WechatName: "dave_wx"},
		{Code: "T001", Tier: constants.SalesTierPrimary, Name: "Internal Test", WechatName: "test_wx"},
	}
	for _, input := range accounts {
		input.Operator = seedOperator
		if _, err := c.AccountService.Create(ctx, input); err != nil {
			if errors.Is(err, service.ErrAccountExists) {
				stdLog.Printf("Account already exists: %s", input.Code)
				continue
			}
			stdLog.Fatalf("Failed to create account %s: %v", input.Code, err)
		}
		stdLog.Printf("Created account: %s", input.Code)
	}

	// 历史比例：P001 上月起调整为 0.45
	lastMonth := time.Now().UTC().AddDate(0, -1, 0)
	if _, err := c.RateService.RecordRateChange(ctx, service.RecordRateChangeInput{
		SalesCode:     "P001",
		NewRate:       decimal.RequireFromString("0.45"),
		EffectiveDate: lastMonth,
		ChangedBy:     seedOperator,
		Reason:        "quarterly review",
	}); err != nil && !errors.Is(err, service.ErrDuplicateEffectiveDate) {
		stdLog.Printf("Failed to record rate change: %v", err)
	}

	orders := []seedOrder{
		{OrderNo: "SEED-0001", SalesCode: "P001", Amount: "199", Currency: constants.CurrencyUSD, Status: constants.OrderStatusConfirmedPayment, DaysAgo: 40},
		{OrderNo: "SEED-0002", SalesCode: "P001", Amount: "1000", Actual: "880", Currency: constants.CurrencyCNY, Status: constants.OrderStatusConfirmedPayment, DaysAgo: 10},
		{OrderNo: "SEED-0003", SalesCode: "S001", Amount: "99", Currency: constants.CurrencyUSD, Status: constants.OrderStatusConfirmedPayment, DaysAgo: 5},
		{OrderNo: "SEED-0004", SalesCode: "S002", Amount: "0", Currency: constants.CurrencyUSD, Trial: true, Status: constants.OrderStatusConfirmedConfig, DaysAgo: 3},
		{OrderNo: "SEED-0005", SalesCode: "S002", Amount: "49", Currency: constants.CurrencyUSD, Status: constants.OrderStatusPendingPayment, DaysAgo: 1},
		{OrderNo: "SEED-0006", SalesCode: "P002", Amount: "299", Currency: constants.CurrencyUSD, Status: constants.OrderStatusRejected, DaysAgo: 2},
		{OrderNo: "SEED-0007", SalesCode: "T001", Amount: "500", Currency: constants.CurrencyUSD, Status: constants.OrderStatusConfirmedPayment, DaysAgo: 4},
	}
	for _, item := range orders {
		createdAt := time.Now().UTC().AddDate(0, 0, -item.DaysAgo)
		input := service.CreateOrderInput{
			OrderNo:   item.OrderNo,
			SalesCode: item.SalesCode,
			Amount:    decimal.RequireFromString(item.Amount),
			Currency:  item.Currency,
			IsTrial:   item.Trial,
			CreatedAt: &createdAt,
		}
		if item.Actual != "" {
			input.ActualPaymentAmount = rate(item.Actual)
		}
		order, err := c.OrderService.Create(ctx, input)
		if err != nil {
			if errors.Is(err, service.ErrOrderExists) {
				stdLog.Printf("Order already exists: %s", item.OrderNo)
				continue
			}
			stdLog.Fatalf("Failed to create order %s: %v", item.OrderNo, err)
		}
		if item.Status == order.Status {
			continue
		}
		if _, err := c.OrderService.Transition(ctx, service.TransitionInput{
			OrderID: order.ID,
			Status:  item.Status,
			Reason:  "seed",
		}); err != nil {
			stdLog.Printf("Failed to transition order %s to %s: %v", item.OrderNo, item.Status, err)
		}
	}

	// 内部测试账号：展示与统计均排除
	if _, err := c.ExclusionService.Add(ctx, service.AddExclusionInput{
		Target:     "T001",
		TargetType: constants.ExclusionTargetSalesCode,
		Scope:      constants.ExclusionScopePermanent,
		Reason:     "internal test account",
		ExcludedBy: seedOperator,
	}); err != nil && !errors.Is(err, service.ErrAlreadyExcluded) {
		stdLog.Printf("Failed to add exclusion: %v", err)
	}

	// 部分已付佣金
	if _, err := c.AccountService.SetPaidCommission(ctx, service.PayoutInput{
		SalesCode: "S001",
		Amount:    decimal.RequireFromString("10"),
		Operator:  seedOperator,
		Note:      "seed partial payout",
	}); err != nil {
		stdLog.Printf("Failed to set paid commission: %v", err)
	}

	if err := c.SettlementService.Warm(ctx); err != nil {
		stdLog.Printf("Failed to warm settlement cache: %v", err)
	}
	stdLog.Printf("Seed completed")
}

func rate(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}
