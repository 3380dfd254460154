package service

import (
	"time"

	"github.com/dujiao-next/sales-settlement/internal/commission"
	"github.com/dujiao-next/sales-settlement/internal/models"
	"github.com/dujiao-next/sales-settlement/internal/repository"
)

// SnapshotLoader 从仓储读取一次性结算快照
type SnapshotLoader struct {
	accountRepo   repository.SalesAccountRepository
	rateRepo      repository.RateChangeRepository
	orderRepo     repository.SalesOrderRepository
	exclusionRepo repository.ExclusionRepository
	now           func() time.Time
}

// NewSnapshotLoader 创建快照读取器
func NewSnapshotLoader(
	accountRepo repository.SalesAccountRepository,
	rateRepo repository.RateChangeRepository,
	orderRepo repository.SalesOrderRepository,
	exclusionRepo repository.ExclusionRepository,
) *SnapshotLoader {
	return &SnapshotLoader{
		accountRepo:   accountRepo,
		rateRepo:      rateRepo,
		orderRepo:     orderRepo,
		exclusionRepo: exclusionRepo,
		now:           time.Now,
	}
}

// Load 读取全部账号、比例历史、订单与生效排除条目
func (l *SnapshotLoader) Load() (*commission.Snapshot, error) {
	accounts, err := l.accountRepo.ListAll()
	if err != nil {
		return nil, err
	}
	changes, err := l.rateRepo.ListAll()
	if err != nil {
		return nil, err
	}
	orders, err := l.orderRepo.ListAll()
	if err != nil {
		return nil, err
	}
	exclusions, err := l.exclusionRepo.ListActive(nil)
	if err != nil {
		return nil, err
	}

	snap := &commission.Snapshot{
		Accounts:    make([]commission.Account, 0, len(accounts)),
		RateChanges: make([]commission.RateEntry, 0, len(changes)),
		Orders:      make([]commission.Order, 0, len(orders)),
		Exclusions:  toExclusions(exclusions),
		TakenAt:     l.now().UTC(),
	}
	for _, row := range accounts {
		snap.Accounts = append(snap.Accounts, toCommissionAccount(row))
	}
	for _, row := range changes {
		snap.RateChanges = append(snap.RateChanges, toRateEntry(row))
	}
	for _, row := range orders {
		snap.Orders = append(snap.Orders, toCommissionOrder(row))
	}
	return snap, nil
}

func toCommissionAccount(row models.SalesAccount) commission.Account {
	account := commission.Account{
		Code:           row.Code,
		Tier:           row.Tier,
		WechatName:     row.WechatName,
		PaidCommission: row.PaidCommission.Decimal,
	}
	if row.HasParent() {
		account.ParentCode = *row.ParentCode
	}
	if row.CurrentRate.Valid {
		rate := row.CurrentRate.Decimal
		account.CurrentRate = &rate
	}
	return account
}

func toRateEntry(row models.RateChange) commission.RateEntry {
	return commission.RateEntry{
		SalesCode:     row.SalesCode,
		Rate:          row.NewRate,
		EffectiveDate: row.EffectiveDate,
	}
}

func toCommissionOrder(row models.SalesOrder) commission.Order {
	order := commission.Order{
		ID:        row.ID,
		OrderNo:   row.OrderNo,
		SalesCode: row.SalesCode,
		Amount:    row.Amount.Decimal,
		Currency:  row.PaymentCurrency,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
	}
	if row.ActualPaymentAmount != nil {
		actual := row.ActualPaymentAmount.Decimal
		order.ActualPaymentAmount = &actual
	}
	return order
}
