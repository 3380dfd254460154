package service

import (
	"context"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/commission"
	"github.com/dujiao-next/sales-settlement/internal/constants"
	"github.com/dujiao-next/sales-settlement/internal/lock"
	"github.com/dujiao-next/sales-settlement/internal/logger"
	"github.com/dujiao-next/sales-settlement/internal/models"
	"github.com/dujiao-next/sales-settlement/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RateService 佣金比例历史服务
type RateService struct {
	accountRepo repository.SalesAccountRepository
	repo        repository.RateChangeRepository
	defaults    commission.RateDefaults
	locker      lock.Locker
	invalidator Invalidator
	now         func() time.Time
}

// NewRateService 创建比例服务
func NewRateService(
	accountRepo repository.SalesAccountRepository,
	repo repository.RateChangeRepository,
	defaults commission.RateDefaults,
	locker lock.Locker,
	invalidator Invalidator,
) *RateService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &RateService{
		accountRepo: accountRepo,
		repo:        repo,
		defaults:    defaults,
		locker:      locker,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// RecordRateChangeInput 比例变更输入
type RecordRateChangeInput struct {
	SalesCode     string
	NewRate       decimal.Decimal
	EffectiveDate time.Time
	ChangedBy     string
	Reason        string
}

// NormalizeEffectiveDate 生效日期统一到 UTC 零点
func NormalizeEffectiveDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// RecordRateChange 追加一条比例变更。
// current_rate 同步为当前已生效的记录，未来生效的变更不会提前改变 current_rate。
func (s *RateService) RecordRateChange(ctx context.Context, input RecordRateChangeInput) (*models.RateChange, error) {
	code := strings.TrimSpace(input.SalesCode)
	if code == "" {
		return nil, ErrInvalidSalesCode
	}
	if !rateInRange(input.NewRate) {
		return nil, ErrRateOutOfRange
	}
	effective := input.EffectiveDate
	if effective.IsZero() {
		effective = s.now()
	}
	effective = NormalizeEffectiveDate(effective)

	unlock, err := s.locker.Lock(ctx, lock.Key(constants.LockKeySales, code))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var change *models.RateChange
	err = s.accountRepo.Transaction(func(tx *gorm.DB) error {
		accounts := s.accountRepo.WithTx(tx)
		rates := s.repo.WithTx(tx)

		account, err := accounts.GetByCodeForUpdate(code)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrMissingAccount
		}
		existing, err := rates.GetByCodeAndDate(code, effective)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateEffectiveDate
		}

		now := s.now().UTC()
		oldRate := account.CurrentRate
		previous, err := rates.GetEffectiveAt(code, effective.Add(-time.Nanosecond))
		if err != nil {
			return err
		}
		if previous != nil {
			oldRate = decimal.NewNullDecimal(previous.NewRate)
		}
		change = &models.RateChange{
			SalesCode:     code,
			OldRate:       oldRate,
			NewRate:       input.NewRate,
			EffectiveDate: effective,
			ChangedBy:     strings.TrimSpace(input.ChangedBy),
			Reason:        strings.TrimSpace(input.Reason),
			CreatedAt:     now,
		}
		if err := rates.Create(change); err != nil {
			return err
		}
		inEffect, err := rates.GetEffectiveAt(code, now)
		if err != nil {
			return err
		}
		if inEffect == nil {
			return nil
		}
		return accounts.UpdateCurrentRate(code, inEffect.NewRate, now)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("rate_change_recorded",
		"sales_code", code,
		"new_rate", input.NewRate.String(),
		"effective_date", effective.Format("2006-01-02"),
		"changed_by", change.ChangedBy,
	)
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, "rate_change_recorded", code)
	}
	return change, nil
}

// ListRateChanges 账号的比例历史，按生效日期升序
func (s *RateService) ListRateChanges(code string) ([]models.RateChange, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return s.repo.ListAll()
	}
	return s.repo.ListByCode(code)
}

// RateAt 账号在 asOf 时刻的生效比例及来源，账号不存在时按二级默认值
func (s *RateService) RateAt(code string, asOf time.Time) (commission.RateResolution, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return commission.RateResolution{}, ErrInvalidSalesCode
	}
	account, err := s.accountRepo.GetByCode(code)
	if err != nil {
		return commission.RateResolution{}, err
	}
	entries, err := s.repo.ListByCode(code)
	if err != nil {
		return commission.RateResolution{}, err
	}
	rows := make([]commission.RateEntry, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, toRateEntry(entry))
	}
	accounts := map[string]commission.Account{}
	if account != nil {
		accounts[code] = toCommissionAccount(*account)
	}
	history := commission.NewRateHistory(rows, accounts, s.defaults)
	return history.Resolve(code, asOf, constants.SalesTierSecondary), nil
}
