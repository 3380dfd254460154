package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/constants"
	"github.com/dujiao-next/sales-settlement/internal/lock"
	"github.com/dujiao-next/sales-settlement/internal/logger"
	"github.com/dujiao-next/sales-settlement/internal/models"
	"github.com/dujiao-next/sales-settlement/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountService 销售账号与已付佣金服务
type AccountService struct {
	repo        repository.SalesAccountRepository
	rateRepo    repository.RateChangeRepository
	payoutRepo  repository.CommissionPayoutRepository
	locker      lock.Locker
	invalidator Invalidator
	now         func() time.Time
}

// NewAccountService 创建销售账号服务
func NewAccountService(
	repo repository.SalesAccountRepository,
	rateRepo repository.RateChangeRepository,
	payoutRepo repository.CommissionPayoutRepository,
	locker lock.Locker,
	invalidator Invalidator,
) *AccountService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &AccountService{
		repo:        repo,
		rateRepo:    rateRepo,
		payoutRepo:  payoutRepo,
		locker:      locker,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// CreateAccountInput 创建账号输入
type CreateAccountInput struct {
	Code        string
	Tier        string
	ParentCode  string
	Name        string
	WechatName  string
	InitialRate *decimal.Decimal
	Operator    string
}

// Create 创建账号，层级在此确定后不再推断。
// 指定初始比例时同时写入一条当天生效的比例记录。
func (s *AccountService) Create(ctx context.Context, input CreateAccountInput) (*models.SalesAccount, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, ErrInvalidSalesCode
	}
	tier := strings.ToLower(strings.TrimSpace(input.Tier))
	if tier != constants.SalesTierPrimary && tier != constants.SalesTierSecondary {
		return nil, ErrInvalidTier
	}
	parentCode := strings.TrimSpace(input.ParentCode)
	if tier == constants.SalesTierPrimary && parentCode != "" {
		return nil, ErrInvalidParent
	}
	if parentCode == code {
		return nil, ErrInvalidParent
	}
	if input.InitialRate != nil && !rateInRange(*input.InitialRate) {
		return nil, ErrRateOutOfRange
	}

	unlock, err := s.locker.Lock(ctx, lock.Key(constants.LockKeySales, code))
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now().UTC()
	account := &models.SalesAccount{
		Code:           code,
		Tier:           tier,
		Name:           strings.TrimSpace(input.Name),
		WechatName:     strings.TrimSpace(input.WechatName),
		PaidCommission: models.ZeroMoney(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if parentCode != "" {
		account.ParentCode = &parentCode
	}
	if input.InitialRate != nil {
		account.CurrentRate = decimal.NewNullDecimal(*input.InitialRate)
	}

	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.GetByCode(code)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAccountExists
		}
		if parentCode != "" {
			parent, err := repo.GetByCode(parentCode)
			if err != nil {
				return err
			}
			if parent == nil || parent.Tier != constants.SalesTierPrimary {
				return ErrInvalidParent
			}
		}
		if err := repo.Create(account); err != nil {
			return err
		}
		if input.InitialRate == nil {
			return nil
		}
		return s.rateRepo.WithTx(tx).Create(&models.RateChange{
			SalesCode:     code,
			NewRate:       *input.InitialRate,
			EffectiveDate: NormalizeEffectiveDate(now),
			ChangedBy:     strings.TrimSpace(input.Operator),
			Reason:        "initial rate",
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("sales_account_created", "sales_code", code, "tier", tier, "parent_code", parentCode)
	s.invalidate(ctx, "account_created", code)
	return account, nil
}

// Get 获取账号
func (s *AccountService) Get(code string) (*models.SalesAccount, error) {
	account, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	return account, nil
}

// List 分页查询账号
func (s *AccountService) List(filter repository.SalesAccountListFilter) ([]models.SalesAccount, int64, error) {
	return s.repo.List(filter)
}

// ListTeam 一级销售名下的二级账号
func (s *AccountService) ListTeam(parentCode string) ([]models.SalesAccount, error) {
	parent, err := s.Get(parentCode)
	if err != nil {
		return nil, err
	}
	if parent.Tier != constants.SalesTierPrimary {
		return nil, ErrInvalidParent
	}
	rows, _, err := s.repo.List(repository.SalesAccountListFilter{ParentCode: parent.Code})
	return rows, err
}

// PayoutInput 已付佣金变更输入
type PayoutInput struct {
	SalesCode string
	Amount    decimal.Decimal
	Operator  string
	Note      string
}

// RecordPayout 累加一笔已付佣金，金额必须为正；超付不报错，在结算中表现为 overpaid
func (s *AccountService) RecordPayout(ctx context.Context, input PayoutInput) (*models.SalesAccount, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidPayoutAmount
	}
	return s.mutatePaid(ctx, input, func(before decimal.Decimal) decimal.Decimal {
		return before.Add(input.Amount)
	}, "payout_recorded")
}

// SetPaidCommission 直接校正已付佣金，值不能为负
func (s *AccountService) SetPaidCommission(ctx context.Context, input PayoutInput) (*models.SalesAccount, error) {
	if input.Amount.IsNegative() {
		return nil, ErrInvalidPayoutAmount
	}
	return s.mutatePaid(ctx, input, func(decimal.Decimal) decimal.Decimal {
		return input.Amount
	}, "paid_commission_set")
}

func (s *AccountService) mutatePaid(ctx context.Context, input PayoutInput, next func(before decimal.Decimal) decimal.Decimal, reason string) (*models.SalesAccount, error) {
	code := strings.TrimSpace(input.SalesCode)
	if code == "" {
		return nil, ErrInvalidSalesCode
	}
	unlock, err := s.locker.Lock(ctx, lock.Key(constants.LockKeySales, code))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var updated *models.SalesAccount
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		account, err := repo.GetByCodeForUpdate(code)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrNotFound
		}
		now := s.now().UTC()
		before := account.PaidCommission
		after := models.NewMoneyFromDecimal(next(before.Decimal))
		if err := repo.UpdatePaidCommission(code, after, now); err != nil {
			return err
		}
		if err := s.payoutRepo.WithTx(tx).Create(&models.CommissionPayout{
			SalesCode:  code,
			Amount:     models.NewMoneyFromDecimal(after.Decimal.Sub(before.Decimal)),
			PaidBefore: before,
			PaidAfter:  after,
			Operator:   strings.TrimSpace(input.Operator),
			Note:       strings.TrimSpace(input.Note),
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		account.PaidCommission = after
		account.UpdatedAt = now
		updated = account
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		logger.Errorw("paid_commission_update_failed", "sales_code", code, "error", err)
		return nil, err
	}
	logger.Infow(reason, "sales_code", code, "paid_commission", updated.PaidCommission.String(), "operator", input.Operator)
	s.invalidate(ctx, reason, code)
	return updated, nil
}

// ListPayouts 账号的已付佣金流水
func (s *AccountService) ListPayouts(code string, page, pageSize int) ([]models.CommissionPayout, int64, error) {
	if _, err := s.Get(code); err != nil {
		return nil, 0, err
	}
	return s.payoutRepo.ListByCode(code, page, pageSize)
}

func (s *AccountService) invalidate(ctx context.Context, reason, code string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, reason, code)
	}
}

func rateInRange(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(1))
}
