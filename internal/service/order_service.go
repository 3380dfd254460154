package service

import (
	"context"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/commission"
	"github.com/dujiao-next/sales-settlement/internal/constants"
	"github.com/dujiao-next/sales-settlement/internal/idgen"
	"github.com/dujiao-next/sales-settlement/internal/logger"
	"github.com/dujiao-next/sales-settlement/internal/models"
	"github.com/dujiao-next/sales-settlement/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 销售订单录入与状态流转
type OrderService struct {
	repo        repository.SalesOrderRepository
	accountRepo repository.SalesAccountRepository
	exclusions  *ExclusionService
	invalidator Invalidator
	now         func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(
	repo repository.SalesOrderRepository,
	accountRepo repository.SalesAccountRepository,
	exclusions *ExclusionService,
	invalidator Invalidator,
) *OrderService {
	return &OrderService{
		repo:        repo,
		accountRepo: accountRepo,
		exclusions:  exclusions,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// CreateOrderInput 订单录入
type CreateOrderInput struct {
	OrderNo             string
	SalesCode           string
	Amount              decimal.Decimal
	ActualPaymentAmount *decimal.Decimal
	Currency            string
	IsTrial             bool
	CustomerWechat      string
	CreatedAt           *time.Time
}

// Create 录入订单，试用单初始为待配置，其余为待付款
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*models.SalesOrder, error) {
	code := strings.TrimSpace(input.SalesCode)
	if code == "" {
		return nil, ErrInvalidSalesCode
	}
	if input.Amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if input.ActualPaymentAmount != nil && input.ActualPaymentAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = constants.CurrencyUSD
	}
	if !commission.IsSupportedCurrency(currency) {
		return nil, ErrUnsupportedCurrency
	}
	account, err := s.accountRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrMissingAccount
	}

	orderNo := strings.TrimSpace(input.OrderNo)
	if orderNo == "" {
		orderNo = idgen.OrderNo()
	} else {
		existing, err := s.repo.GetByOrderNo(orderNo)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrOrderExists
		}
	}

	now := s.now().UTC()
	createdAt := now
	if input.CreatedAt != nil && !input.CreatedAt.IsZero() {
		createdAt = input.CreatedAt.UTC()
	}
	order := &models.SalesOrder{
		OrderNo:         orderNo,
		SalesCode:       code,
		Amount:          models.NewMoneyFromDecimal(input.Amount),
		PaymentCurrency: currency,
		Status:          commission.InitialOrderStatus(input.IsTrial),
		IsTrial:         input.IsTrial,
		CustomerWechat:  strings.TrimSpace(input.CustomerWechat),
		CreatedAt:       createdAt,
		UpdatedAt:       now,
	}
	if input.ActualPaymentAmount != nil {
		actual := models.NewMoneyFromDecimal(*input.ActualPaymentAmount)
		order.ActualPaymentAmount = &actual
	}
	if err := s.repo.Create(order); err != nil {
		return nil, err
	}
	logger.Infow("sales_order_created", "order_no", order.OrderNo, "sales_code", code, "status", order.Status)
	s.invalidate(ctx, "order_created", code)
	return order, nil
}

// TransitionInput 状态流转输入
type TransitionInput struct {
	OrderID uint
	Status  string
	Reason  string
}

// Transition 推进订单状态，非法流转返回 ErrInvalidTransition 且不做任何修改
func (s *OrderService) Transition(ctx context.Context, input TransitionInput) (*models.SalesOrder, error) {
	if input.OrderID == 0 {
		return nil, ErrNotFound
	}
	target := strings.ToLower(strings.TrimSpace(input.Status))

	var updated *models.SalesOrder
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(input.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrNotFound
		}
		if err := commission.ValidateTransition(order.Status, target); err != nil {
			return err
		}
		now := s.now().UTC()
		updates := map[string]interface{}{"updated_at": now}
		switch target {
		case constants.OrderStatusConfirmedConfig:
			updates["confirmed_at"] = now
			order.ConfirmedAt = &now
		case constants.OrderStatusRejected:
			updates["rejected_at"] = now
			updates["reject_reason"] = strings.TrimSpace(input.Reason)
			order.RejectedAt = &now
			order.RejectReason = strings.TrimSpace(input.Reason)
		}
		ok, err := repo.UpdateStatusFrom(order.ID, order.Status, target, updates)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}
		order.Status = target
		order.UpdatedAt = now
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("sales_order_transitioned", "order_id", updated.ID, "sales_code", updated.SalesCode, "status", updated.Status)
	s.invalidate(ctx, "order_transitioned", updated.SalesCode)
	return updated, nil
}

// Get 获取订单
func (s *OrderService) Get(id uint) (*models.SalesOrder, error) {
	order, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

// OrderListFilter 订单列表筛选
type OrderListFilter struct {
	Policy    string
	SalesCode string
	Status    string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// List 原始订单列表，按口径过滤被排除账号，默认展示口径
func (s *OrderService) List(filter OrderListFilter) ([]models.SalesOrder, int64, error) {
	policy := strings.TrimSpace(filter.Policy)
	if policy == "" {
		policy = constants.PolicyDisplay
	}
	var excluded []string
	if s.exclusions != nil {
		codes, err := s.exclusions.ExcludedCodes(policy)
		if err != nil {
			return nil, 0, err
		}
		excluded = codes
	} else if _, err := commission.ScopesForPolicy(policy); err != nil {
		return nil, 0, err
	}
	return s.repo.List(repository.SalesOrderListFilter{
		SalesCode:    filter.SalesCode,
		Status:       filter.Status,
		ExcludeCodes: excluded,
		CreatedFrom:  filter.From,
		CreatedTo:    filter.To,
		Page:         filter.Page,
		PageSize:     filter.PageSize,
	})
}

func (s *OrderService) invalidate(ctx context.Context, reason, code string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, reason, code)
	}
}
