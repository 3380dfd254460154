package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/commission"
	"github.com/dujiao-next/sales-settlement/internal/constants"
	"github.com/dujiao-next/sales-settlement/internal/lock"
	"github.com/dujiao-next/sales-settlement/internal/logger"
	"github.com/dujiao-next/sales-settlement/internal/models"
	"github.com/dujiao-next/sales-settlement/internal/repository"

	"gorm.io/gorm"
)

// ExclusionService 展示 / 统计双口径排除名单
type ExclusionService struct {
	repo        repository.ExclusionRepository
	accountRepo repository.SalesAccountRepository
	locker      lock.Locker
	invalidator Invalidator
	now         func() time.Time
}

// NewExclusionService 创建排除名单服务
func NewExclusionService(
	repo repository.ExclusionRepository,
	accountRepo repository.SalesAccountRepository,
	locker lock.Locker,
	invalidator Invalidator,
) *ExclusionService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &ExclusionService{
		repo:        repo,
		accountRepo: accountRepo,
		locker:      locker,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// AddExclusionInput 新增排除输入
type AddExclusionInput struct {
	Target     string
	TargetType string
	Scope      string
	Reason     string
	ExcludedBy string
}

// Add 新增排除条目，同一目标同一作用域已生效时返回 ErrAlreadyExcluded
func (s *ExclusionService) Add(ctx context.Context, input AddExclusionInput) (*models.ExclusionEntry, error) {
	target := strings.TrimSpace(input.Target)
	if target == "" {
		return nil, ErrInvalidTarget
	}
	targetType := strings.ToLower(strings.TrimSpace(input.TargetType))
	if targetType == "" {
		targetType = constants.ExclusionTargetSalesCode
	}
	if targetType != constants.ExclusionTargetSalesCode && targetType != constants.ExclusionTargetWechat {
		return nil, ErrInvalidTargetType
	}
	scope := strings.ToLower(strings.TrimSpace(input.Scope))
	if !commission.IsValidScope(scope) {
		return nil, ErrInvalidScope
	}

	unlock, err := s.locker.Lock(ctx, lock.Key(constants.LockKeyExclusion, target+":"+scope))
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now().UTC()
	entry := &models.ExclusionEntry{
		Target:      target,
		TargetType:  targetType,
		PolicyScope: scope,
		IsActive:    true,
		ActiveKey:   models.ExclusionActiveKey(target, scope),
		Reason:      strings.TrimSpace(input.Reason),
		ExcludedBy:  strings.TrimSpace(input.ExcludedBy),
		ExcludedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.GetActive(target, scope)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyExcluded
		}
		return repo.Create(entry)
	})
	if err != nil && !errors.Is(err, ErrAlreadyExcluded) {
		// 其他实例抢先写入时唯一索引拒绝插入，按重复排除处理
		if existing, getErr := s.repo.GetActive(target, scope); getErr == nil && existing != nil {
			return nil, ErrAlreadyExcluded
		}
	}
	if err != nil {
		return nil, err
	}
	logger.Infow("exclusion_added", "target", target, "target_type", targetType, "scope", scope, "excluded_by", entry.ExcludedBy)
	s.invalidate(ctx, "exclusion_added", target)
	return entry, nil
}

// RestoreInput 恢复排除输入
type RestoreInput struct {
	Target     string
	Scope      string
	RestoredBy string
}

// Restore 将生效条目置为失效；没有生效条目时不做任何事，返回 false
func (s *ExclusionService) Restore(ctx context.Context, input RestoreInput) (bool, error) {
	target := strings.TrimSpace(input.Target)
	if target == "" {
		return false, ErrInvalidTarget
	}
	scope := strings.ToLower(strings.TrimSpace(input.Scope))
	if !commission.IsValidScope(scope) {
		return false, ErrInvalidScope
	}

	unlock, err := s.locker.Lock(ctx, lock.Key(constants.LockKeyExclusion, target+":"+scope))
	if err != nil {
		return false, err
	}
	defer unlock()

	restored := false
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.GetActive(target, scope)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		if err := repo.Deactivate(existing.ID, input.RestoredBy, s.now().UTC()); err != nil {
			return err
		}
		restored = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if restored {
		logger.Infow("exclusion_restored", "target", target, "scope", scope, "restored_by", input.RestoredBy)
		s.invalidate(ctx, "exclusion_restored", target)
	}
	return restored, nil
}

// List 排除审计记录
func (s *ExclusionService) List(filter repository.ExclusionListFilter) ([]models.ExclusionEntry, int64, error) {
	return s.repo.List(filter)
}

// IsExcluded 判断目标在口径下是否被排除
func (s *ExclusionService) IsExcluded(target, policy string) (bool, error) {
	scopes, err := commission.ScopesForPolicy(policy)
	if err != nil {
		return false, err
	}
	rows, err := s.repo.ListActive(scopes)
	if err != nil {
		return false, err
	}
	set := commission.NewExclusionSet(toExclusions(rows))
	return set.IsExcludedUnder(target, policy)
}

// ExcludedCodes 口径下被排除的销售代码，微信名条目解析为对应账号
func (s *ExclusionService) ExcludedCodes(policy string) ([]string, error) {
	scopes, err := commission.ScopesForPolicy(policy)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListActive(scopes)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	targets := make([]string, 0, len(rows))
	for _, row := range rows {
		target := strings.TrimSpace(row.Target)
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		targets = append(targets, target)
	}
	codes := append([]string(nil), targets...)
	if s.accountRepo != nil {
		byWechat, err := s.accountRepo.ListCodesByWechatNames(targets)
		if err != nil {
			return nil, err
		}
		for _, code := range byWechat {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

func (s *ExclusionService) invalidate(ctx context.Context, reason, target string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, reason, target)
	}
}

func toExclusions(rows []models.ExclusionEntry) []commission.Exclusion {
	out := make([]commission.Exclusion, 0, len(rows))
	for _, row := range rows {
		out = append(out, commission.Exclusion{Target: row.Target, Scope: row.PolicyScope})
	}
	return out
}
