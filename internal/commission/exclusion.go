package commission

import (
	"fmt"
	"strings"

	"github.com/dujiao-next/sales-settlement/internal/constants"
)

// ScopesForPolicy 口径对应的排除作用域：
// 展示口径只看 display；统计口径为 display 或 permanent。
func ScopesForPolicy(policy string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case constants.PolicyDisplay:
		return []string{constants.ExclusionScopeDisplay}, nil
	case constants.PolicyStatistics:
		return []string{constants.ExclusionScopeDisplay, constants.ExclusionScopePermanent}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidPolicy, policy)
	}
}

// IsValidScope 判断排除作用域是否合法
func IsValidScope(scope string) bool {
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case constants.ExclusionScopeDisplay, constants.ExclusionScopePermanent:
		return true
	default:
		return false
	}
}

// ExclusionSet 内存中的排除名单
type ExclusionSet struct {
	active map[string]map[string]struct{} // scope -> target
}

// NewExclusionSet 由生效条目构建名单，重复条目合并
func NewExclusionSet(entries []Exclusion) *ExclusionSet {
	set := &ExclusionSet{active: make(map[string]map[string]struct{})}
	for _, entry := range entries {
		_ = set.Add(entry)
	}
	return set
}

// Add 添加排除条目，同一作用域重复添加返回 ErrAlreadyExcluded
func (s *ExclusionSet) Add(entry Exclusion) error {
	target := strings.TrimSpace(entry.Target)
	scope := strings.ToLower(strings.TrimSpace(entry.Scope))
	if !IsValidScope(scope) {
		return fmt.Errorf("%w: %s", ErrInvalidScope, entry.Scope)
	}
	if target == "" {
		return nil
	}
	targets, ok := s.active[scope]
	if !ok {
		targets = make(map[string]struct{})
		s.active[scope] = targets
	}
	if _, exists := targets[target]; exists {
		return fmt.Errorf("%w: %s (%s)", ErrAlreadyExcluded, target, scope)
	}
	targets[target] = struct{}{}
	return nil
}

// Restore 恢复目标，幂等；返回是否确有条目被恢复
func (s *ExclusionSet) Restore(target, scope string) bool {
	targets, ok := s.active[strings.ToLower(strings.TrimSpace(scope))]
	if !ok {
		return false
	}
	target = strings.TrimSpace(target)
	if _, exists := targets[target]; !exists {
		return false
	}
	delete(targets, target)
	return true
}

// IsExcluded 判断目标在指定作用域是否被排除
func (s *ExclusionSet) IsExcluded(target, scope string) bool {
	if s == nil {
		return false
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return false
	}
	_, ok := s.active[strings.ToLower(strings.TrimSpace(scope))][target]
	return ok
}

// IsExcludedUnder 判断目标在口径下是否被排除
func (s *ExclusionSet) IsExcludedUnder(target, policy string) (bool, error) {
	scopes, err := ScopesForPolicy(policy)
	if err != nil {
		return false, err
	}
	return s.anyScope(scopes, target), nil
}

// IsAccountExcluded 按销售代码或微信名匹配
func (s *ExclusionSet) IsAccountExcluded(code string, account *Account, scopes []string) bool {
	if s.anyScope(scopes, code) {
		return true
	}
	if account != nil && s.anyScope(scopes, account.WechatName) {
		return true
	}
	return false
}

func (s *ExclusionSet) anyScope(scopes []string, target string) bool {
	for _, scope := range scopes {
		if s.IsExcluded(target, scope) {
			return true
		}
	}
	return false
}
