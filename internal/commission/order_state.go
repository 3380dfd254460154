package commission

import (
	"fmt"
	"strings"

	"github.com/dujiao-next/sales-settlement/internal/constants"
)

// 订单状态流转：待付款 -> 已确认付款 -> 待配置 -> 已确认配置；
// 非终态均可拒绝。
var orderTransitions = map[string]string{
	constants.OrderStatusPendingPayment:   constants.OrderStatusConfirmedPayment,
	constants.OrderStatusConfirmedPayment: constants.OrderStatusPendingConfig,
	constants.OrderStatusPendingConfig:    constants.OrderStatusConfirmedConfig,
}

// InitialOrderStatus 试用单直接进入待配置
func InitialOrderStatus(isTrial bool) string {
	if isTrial {
		return constants.OrderStatusPendingConfig
	}
	return constants.OrderStatusPendingPayment
}

// IsTerminalStatus 已确认配置与已拒绝为终态
func IsTerminalStatus(status string) bool {
	switch normalizeStatus(status) {
	case constants.OrderStatusConfirmedConfig, constants.OrderStatusRejected:
		return true
	default:
		return false
	}
}

// IsValidStatus 判断状态值是否合法
func IsValidStatus(status string) bool {
	switch normalizeStatus(status) {
	case constants.OrderStatusPendingPayment,
		constants.OrderStatusConfirmedPayment,
		constants.OrderStatusPendingConfig,
		constants.OrderStatusConfirmedConfig,
		constants.OrderStatusRejected:
		return true
	default:
		return false
	}
}

// ValidateTransition 校验状态流转，非法时返回 ErrInvalidTransition
func ValidateTransition(from, to string) error {
	from = normalizeStatus(from)
	to = normalizeStatus(to)
	if !IsValidStatus(from) || !IsValidStatus(to) || IsTerminalStatus(from) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if to == constants.OrderStatusRejected {
		return nil
	}
	if orderTransitions[from] != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}
