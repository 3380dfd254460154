package service

import (
	"errors"

	"github.com/dujiao-next/sales-settlement/internal/commission"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrMissingAccount         = errors.New("sales account not found")
	ErrAccountExists          = errors.New("sales account already exists")
	ErrInvalidSalesCode       = errors.New("invalid sales code")
	ErrInvalidTier            = errors.New("invalid sales tier")
	ErrInvalidParent          = errors.New("invalid parent account")
	ErrRateOutOfRange         = errors.New("commission rate out of range")
	ErrDuplicateEffectiveDate = errors.New("rate change already exists for effective date")
	ErrInvalidAmount          = errors.New("invalid order amount")
	ErrInvalidPayoutAmount    = errors.New("invalid payout amount")
	ErrOrderExists            = errors.New("order already exists")
	ErrInvalidTargetType      = errors.New("invalid exclusion target type")
	ErrInvalidTarget          = errors.New("invalid exclusion target")

	ErrUnsupportedCurrency = commission.ErrUnsupportedCurrency
	ErrInvalidTransition   = commission.ErrInvalidTransition
	ErrAlreadyExcluded     = commission.ErrAlreadyExcluded
	ErrInvalidScope        = commission.ErrInvalidScope
	ErrInvalidPolicy       = commission.ErrInvalidPolicy
)
