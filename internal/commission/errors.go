package commission

import "errors"

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrAlreadyExcluded     = errors.New("target already excluded")
	ErrInvalidScope        = errors.New("invalid exclusion scope")
	ErrInvalidPolicy       = errors.New("invalid exclusion policy")
	ErrSnapshotRequired    = errors.New("snapshot is nil")
)
