package rebalance

import (
	"errors"

	"rebalancer/types"
)

// Validation errors. None of them are transient: they describe bad input
// and abort the computation before any output is produced.
var (
	ErrInvalidWeights = errors.New("invalid weights")
	ErrInvalidBalance = errors.New("invalid balance")
	ErrMissingPrice   = types.ErrMissingPrice
	// ErrQuantityOverflow reports a share count that does not fit an order.
	ErrQuantityOverflow = errors.New("share quantity overflow")
)
