package types

import "errors"

var ErrMissingPrice = errors.New("missing price")
