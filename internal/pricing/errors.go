package pricing

import "errors"

var ErrInsufficientInput = errors.New("input too small to split")
