package types

import "errors"

// ErrProductNotFound is returned by cart stores when no record carries the
// requested id
var ErrProductNotFound = errors.New("product not in cart")
