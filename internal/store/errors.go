package store

import "errors"

// ErrNotFound is returned when an operation targets an item id that does
// not exist.
var ErrNotFound = errors.New("item not found")
