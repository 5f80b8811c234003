package model

import "errors"

// ErrNotFound is returned by stores when a dataset, run or job does not exist.
var ErrNotFound = errors.New("not found")
