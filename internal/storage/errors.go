package storage

import "errors"

// ErrNotFound reports that a row targeted by id does not exist.
var ErrNotFound = errors.New("record not found")
