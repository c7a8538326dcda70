package service

import "errors"

// ErrNotFound is returned when a referenced feed or entry id is absent.
var ErrNotFound = errors.New("not found")
