package service

import "errors"

// ErrInvalidInput marks request validation failures. These are reported
// before any storage access.
var ErrInvalidInput = errors.New("invalid input")

// ErrBoothNotFound is returned when an adjustment targets a booth number
// that is not on the record
var ErrBoothNotFound = errors.New("booth not found on record")
