package services

import "errors"

// ErrInvalidRequest marks a report request that names no valid report.
var ErrInvalidRequest = errors.New("invalid report request")
