package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrEmailTaken      = errors.New("email already exists")
	ErrQuotaExceeded   = errors.New("daily limit reached")
	ErrUnsupportedPlan = errors.New("unsupported plan")
	ErrProviderFailure = errors.New("provider failure")
)
