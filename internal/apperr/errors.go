package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrProtected     = errors.New("protected")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrQuotaExceeded = errors.New("quota exceeded")
)
