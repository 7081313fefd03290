package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrQuotaExhausted    = errors.New("daily quota exhausted")
	ErrAlreadySurfaced   = errors.New("match already surfaced today")
	ErrStateConflict     = errors.New("concurrent state conflict")
	ErrSourceUnavailable = errors.New("odds source unavailable")
	ErrLockHeld          = errors.New("lock already held")
)
