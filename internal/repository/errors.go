package repository

import "errors"

// Ledger error taxonomy. Handlers map these to HTTP responses; dashboards
// treat ErrConflict as retryable and everything else as terminal.
var (
	ErrInvalidAmount       = errors.New("amount must be a positive integer")
	ErrReasonRequired      = errors.New("reason is required")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrConflict            = errors.New("account is busy, retry later")
	ErrAlreadyRefunded     = errors.New("transaction already refunded")
	ErrAlreadyProcessed    = errors.New("already processed")
	ErrStaleBalance        = errors.New("balance no longer covers the payout")
	ErrIntegrityViolation  = errors.New("ledger integrity violation")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNotFound            = errors.New("record not found")
)

// errVersionConflict marks a lost optimistic race on accounts.version.
// It never leaves the package; exhausted retries surface ErrConflict.
var errVersionConflict = errors.New("account version conflict")
