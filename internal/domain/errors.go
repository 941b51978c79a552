package domain

import "errors"

// User-facing failure conditions. The messages are surfaced directly to
// callers, so they stay human-readable. "Client not found" deliberately
// covers both a missing client and one owned by someone else, to avoid
// leaking which IDs exist.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrBusinessNotFound   = errors.New("business profile not found - set up your business first")
	ErrClientNotFound     = errors.New("client not found or access denied")
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrInvoiceNumberTaken = errors.New("invoice number already exists")
	ErrAccountNotFound    = errors.New("payment account not found")
)
