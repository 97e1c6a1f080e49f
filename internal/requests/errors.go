package requests

import "errors"

var (
	ErrNotFound            = errors.New("request not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrMissingQuote        = errors.New("quote required before this transition")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrNoDeliverables      = errors.New("at least one deliverable required before delivery")
)

const (
	ErrorCodeValidation       = "VALIDATION_ERROR"
	ErrorCodeTransition       = "INVALID_TRANSITION"
	ErrorCodePermissionDenied = "PERMISSION_DENIED"
	ErrorCodeStorage          = "STORAGE_ERROR"
)
