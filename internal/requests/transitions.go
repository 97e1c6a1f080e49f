package requests

import "fmt"

// statusTransitions is the lifecycle graph. draft is initial; delivered
// and cancelled are terminal.
var statusTransitions = map[Status][]Status{
	StatusDraft:           {StatusAnalysis, StatusCancelled},
	StatusAnalysis:        {StatusAwaitingPayment, StatusCancelled},
	StatusAwaitingPayment: {StatusInProduction, StatusCancelled},
	StatusInProduction:    {StatusDelivered, StatusCancelled},
	StatusDelivered:       {},
	StatusCancelled:       {},
}

// AllowedNext returns the statuses reachable from s.
func AllowedNext(s Status) []Status {
	return append([]Status(nil), statusTransitions[s]...)
}

// ValidateTransition checks whether oldStatus -> newStatus is legal for
// the request given its current fields and guard inputs. It is a pure
// function: no I/O, no persistence.
//
// Re-submitting the current status is an accepted no-op. paymentConfirmed
// is an extension point for a payment gateway signal; no caller supplies
// true today, so entering in_production is gated by status ordering alone.
func ValidateTransition(oldStatus, newStatus Status, req Request, deliverablesCount int, paymentConfirmed bool) error {
	if newStatus == oldStatus {
		return nil
	}

	allowed, ok := statusTransitions[oldStatus]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, oldStatus)
	}
	if !newStatus.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}
	if !contains(allowed, newStatus) {
		return fmt.Errorf("%w: %s -> %s (allowed: %v)", ErrInvalidTransition, oldStatus, newStatus, allowed)
	}

	switch newStatus {
	case StatusAwaitingPayment:
		if !req.HasQuote() {
			return fmt.Errorf("%w: final_price and price_justification must be set", ErrMissingQuote)
		}
	case StatusInProduction:
		if !req.HasQuote() {
			return fmt.Errorf("%w: final_price and price_justification must be set", ErrMissingQuote)
		}
		if oldStatus != StatusAwaitingPayment && !paymentConfirmed {
			return fmt.Errorf("%w: request must be awaiting payment or payment explicitly confirmed", ErrPaymentNotConfirmed)
		}
	case StatusDelivered:
		if oldStatus != StatusInProduction {
			return fmt.Errorf("%w: %s -> %s (allowed: %v)", ErrInvalidTransition, oldStatus, newStatus, allowed)
		}
		if deliverablesCount < 1 {
			return fmt.Errorf("%w: request has no deliverables", ErrNoDeliverables)
		}
	}

	return nil
}

func contains(statuses []Status, s Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
