package services

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFields blocks checkout before any network call.
	ErrMissingFields = errors.New("missing required checkout fields")

	// ErrSoldOut is raised at selection re-check time and again at the
	// self-assign fallback; it never triggers a retry loop.
	ErrSoldOut = errors.New("no tickets of this type are available")

	// ErrAssignmentTimeout means the polling window closed with no
	// confirmed ticket; it hands control to the self-assign fallback and
	// is never surfaced to the buyer on its own.
	ErrAssignmentTimeout = errors.New("no confirmed ticket appeared within the polling window")

	// ErrAssignmentFailure is terminal: the fallback found nothing to
	// claim and made no write.
	ErrAssignmentFailure = errors.New("payment received but no ticket could be assigned")

	ErrAlreadyScanned = errors.New("ticket already scanned")
	ErrNotConfirmed   = errors.New("ticket is not confirmed")
	ErrScanInFlight   = errors.New("a scan of this ticket is already in progress")
)

// GatewayError relays a payment-gateway failure with its upstream status.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error (%d): %s", e.StatusCode, e.Message)
}
