package service

import (
	"errors"
	"fmt"

	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/store"
)

var (
	// ErrValidation marks missing or malformed input
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers absent records and records the caller does not own
	ErrNotFound = errors.New("not found")
	// ErrUnresolvableTenant is returned for members with no affiliation
	ErrUnresolvableTenant = errors.New("tenant cannot be resolved")
	// ErrInvalidCredentials is returned by Authenticate on any mismatch
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPaymentInProgress is returned while another delivery of the same
	// checkout session is being recorded
	ErrPaymentInProgress = errors.New("payment is already being recorded")
	// ErrCheckoutUnavailable is returned when no checkout provider is configured
	ErrCheckoutUnavailable = errors.New("checkout is not configured")
	// ErrPaymentUnverified is returned when the processor does not confirm a
	// paid session matching the reported purchase
	ErrPaymentUnverified = errors.New("payment could not be verified")
)

// LimitReachedError is returned when a tenant is at its member capacity
type LimitReachedError struct {
	Current int
	Limit   int
}

func (e *LimitReachedError) Error() string {
	return fmt.Sprintf("employee limit reached (%d/%d)", e.Current, e.Limit)
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// notFound converts a store miss into ErrNotFound and passes other errors on
func notFound(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
