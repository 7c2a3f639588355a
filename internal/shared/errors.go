package shared

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Feed errors
	ErrFeedUnavailable = fmt.Errorf("roster feed unavailable")
	ErrEmptyFeed       = fmt.Errorf("roster feed returned empty body")

	// Record store errors
	ErrRateLimited      = fmt.Errorf("rate limited by record store")
	ErrStoreUnavailable = fmt.Errorf("record store unavailable")
	ErrValidation       = fmt.Errorf("record store rejected request")
	ErrRecordNotFound   = fmt.Errorf("record not found")

	// Service and input errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrMailFailed         = fmt.Errorf("mail transport failed")
	ErrMissingArgument    = fmt.Errorf("missing required argument")
	ErrInvalidArgument    = fmt.Errorf("invalid argument")
)

// IsTransient reports whether err belongs to an error class worth retrying:
// rate limiting, store outages, connection resets, and network timeouts.
// Validation and credential errors are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrStoreUnavailable) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
