package ebay

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials indicates an incomplete credential triple.
	ErrInvalidCredentials = errors.New("ebay: app id, cert id, and dev id are required")
	// ErrCodeMissing indicates a callback without an authorization code.
	ErrCodeMissing = errors.New("ebay: authorization code missing")
	// ErrCredentialsMissing signals that no pending credential context exists
	// for the user at callback time.
	ErrCredentialsMissing = errors.New("ebay: no pending credentials for user")
	// ErrAccountNotFound signals an unknown, inactive, or foreign-owned account.
	ErrAccountNotFound = errors.New("ebay: account not found")
)

// UpstreamError carries the status and message of a failed eBay API call.
// Network failures and timeouts are reported with Status 0.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("ebay upstream: %s", e.Message)
	}
	return fmt.Sprintf("ebay upstream: status=%d %s", e.Status, e.Message)
}
