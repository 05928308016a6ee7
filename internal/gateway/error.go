package gateway

import (
	"fmt"

	ierr "github.com/cloudnet/billing/internal/errors"
)

// Error is a typed payment gateway failure: a decline, an invalid
// token or a network fault. Reason is human-readable and safe to
// surface to the cardholder.
type Error struct {
	Code   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway: %s: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("gateway: %s", e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps a gateway failure so it matches ierr.ErrGateway and
// still exposes the typed *Error via errors.As.
func NewError(code, reason string, cause error) error {
	return ierr.WithError(&Error{Code: code, Reason: reason, Err: cause}).
		WithHint(reason).
		Mark(ierr.ErrGateway)
}

// AsError extracts the typed gateway error, if any.
func AsError(err error) (*Error, bool) {
	var gerr *Error
	if ierr.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}
