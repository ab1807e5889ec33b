package fault

import (
	"fmt"

	"github.com/go-errors/errors"
)

// Kind classifies a failure. Kinds are comparable sentinels, so callers
// branch with Is(err, fault.ErrNotConnected) instead of matching messages.
type Kind string

func (k Kind) Error() string {
	return string(k)
}

const (
	// ErrCredentialsNotFound is returned by connect when no tls certificate
	// or admin macaroon exists for any supported network.
	ErrCredentialsNotFound Kind = "credentials not found"

	// ErrConnectionFailed is returned by connect when dialing the node or
	// the initial info request fails.
	ErrConnectionFailed Kind = "connection failed"

	// ErrNotConnected is returned by every node operation attempted on a
	// client that is not connected.
	ErrNotConnected Kind = "not connected"

	// ErrNodeRequestFailed wraps errors the remote node returned.
	ErrNodeRequestFailed Kind = "node request failed"

	// ErrPaymentRejected means the payment RPC succeeded but the node
	// reported a payment error.
	ErrPaymentRejected Kind = "payment rejected"

	// ErrInvalidState is returned when a trade transition is requested
	// from the wrong state.
	ErrInvalidState Kind = "invalid state"

	// ErrInvalidAmount is returned for non-positive trade amounts.
	ErrInvalidAmount Kind = "invalid amount"

	// ErrInvalidPrice is returned for a NaN or infinite trade price.
	ErrInvalidPrice Kind = "invalid price"

	ErrFeeInvoiceFailed Kind = "fee invoice failed"
	ErrFeePaymentFailed Kind = "fee payment failed"
)

// Error is a failure of a given kind, optionally caused by another error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error. Kinds of wrapped
// causes are matched through Unwrap.
func (e *Error) Is(target error) bool {
	kind, ok := target.(Kind)
	return ok && kind == e.Kind
}

// New returns an error of the given kind for operation op.
func New(kind Kind, op string) error {
	return &Error{Kind: kind, Op: op}
}

// Wrap returns an error of the given kind for operation op caused by err.
func Wrap(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf is like Wrap but builds the cause from a format string.
func Wrapf(kind Kind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// Is reports whether any error in err's chain matches target.
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// KindOf returns the outermost kind found in err's chain, or the empty
// kind if err carries none.
func KindOf(err error) Kind {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Kind
		case Kind:
			return e
		}

		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}

	return ""
}
