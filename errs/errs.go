// Package errs defines the canonical error taxonomy shared by every venue
// adapter, and the classification machinery that maps venue-reported error
// codes onto it.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the canonical error category a venue failure is classified into.
type Kind uint8

// Canonical error kinds. Exchange is the fallback for anything a venue
// reports that no table recognises.
const (
	Exchange Kind = iota
	Authentication
	PermissionDenied
	InvalidOrder
	InsufficientFunds
	OrderNotFound
	BadRequest
	BadSymbol
	RateLimit
	ExchangeNotAvailable
	OnMaintenance
	NotSupported
	ArgumentsRequired
)

var kindNames = map[Kind]string{
	Exchange:             "exchange error",
	Authentication:       "authentication error",
	PermissionDenied:     "permission denied",
	InvalidOrder:         "invalid order",
	InsufficientFunds:    "insufficient funds",
	OrderNotFound:        "order not found",
	BadRequest:           "bad request",
	BadSymbol:            "bad symbol",
	RateLimit:            "rate limit exceeded",
	ExchangeNotAvailable: "exchange not available",
	OnMaintenance:        "exchange on maintenance",
	NotSupported:         "not supported",
	ArgumentsRequired:    "arguments required",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "exchange error"
}

// Sentinels for errors.Is matching against classified errors. Each venue
// error produced by a Classifier matches exactly one of these.
var (
	ErrExchange             = &Error{Kind: Exchange}
	ErrAuthentication       = &Error{Kind: Authentication}
	ErrPermissionDenied     = &Error{Kind: PermissionDenied}
	ErrInvalidOrder         = &Error{Kind: InvalidOrder}
	ErrInsufficientFunds    = &Error{Kind: InsufficientFunds}
	ErrOrderNotFound        = &Error{Kind: OrderNotFound}
	ErrBadRequest           = &Error{Kind: BadRequest}
	ErrBadSymbol            = &Error{Kind: BadSymbol}
	ErrRateLimit            = &Error{Kind: RateLimit}
	ErrExchangeNotAvailable = &Error{Kind: ExchangeNotAvailable}
	ErrOnMaintenance        = &Error{Kind: OnMaintenance}
	ErrNotSupported         = &Error{Kind: NotSupported}
	ErrArgumentsRequired    = &Error{Kind: ArgumentsRequired}
)

// Error is a classified venue failure. Raw retains the original response body
// for diagnosis; VenueCode the code the venue reported.
type Error struct {
	Kind      Kind
	Venue     string
	VenueCode string
	Message   string
	HTTP      int
	Raw       []byte
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Venue != "" {
		b.WriteString(e.Venue)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.VenueCode != "" {
		fmt.Fprintf(&b, " [code %s]", e.VenueCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is matches on kind so callers can test classified errors against the
// sentinels above.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs a classified error.
func New(kind Kind, venue, code, message string) *Error {
	return &Error{Kind: kind, Venue: venue, VenueCode: code, Message: message}
}

// Newf constructs a classified error with a formatted message.
func Newf(kind Kind, venue, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Venue: venue, VenueCode: code, Message: fmt.Sprintf(format, args...)}
}
