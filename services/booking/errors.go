package booking

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the failures a booking operation can return.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindNotFound           ErrorKind = "not_found"
	KindAuthorization      ErrorKind = "authorization"
	KindInvalidTransition  ErrorKind = "invalid_transition"
	KindSlotUnavailable    ErrorKind = "slot_unavailable"
	KindAlreadyProcessed   ErrorKind = "already_processed"
	KindAlreadyRated       ErrorKind = "already_rated"
	KindExternalDependency ErrorKind = "external_dependency"
)

// BookingError is the typed failure returned by every booking operation.
type BookingError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Code == "" {
		return string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

// Is matches any BookingError of the same kind, so errors.Is(err, ErrSlotUnavailable)
// holds for every slot conflict regardless of its code.
func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

var (
	ErrValidation         = &BookingError{Kind: KindValidation}
	ErrNotFound           = &BookingError{Kind: KindNotFound}
	ErrAuthorization      = &BookingError{Kind: KindAuthorization}
	ErrInvalidTransition  = &BookingError{Kind: KindInvalidTransition}
	ErrSlotUnavailable    = &BookingError{Kind: KindSlotUnavailable}
	ErrAlreadyProcessed   = &BookingError{Kind: KindAlreadyProcessed}
	ErrAlreadyRated       = &BookingError{Kind: KindAlreadyRated}
	ErrExternalDependency = &BookingError{Kind: KindExternalDependency}
)

// KindOf returns the kind of a booking error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

func validationError(code, format string, args ...any) error {
	return &BookingError{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(code, format string, args ...any) error {
	return &BookingError{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func authorizationError(format string, args ...any) error {
	return &BookingError{Kind: KindAuthorization, Code: "forbidden", Message: fmt.Sprintf(format, args...)}
}

func transitionError(format string, args ...any) error {
	return &BookingError{Kind: KindInvalidTransition, Code: "invalidTransition", Message: fmt.Sprintf(format, args...)}
}

func slotUnavailableError(format string, args ...any) error {
	return &BookingError{Kind: KindSlotUnavailable, Code: "slotUnavailable", Message: fmt.Sprintf(format, args...)}
}

func alreadyProcessedError(format string, args ...any) error {
	return &BookingError{Kind: KindAlreadyProcessed, Code: "alreadyProcessed", Message: fmt.Sprintf(format, args...)}
}

func alreadyRatedError(bookingID string) error {
	return &BookingError{Kind: KindAlreadyRated, Code: "alreadyRated", Message: fmt.Sprintf("booking %s already has a rating", bookingID)}
}

func externalError(code string, err error) error {
	return &BookingError{Kind: KindExternalDependency, Code: code, Message: "external collaborator failed", Err: err}
}
