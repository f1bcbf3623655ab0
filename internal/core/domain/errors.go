package domain

import "errors"

// Error kinds. Every error returned by the core wraps exactly one of these,
// so transports can map them with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("service unavailable")
)

// Error carries a client-safe message together with its kind.
type Error struct {
	Kind    error
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Is lets errors.Is match both the kind sentinel and the wrapped cause.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Validation(msg string) error { return newError(ErrValidation, msg) }
func Unauthorized(msg string) error { return newError(ErrUnauthorized, msg) }
func Forbidden(msg string) error  { return newError(ErrForbidden, msg) }
func NotFound(msg string) error   { return newError(ErrNotFound, msg) }
func Conflict(msg string) error   { return newError(ErrConflict, msg) }

// Unavailable wraps a persistence failure. The cause is kept for logging and
// is never rendered to clients.
func Unavailable(msg string, cause error) error {
	return &Error{Kind: ErrUnavailable, Message: msg, cause: cause}
}

// Well-known errors.
var (
	ErrInvalidCredentials  = newError(ErrUnauthorized, "invalid credentials")
	ErrInvalidToken        = newError(ErrUnauthorized, "invalid token")
	ErrMissingToken        = newError(ErrUnauthorized, "authorization token required")
	ErrAdminRequired       = newError(ErrForbidden, "admin access required")
	ErrAccessDenied        = newError(ErrForbidden, "access denied")
	ErrUserNotFound        = newError(ErrNotFound, "user not found")
	ErrUserExists          = newError(ErrConflict, "username already exists")
	ErrResourceNotFound    = newError(ErrNotFound, "resource not found")
	ErrReservationNotFound = newError(ErrNotFound, "reservation not found")
	ErrTimeSlotTaken       = newError(ErrConflict, "time slot already reserved")
	ErrSeedAdminProtected  = newError(ErrValidation, "cannot delete admin user")
	ErrBookingBusy         = newError(ErrUnavailable, "booking is busy, try again")
)

// Message returns the client-facing message of err, or "" when err does not
// carry one.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
