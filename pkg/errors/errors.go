package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so sentinel comparisons survive Clone and Wrap.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e != nil && e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the gate-pass domain.
var (
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden  = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrConflict   = New("CONFLICT", http.StatusConflict, "conflict")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrStorage    = New("STORAGE_ERROR", http.StatusBadGateway, "storage operation failed")
	ErrCacheMiss  = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// Credential failures share one message so the response never
	// distinguishes unknown accounts from bad passwords.
	ErrInvalidCredentials    = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid registration number or password")
	ErrUnauthorized          = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrAccountExpired        = New("ACCOUNT_EXPIRED", http.StatusForbidden, "account validity period has ended")
	ErrDuplicateRegistration = New("DUPLICATE_REGISTRATION", http.StatusConflict, "user with this registration number already exists")
	ErrNoFaceDetected        = New("NO_FACE_DETECTED", http.StatusBadRequest, "no face detected in the image, please upload a clear photo")
	ErrMultipleFaces         = New("MULTIPLE_FACES", http.StatusBadRequest, "more than one face detected in the image")
	ErrInvalidImage          = New("INVALID_IMAGE", http.StatusBadRequest, "image could not be decoded")

	ErrDuplicateActiveRequest = New("DUPLICATE_ACTIVE_REQUEST", http.StatusConflict, "an active gate pass request already exists")
	ErrWindowInvalid          = New("WINDOW_INVALID", http.StatusBadRequest, "return_time must be after leave_time")
	ErrInvalidTransition      = New("INVALID_TRANSITION", http.StatusConflict, "pass status does not allow this transition")
	ErrAlreadyApproved        = New("ALREADY_APPROVED", http.StatusConflict, "pass has already been approved")

	ErrBadSignature = New("BAD_SIGNATURE", http.StatusUnauthorized, "token signature is invalid")
	ErrUnknownPass  = New("UNKNOWN_PASS", http.StatusNotFound, "no pass matches the presented token")
	ErrNotYetActive = New("NOT_YET_ACTIVE", http.StatusForbidden, "pass is not active yet")
	ErrPassExpired  = New("PASS_EXPIRED", http.StatusGone, "pass has expired")
	ErrAlreadyUsed  = New("ALREADY_USED", http.StatusConflict, "pass has already been used")
	ErrFaceMismatch = New("FACE_MISMATCH", http.StatusForbidden, "presented face does not match the registered photo")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
