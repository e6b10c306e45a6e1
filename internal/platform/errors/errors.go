// Package errors classifies boardkit failures so every surface can map them
// to a status code and a user-visible notice.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies failures for notice and HTTP mapping.
type Kind string

const (
	KindUnknown           Kind = "unknown"
	KindLoadFailure       Kind = "load_failure"
	KindMutationFailure   Kind = "mutation_failure"
	KindValidationFailure Kind = "validation_failure"
	KindInvalidInput      Kind = "invalid_input"
	KindUnauthorized      Kind = "unauthorized"
	KindNotFound          Kind = "not_found"
	KindUnavailable       Kind = "unavailable"
)

// Error is a typed failure. Message is user-facing and may come verbatim from
// the backend; Cause is kept for logs.
type Error struct {
	Kind    Kind
	Key     string // localization key
	Message string
	Field   string // offending field for validation failures
	Cause   error
}

// Error renders the message, falling back to the cause and then the kind.
func (e *Error) Error() string {
	if e == nil {
		return string(KindUnknown)
	}
	switch {
	case e.Message != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	case e.Message != "":
		return e.Message
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	default:
		return string(e.Kind)
	}
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// E builds a typed Error.
func E(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// EK builds a typed Error with a localization key.
func EK(kind Kind, key string, message string) error {
	return &Error{Kind: kind, Key: strings.TrimSpace(key), Message: message}
}

// Wrap classifies cause under kind.
func Wrap(kind Kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Cause: cause}
}

// Validation builds a validation failure pointing at one field.
func Validation(field string, message string) error {
	return &Error{
		Kind:    KindValidationFailure,
		Key:     "error.validation." + strings.TrimSpace(field),
		Message: message,
		Field:   strings.TrimSpace(field),
	}
}

// Reclassify keeps the message and key of the first *Error in err's chain but
// reports it under kind. It is used when a transport failure surfaces from a
// load or a mutation.
func Reclassify(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		if appErr.Kind == KindValidationFailure {
			return err
		}
		return &Error{Kind: kind, Key: appErr.Key, Message: appErr.Message, Field: appErr.Field, Cause: err}
	}
	return &Error{Kind: kind, Cause: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if !stderrors.As(err, &appErr) {
		return KindUnknown
	}
	return appErr.Kind
}

// Message returns the first non-empty user-facing message in err's chain.
func Message(err error) string {
	for err != nil {
		var appErr *Error
		if !stderrors.As(err, &appErr) {
			return ""
		}
		if msg := strings.TrimSpace(appErr.Message); msg != "" {
			return msg
		}
		err = appErr.Cause
	}
	return ""
}

// LocalizationKey returns the structured localization key when available.
func LocalizationKey(err error) string {
	var appErr *Error
	if !stderrors.As(err, &appErr) {
		return ""
	}
	return appErr.Key
}

// FieldOf returns the offending field for validation failures.
func FieldOf(err error) string {
	var appErr *Error
	if !stderrors.As(err, &appErr) {
		return ""
	}
	return appErr.Field
}

// HTTPStatus maps an error to an HTTP status code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindInvalidInput, KindValidationFailure:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTPStatus classifies a non-2xx response status.
func FromHTTPStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindInvalidInput
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusServiceUnavailable, status == http.StatusBadGateway, status == http.StatusGatewayTimeout:
		return KindUnavailable
	default:
		return KindUnknown
	}
}
