// Package errors provides the error kinds surfaced by the travel journal core.
// Every failure that crosses the journal API carries one of these kinds.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind identifies a class of failure.
type Kind string

const (
	// KindPlaceNotFound: the geocoder returned zero candidates.
	KindPlaceNotFound Kind = "PLACE_NOT_FOUND"
	// KindLookupUnavailable: transport or service failure while geocoding.
	KindLookupUnavailable Kind = "LOOKUP_UNAVAILABLE"
	// KindMediaReadFailure: a single uploaded file could not be read or encoded.
	KindMediaReadFailure Kind = "MEDIA_READ_FAILURE"
	// KindUnknownMemoryID: an operation addressed an id absent from the collection.
	KindUnknownMemoryID Kind = "UNKNOWN_MEMORY_ID"
	// KindStorageUnavailable: the durable slot could not be read or written.
	KindStorageUnavailable Kind = "STORAGE_UNAVAILABLE"
	// KindInvalid: caller supplied malformed input.
	KindInvalid Kind = "INVALID_INPUT"
)

// Category determines how retry logic treats an error.
type Category int

const (
	// Recoverable errors may succeed if the same call is repeated later.
	Recoverable Category = iota
	// Irrecoverable errors will give the same answer on every attempt.
	Irrecoverable
)

// String returns a human-readable representation of the category.
func (c Category) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error is a classified journal error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Category reports whether repeating the failed call could help.
func (e *Error) Category() Category {
	switch e.Kind {
	case KindLookupUnavailable, KindStorageUnavailable:
		return Recoverable
	default:
		return Irrecoverable
	}
}

// New creates a new Error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a kind.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRecoverable returns true if the error may be retried.
func IsRecoverable(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Category() == Recoverable
	}
	return false
}
