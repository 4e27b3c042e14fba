// Package apierr is the closed error-kind taxonomy used at the Admin API
// boundary. The WebSocket/dispatch path never maps errors to HTTP status;
// only this package's HTTPStatus function does.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a closed set of error categories.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyExists
	KindInvalidArgument
	KindPredicateEvaluation
	KindTransportFull
	KindShutdown
)

// Error wraps an underlying error with a Kind classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error wrapping err.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// NotFound, AlreadyExists, InvalidArgument, PredicateEvaluation,
// TransportFull and Shutdown are convenience constructors.
func NotFound(err error) *Error            { return New(KindNotFound, err) }
func AlreadyExists(err error) *Error       { return New(KindAlreadyExists, err) }
func InvalidArgument(err error) *Error     { return New(KindInvalidArgument, err) }
func PredicateEvaluation(err error) *Error { return New(KindPredicateEvaluation, err) }
func TransportFull(err error) *Error       { return New(KindTransportFull, err) }
func Shutdown(err error) *Error            { return New(KindShutdown, err) }

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindAlreadyExists:
		return "already-exists"
	case KindInvalidArgument:
		return "invalid-argument"
	case KindPredicateEvaluation:
		return "predicate-evaluation"
	case KindTransportFull:
		return "transport-full"
	case KindShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// HTTPStatus maps a Kind to the HTTP status used by the Admin API. Used
// only at the Admin API boundary; the WebSocket/dispatch path never calls
// this.
func HTTPStatus(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists:
		return http.StatusConflict
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindPredicateEvaluation:
		return http.StatusBadRequest
	case KindTransportFull:
		return http.StatusServiceUnavailable
	case KindShutdown:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Of wraps err with the given kind, so a raw library error is never
// rethrown to a client unclassified. It returns nil for a nil err.
func Of(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return New(kind, err)
}
