package oioproxy

import "fmt"

// Code classes, following the taxonomy in spec §7: codes below 100 are
// transport-level and retriable across candidate backends, codes at or
// above 100 are application-level and terminal.
const (
	CodeTransport            = 1
	CodeOK                   = 200
	CodeBadRequest           = 400
	CodeNoServiceLinked      = 404
	CodeContentNotFound      = 420
	CodeNamespaceNotManaged  = 418
	CodeTypeNotManaged       = 460
	CodeContainerExists      = 476
	CodePolicyNotSatisfiable = 481
	CodeContainerNotFound    = 530
	CodeInternalError        = 500
	CodeNotImplemented       = 501
)

// Error is a domain error carrying the envelope status code and message
// that the reply builder surfaces to clients. It is the common currency
// between the resolver, the pool, and the handlers.
type Error struct {
	code    int
	message string
	wrapped error
}

func NewError(code int, message string) *Error {
	return &Error{code: code, message: message}
}

func (e *Error) Error() string { return e.message }

func (e *Error) Unwrap() error { return e.wrapped }

// Code returns the envelope status code for this error.
func (e *Error) Code() int { return e.code }

// Transport reports whether this is a transport-class error (code < 100),
// meaning the resolve-and-do loop should retry the next candidate
// instead of surfacing it.
func (e *Error) Transport() bool { return e.code < 100 }

// Sentinel constructors for the taxonomy in spec §7.

func ErrContainerNotFound(reference string) *Error {
	return NewError(CodeContainerNotFound, fmt.Sprintf("Container not found: %s", reference))
}

func ErrContentNotFound(path string) *Error {
	return NewError(CodeContentNotFound, fmt.Sprintf("Content not found: %s", path))
}

func ErrContainerExists(reference string) *Error {
	return NewError(CodeContainerExists, fmt.Sprintf("Container already exists: %s", reference))
}

func ErrNoServiceLinked(reference, svcType string) *Error {
	return NewError(CodeNoServiceLinked, fmt.Sprintf("No service linked: %s/%s", reference, svcType))
}

func ErrPolicyNotSatisfiable(reason string) *Error {
	return NewError(CodePolicyNotSatisfiable, fmt.Sprintf("Policy not satisfiable: %s", reason))
}

func ErrNamespaceNotManaged(ns string) *Error {
	return NewError(CodeNamespaceNotManaged, fmt.Sprintf("Namespace not managed: %s", ns))
}

func ErrTypeNotManaged(svcType string) *Error {
	return NewError(CodeTypeNotManaged, fmt.Sprintf("Type not managed: %s", svcType))
}

func ErrBadRequest(field string) *Error {
	return NewError(CodeBadRequest, fmt.Sprintf("Missing %s", field))
}

func ErrInternal(err error) *Error {
	return &Error{code: CodeInternalError, message: "Internal error: " + err.Error(), wrapped: err}
}

func ErrNotImplemented(action string) *Error {
	return NewError(CodeNotImplemented, fmt.Sprintf("Not implemented: %s", action))
}

// TransportError wraps a network/RPC failure with the failing tier or
// backend address as context, per spec §4.2 ("surfaced with the tier
// that failed as a prefix in the message").
func TransportError(stage string, err error) *Error {
	return &Error{code: CodeTransport, message: fmt.Sprintf("%s: %s", stage, err.Error()), wrapped: err}
}
