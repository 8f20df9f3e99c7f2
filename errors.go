package goAccount

import (
	"errors"
	"fmt"
)

var (
	// ErrUsernameRequired is returned by SignUp when no username was given.
	ErrUsernameRequired = errors.New("username must be set")
	// ErrSignOutRequired is returned by SignUp when a non-anonymous account
	// is already present.
	ErrSignOutRequired = errors.New("you have to sign out first")
	// ErrUnauthenticated is returned when no valid session exists.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnconfirmed marks a retryable failure: the account exists but the
	// provisioning worker has not stamped the "confirmed" role yet.
	ErrUnconfirmed = errors.New("account has not been confirmed yet")
	// ErrNotFound is returned when the backend reports a missing document.
	ErrNotFound = errors.New("not found")
	// ErrRemote carries a failure the provisioning worker recorded in the
	// user document's $error attribute.
	ErrRemote = errors.New("worker reported an error")
	// ErrResetPending means the reset ticket is still readable, i.e. the
	// password-reset worker has not processed it yet.
	ErrResetPending = errors.New("password reset pending")
	// ErrResetMissing is returned by CheckPasswordResetStatus when no reset
	// ticket is persisted.
	ErrResetMissing = errors.New("no pending password reset")
	// ErrTransport marks a backend failure whose payload could not be parsed.
	ErrTransport = errors.New("transport error")
	// ErrSuperseded is observed by callers of an operation that was cancelled
	// because a newer operation took over its registry slot.
	ErrSuperseded = errors.New("request superseded")
	// ErrRetryLimit is returned when a convergence poll exhausts a configured
	// attempt cap. With the default unbounded configuration it never occurs.
	ErrRetryLimit = errors.New("retry limit exceeded")
)

// ServerError is a classified backend failure. Error and Reason mirror the
// CouchDB error payload ({"error": ..., "reason": ...}); Status is the HTTP
// status code when the failure came from a response, 0 otherwise.
//
// ServerError unwraps to the matching sentinel so callers can use errors.Is:
// a payload with error "unconfirmed" matches ErrUnconfirmed, a 401 matches
// ErrUnauthenticated, and so on.
type ServerError struct {
	Status int    `json:"-"`
	Name   string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (e *ServerError) Error() string {
	if e.Reason != "" {
		return e.Name + ": " + e.Reason
	}
	return e.Name
}

// Unwrap maps the backend error name onto the canonical sentinel taxonomy.
func (e *ServerError) Unwrap() error {
	switch e.Name {
	case "unconfirmed":
		return ErrUnconfirmed
	case "unauthenticated":
		return ErrUnauthenticated
	case "not_found":
		return ErrNotFound
	case "missing":
		return ErrResetMissing
	case "pending":
		return ErrResetPending
	case "error":
		return ErrRemote
	}
	if e.Status == 401 {
		return ErrUnauthenticated
	}
	return ErrTransport
}

func remoteError(reason any) *ServerError {
	return &ServerError{Name: "error", Reason: fmt.Sprint(reason)}
}

func unconfirmedError() *ServerError {
	return &ServerError{Name: "unconfirmed", Reason: "account has not been confirmed yet"}
}

func unauthenticatedError() *ServerError {
	return &ServerError{Name: "unauthenticated", Reason: "not logged in"}
}
