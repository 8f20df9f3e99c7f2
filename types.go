package goAccount

import (
	"context"
	"time"
)

// AuthState is the tri-state authentication flag. A fresh Account starts in
// AuthUnknown until the first session-status check settles it.
type AuthState uint8

const (
	// AuthUnknown means no session-status check has completed yet.
	AuthUnknown AuthState = iota
	// AuthSignedIn means a backend session exists for the current username.
	AuthSignedIn
	// AuthSignedOut means there is no valid backend session.
	AuthSignedOut
)

func (s AuthState) String() string {
	switch s {
	case AuthSignedIn:
		return "signed-in"
	case AuthSignedOut:
		return "signed-out"
	default:
		return "unknown"
	}
}

// RequestOptions carries the per-request parameters handed to the Transport.
// Body is JSON-encoded when non-nil. Username/Password, when set, must be sent
// as HTTP Basic credentials (used for reset-ticket status checks).
type RequestOptions struct {
	Body     any
	Username string
	Password string
}

// Response is the raw backend response handed back by the Transport.
type Response struct {
	Status int
	Body   []byte
}

// Transport performs the actual network round trips. Implementations must
// honor context cancellation by aborting the underlying call: the request
// registry relies on this to guarantee that a superseded request can never
// deliver a late response.
//
// Transport errors are reserved for failures below the HTTP layer; backend
// error payloads (status >= 400) must be returned as a Response so the
// classifier can parse them.
type Transport interface {
	Request(ctx context.Context, method, path string, opts RequestOptions) (*Response, error)
}

// ConfigStore persists the account identity between processes: username,
// ownerHash, the anonymous password, the reset ticket id, and the createdBy
// marker. Get returns "" without error for unset keys.
type ConfigStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Bus is the process-wide event bus collaborator. The Account namespaces
// every event name with the "account:" prefix before it reaches the bus.
type Bus interface {
	On(event string, handler func(args ...string))
	Trigger(event string, args ...string)
}

// IDGenerator produces unique identifiers: owner hashes, anonymous passwords,
// and reset ticket suffixes. A length of 0 requests the implementation's
// default length.
type IDGenerator interface {
	UUID(length int) string
}

// Sync is the replication collaborator. Disconnect is called before any
// request that mutates credentials or deletes the account, so local
// replication cannot interleave with a session transition.
type Sync interface {
	Disconnect()
}

// SignOutOptions controls SignOut. Silent suppresses the "signout" event for
// the local-cleanup-only path (no account present); it is used internally by
// SignIn to flush the previous identity without notifying listeners twice.
type SignOutOptions struct {
	Silent bool
}

// signInOptions distinguishes the event behavior of the sign-in paths:
// silent sign-ins (confirmation polls, staged credential changes) emit no
// events, re-authentication of the current user emits "reauthenticated"
// instead of "signin".
type signInOptions struct {
	silent          bool
	reauthenticated bool
}

// UserDocument mirrors a document in the backend's /_users database. The
// password field carries plaintext only on writes; the server replaces it
// with salt and password_sha, which are stripped again before any update
// that changes the password.
type UserDocument struct {
	ID          string     `json:"_id"`
	Rev         string     `json:"_rev,omitempty"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Roles       []string   `json:"roles"`
	Password    string     `json:"password,omitempty"`
	Salt        string     `json:"salt,omitempty"`
	PasswordSHA string     `json:"password_sha,omitempty"`
	OwnerHash   string     `json:"ownerHash,omitempty"`
	Database    string     `json:"database,omitempty"`
	CreatedAt   time.Time  `json:"createdAt,omitzero"`
	UpdatedAt   time.Time  `json:"updatedAt,omitzero"`
	SignedUpAt  *time.Time `json:"signedUpAt,omitempty"`

	// NewUsername is the pending-rename marker picked up by the username
	// change worker.
	NewUsername string `json:"$newUsername,omitempty"`
	// WorkerError is the failure payload a worker recorded on the document.
	WorkerError any `json:"$error,omitempty"`
	// Deleted is the soft-delete tombstone.
	Deleted bool `json:"_deleted,omitempty"`
}

// HasRole reports whether the document's roles contain role.
func (d UserDocument) HasRole(role string) bool {
	for _, r := range d.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// sessionResponse is the body of POST /_session.
type sessionResponse struct {
	OK    bool     `json:"ok"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// sessionStatusResponse is the body of GET /_session.
type sessionStatusResponse struct {
	UserCtx struct {
		Name  string   `json:"name"`
		Roles []string `json:"roles"`
	} `json:"userCtx"`
}

// sessionRequest is the body of POST /_session.
type sessionRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// writeResponse is the body of a successful PUT /_users/<id>.
type writeResponse struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

const (
	roleConfirmed = "confirmed"
	roleError     = "error"
)
