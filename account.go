package goAccount

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Account is the session manager. All exported methods are safe for
// concurrent use; coordination of in-flight requests happens in the request
// registry, identity and document state live in sessionState.
type Account struct {
	config    Config
	transport Transport
	store     ConfigStore
	ids       IDGenerator
	sync      Sync
	bus       Bus

	state    *sessionState
	registry *requestRegistry
	events   *eventDispatcher
	metrics  *Metrics

	now func() time.Time
}

// Username returns the current account's username, or "" when no account is
// present.
func (a *Account) Username() string {
	return a.state.Username()
}

// OwnerHash returns the stable owner identity. It is assigned at build time
// and survives sign-out; only adopting a backend session replaces it.
func (a *Account) OwnerHash() string {
	return a.state.OwnerHash()
}

// State reports the current authentication state.
func (a *Account) State() AuthState {
	return a.state.Auth()
}

// DB returns the name of the account's private database.
func (a *Account) DB() string {
	return "user/" + a.state.OwnerHash()
}

// Doc returns the cached /_users document from the last fetch or write.
func (a *Account) Doc() UserDocument {
	return a.state.Doc()
}

// HasAccount reports whether a username is present, anonymous or not.
func (a *Account) HasAccount() bool {
	return a.state.Username() != ""
}

// HasAnonymousAccount reports whether the current account is an anonymous one,
// i.e. an auto-generated password is persisted for it.
func (a *Account) HasAnonymousAccount(ctx context.Context) bool {
	return a.anonymousPassword(ctx) != ""
}

// On registers a handler for one of the account events. The handler runs on
// the dispatcher goroutine.
func (a *Account) On(event Event, handler func(args ...string)) {
	a.bus.On(event.qualified(), handler)
}

// Start kicks off the initial session-status check in the background and
// resumes a password-reset status poll when a reset ticket survived a restart.
func (a *Account) Start(ctx context.Context) {
	go func() {
		_, _ = a.Authenticate(ctx)
	}()

	if a.configGet(ctx, keyResetPasswordID) != "" {
		go func() {
			_ = a.CheckPasswordResetStatus(ctx)
		}()
	}
}

// Close shuts down the event dispatcher after delivering queued events. The
// Account must not be used afterwards.
func (a *Account) Close() {
	a.events.Close()
}

// MetricsSnapshot copies the current counter values.
func (a *Account) MetricsSnapshot() map[MetricID]uint64 {
	return a.metrics.Snapshot()
}

// EventsDropped reports how many events the dispatcher discarded.
func (a *Account) EventsDropped() uint64 {
	return a.events.Dropped()
}

/*
====================================
INTERNAL HELPERS
====================================
*/

// request performs one backend round trip and classifies the outcome. A
// status >= 400 becomes a ServerError carrying the parsed error payload.
func (a *Account) request(ctx context.Context, method, path string, opts RequestOptions) (*Response, error) {
	resp, err := a.transport.Request(ctx, method, path, opts)
	if err != nil {
		return nil, classifyError(err)
	}
	if resp.Status >= 400 {
		return nil, classifyResponse(resp)
	}
	return resp, nil
}

// requestJSON performs a request and decodes the response body into out.
func (a *Account) requestJSON(ctx context.Context, method, path string, opts RequestOptions, out any) error {
	resp, err := a.request(ctx, method, path, opts)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: decoding %s %s response: %v", ErrTransport, method, path, err)
	}
	return nil
}

func (a *Account) setUsername(ctx context.Context, username string) {
	if a.state.Username() == username {
		return
	}
	a.state.setUsername(username)
	_ = a.store.Set(ctx, keyUsername, username)
}

// setOwner records the owner hash in state and store, and stamps createdBy so
// other components can tell which identity created local data.
func (a *Account) setOwner(ctx context.Context, ownerHash string) {
	a.state.setOwnerHash(ownerHash)
	_ = a.store.Set(ctx, keyOwnerHash, ownerHash)
	_ = a.store.Set(ctx, keyCreatedBy, ownerHash)
}

func (a *Account) anonymousPassword(ctx context.Context) string {
	return a.configGet(ctx, keyAnonymousPassword)
}

func (a *Account) setAnonymousPassword(ctx context.Context, password string) {
	_ = a.store.Set(ctx, keyAnonymousPassword, password)
}

func (a *Account) removeAnonymousPassword(ctx context.Context) {
	_ = a.store.Remove(ctx, keyAnonymousPassword)
}

// configGet reads a store key, treating store failures as unset. The store is
// a cache of the backend's truth, so a read failure must never fail a flow.
func (a *Account) configGet(ctx context.Context, key string) string {
	v, err := a.store.Get(ctx, key)
	if err != nil {
		return ""
	}
	return v
}

type cleanupOptions struct {
	auth      AuthState
	username  string
	ownerHash string
}

// cleanup resets the local account to a pristine state: emits "cleanup" so
// data layers can wipe user data, clears the persisted identity, and installs
// the given (possibly fresh) identity.
func (a *Account) cleanup(ctx context.Context, opts cleanupOptions) {
	a.trigger(EventCleanup)

	a.state.setAuth(opts.auth)
	a.state.setDoc(UserDocument{})
	_ = a.store.Clear(ctx)

	a.state.setUsername("")
	a.setUsername(ctx, opts.username)

	ownerHash := opts.ownerHash
	if ownerHash == "" {
		ownerHash = a.ids.UUID(0)
	}
	a.setOwner(ctx, ownerHash)
}

// cleanupAndSignOut is the local part of signing out: wipe, then announce.
func (a *Account) cleanupAndSignOut(ctx context.Context) {
	a.cleanup(ctx, cleanupOptions{auth: AuthSignedOut})
	a.trigger(EventSignOut)
}

func (a *Account) trigger(event Event, args ...string) {
	a.events.Emit(event, args...)
}

func (a *Account) metricInc(id MetricID) {
	a.metrics.Inc(id)
}

func lowercase(username string) string {
	return strings.ToLower(username)
}
