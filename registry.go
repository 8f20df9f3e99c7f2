package goAccount

import (
	"context"
	"sync"
)

// opName keys the request registry. The set is closed: every network-facing
// flow runs under exactly one of these slots, and no operation is observable
// under two different names.
type opName string

const (
	opAuthenticate        opName = "authenticate"
	opSignIn              opName = "signIn"
	opSignOut             opName = "signOut"
	opFetch               opName = "fetch"
	opResetPassword       opName = "resetPassword"
	opPasswordResetStatus opName = "passwordResetStatus"
	opUpdateUsersDoc      opName = "updateUsersDoc"
)

type opResult struct {
	username string
	err      error
}

// operation is a cancelable handle on an in-flight request. It settles
// exactly once; all waiters observe the same result.
type operation struct {
	cancel context.CancelFunc
	done   chan struct{}

	once sync.Once
	res  opResult
}

func (op *operation) settle(res opResult) {
	op.once.Do(func() {
		op.res = res
		close(op.done)
	})
}

func (op *operation) pending() bool {
	select {
	case <-op.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the operation settles or ctx is done. A caller's context
// only detaches that caller; it never cancels the shared operation.
func (op *operation) Wait(ctx context.Context) (string, error) {
	select {
	case <-op.done:
		return op.res.username, op.res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// requestRegistry is the named-slot table giving single-flight and
// cancel-and-replace semantics over in-flight operations.
type requestRegistry struct {
	mu  sync.Mutex
	ops map[opName]*operation

	// onSupersede is invoked whenever a pending operation is cancelled in
	// favor of a newer one.
	onSupersede func()
}

func newRequestRegistry() *requestRegistry {
	return &requestRegistry{
		ops: map[opName]*operation{},
	}
}

// pending returns the slot's operation if one is in flight, nil otherwise.
func (r *requestRegistry) pending(name opName) *operation {
	r.mu.Lock()
	defer r.mu.Unlock()

	if op, ok := r.ops[name]; ok && op.pending() {
		return op
	}
	return nil
}

// singleFlight returns the pending operation for name unchanged when one
// exists, so concurrent callers share the same outcome. Otherwise it launches
// start in a new operation and stores it in the slot.
func (r *requestRegistry) singleFlight(name opName, start func(ctx context.Context) (string, error)) *operation {
	r.mu.Lock()
	defer r.mu.Unlock()

	if op, ok := r.ops[name]; ok && op.pending() {
		return op
	}
	return r.launch(name, start)
}

// supersede cancels any pending operation in the slot, then launches start in
// its place. Cancelling an already-settled operation is a no-op; superseding
// always proceeds. The cancelled operation settles with ErrSuperseded.
func (r *requestRegistry) supersede(name opName, start func(ctx context.Context) (string, error)) *operation {
	r.mu.Lock()
	defer r.mu.Unlock()

	if op, ok := r.ops[name]; ok {
		if op.pending() && r.onSupersede != nil {
			r.onSupersede()
		}
		op.cancel()
	}
	return r.launch(name, start)
}

// launch must be called with r.mu held.
func (r *requestRegistry) launch(name opName, start func(ctx context.Context) (string, error)) *operation {
	// The operation owns its own context: its lifetime is bound to the slot,
	// not to any individual caller.
	ctx, cancel := context.WithCancel(context.Background())
	op := &operation{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.ops[name] = op

	go func() {
		defer cancel()
		username, err := start(ctx)
		if ctx.Err() != nil {
			// A superseded request's outcome must never reach its callers.
			username, err = "", ErrSuperseded
		}
		op.settle(opResult{username: username, err: err})
	}()

	return op
}
