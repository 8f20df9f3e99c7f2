package goAccount

import "sync"

// Event names emitted by the Account. On the Bus every name is qualified with
// the "account:" prefix.
type Event string

const (
	EventSignUp             Event = "signup"
	EventSignUpAnonymous    Event = "signup:anonymous"
	EventSignIn             Event = "signin"
	EventSignInAnonymous    Event = "signin:anonymous"
	EventReauthenticated    Event = "reauthenticated"
	EventSignOut            Event = "signout"
	EventCleanup            Event = "cleanup"
	EventPasswordReset      Event = "passwordreset"
	EventPasswordResetError Event = "password_reset:error"
	EventUnauthenticated    Event = "error:unauthenticated"
)

const eventPrefix = "account:"

func (e Event) qualified() string {
	return eventPrefix + string(e)
}

// memBus is the in-process Bus used when the builder was given none.
type memBus struct {
	mu       sync.RWMutex
	handlers map[string][]func(args ...string)
}

func newMemBus() *memBus {
	return &memBus{handlers: map[string][]func(args ...string){}}
}

func (b *memBus) On(event string, handler func(args ...string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *memBus) Trigger(event string, args ...string) {
	b.mu.RLock()
	handlers := b.handlers[event]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(args...)
	}
}
