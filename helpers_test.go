package goAccount

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

type transportCall struct {
	method string
	path   string
	opts   RequestOptions
}

// mockTransport records every request and answers via a test-provided
// handler.
type mockTransport struct {
	mu      sync.Mutex
	calls   []transportCall
	handler func(method, path string, opts RequestOptions) (*Response, error)
}

func (m *mockTransport) Request(ctx context.Context, method, path string, opts RequestOptions) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, transportCall{method: method, path: path, opts: opts})
	handler := m.handler
	m.mu.Unlock()

	if handler == nil {
		return nil, fmt.Errorf("unexpected request %s %s", method, path)
	}
	return handler(method, path, opts)
}

func (m *mockTransport) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockTransport) lastCall() transportCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return transportCall{}
	}
	return m.calls[len(m.calls)-1]
}

func (m *mockTransport) callsTo(method, path string) []transportCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []transportCall
	for _, c := range m.calls {
		if c.method == method && c.path == path {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockTransport) setHandler(h func(method, path string, opts RequestOptions) (*Response, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

func jsonResponse(t *testing.T, status int, v any) *Response {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &Response{Status: status, Body: body}
}

func errorResponse(status int, name, reason string) *Response {
	body, _ := json.Marshal(map[string]string{"error": name, "reason": reason})
	return &Response{Status: status, Body: body}
}

// memStore is a plain in-memory ConfigStore for flow tests.
type memStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *memStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]string{}
	return nil
}

func (s *memStore) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// eventRecorder is a Bus capturing every triggered event.
type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	name string
	args []string
}

func (r *eventRecorder) On(string, func(args ...string)) {}

func (r *eventRecorder) Trigger(event string, args ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: event, args: args})
}

func (r *eventRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.name)
	}
	return out
}

func (r *eventRecorder) argsFor(event Event) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.name == event.qualified() {
			return e.args
		}
	}
	return nil
}

func (r *eventRecorder) has(event Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.name == event.qualified() {
			return true
		}
	}
	return false
}

// fakeIDs hands out deterministic identifiers.
type fakeIDs struct {
	mu sync.Mutex
	n  int
}

func (f *fakeIDs) UUID(length int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	id := fmt.Sprintf("id%d", f.n)
	for len(id) < length {
		id += "x"
	}
	return id
}

// recordingSync counts Disconnect calls.
type recordingSync struct {
	mu          sync.Mutex
	disconnects int
}

func (s *recordingSync) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
}

func (s *recordingSync) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnects
}

type testAccount struct {
	account   *Account
	transport *mockTransport
	store     *memStore
	bus       *eventRecorder
	sync      *recordingSync
	ids       *fakeIDs
}

func newTestAccount(t *testing.T) *testAccount {
	t.Helper()

	cfg := defaultConfig()
	cfg.Confirmation.RetryDelay = 2 * time.Millisecond
	cfg.PasswordReset.PollDelay = 2 * time.Millisecond

	ta := &testAccount{
		transport: &mockTransport{},
		store:     newMemStore(),
		bus:       &eventRecorder{},
		sync:      &recordingSync{},
		ids:       &fakeIDs{},
	}

	account, err := New().
		WithConfig(cfg).
		WithTransport(ta.transport).
		WithStore(ta.store).
		WithBus(ta.bus).
		WithIDGenerator(ta.ids).
		WithSync(ta.sync).
		Build()
	if err != nil {
		t.Fatalf("build account: %v", err)
	}

	ta.account = account
	t.Cleanup(account.Close)
	return ta
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// flush waits for queued events to be delivered. The dispatcher is a single
// goroutine draining a channel, so an emptied channel plus a settling delay
// is good enough for tests.
func (ta *testAccount) flush() {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(ta.account.events.ch) == 0 {
			time.Sleep(2 * time.Millisecond)
			return
		}
		time.Sleep(time.Millisecond)
	}
}
