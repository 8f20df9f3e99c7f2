package goAccount

import "sync"

// sessionState is the single mutable record holding the authentication
// identity and the cached /_users document. It is only written by flow
// response handlers, each of which runs inside a registry slot, but reads can
// come from any goroutine, so access is mutex-guarded.
type sessionState struct {
	mu        sync.Mutex
	username  string
	ownerHash string
	auth      AuthState
	doc       UserDocument
}

func newSessionState() *sessionState {
	return &sessionState{}
}

func (s *sessionState) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

func (s *sessionState) OwnerHash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownerHash
}

func (s *sessionState) Auth() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth
}

func (s *sessionState) Doc() UserDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

func (s *sessionState) setUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
}

func (s *sessionState) setOwnerHash(ownerHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownerHash = ownerHash
}

func (s *sessionState) setAuth(auth AuthState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auth
}

func (s *sessionState) setDoc(doc UserDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
}

// setDocRev updates only the revision of the cached document, as reported by
// a successful /_users write.
func (s *sessionState) setDocRev(rev string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Rev = rev
}
