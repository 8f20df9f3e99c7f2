// Package goAccount provides a client-side account and session manager for
// CouchDB-style backends that provision user accounts asynchronously through
// background workers.
//
// The package tracks whether a user is signed in, coordinates the
// sign-up / sign-in / sign-out / destroy / credential-change flows against the
// backend's /_session and /_users endpoints, and absorbs the eventual
// consistency of worker-driven provisioning: after a sign-up the account is
// unusable until a worker stamps the "confirmed" role onto the user document,
// and a password reset completes only once a worker has consumed the reset
// ticket. Both conditions are waited for with fixed-delay convergence polling.
//
// # Architecture boundaries
//
// goAccount is the public surface. It exposes [Account], [Builder], [Config],
// the [Event] constants, and the collaborator interfaces ([Transport],
// [ConfigStore], [Bus], [IDGenerator], [Sync]). Concrete collaborators live in
// sub-packages: transport/ (net/http CouchDB transport), store/ (in-memory and
// Redis-backed config stores), ident/ (uuid-based id generation), and
// metrics/export/ (metric exporters).
//
// # Request coordination
//
// Every network-facing operation runs inside a named registry slot. Slots are
// either single-flight (concurrent callers share one in-flight request and its
// outcome) or superseding (a new request cancels the previous one for the same
// slot, so a stale response can never mutate session state). Callers of a
// superseded operation observe [ErrSuperseded].
//
// # What this package must NOT do
//
//   - Perform network I/O itself; all round trips go through the Transport
//     collaborator.
//   - Hash, encrypt, or otherwise transform passwords; the backend replaces
//     plaintext passwords with salted hashes server-side.
//   - Retry at the transport level; the only retries are the documented
//     confirmation and reset-status convergence polls.
package goAccount
