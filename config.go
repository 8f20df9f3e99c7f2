package goAccount

import (
	"errors"
	"time"
)

// Config defines a public type used by goAccount APIs.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	// DocPrefix is the namespace constant prepended to every /_users
	// document id. CouchDB uses "org.couchdb.user".
	DocPrefix string

	Confirmation  ConfirmationConfig
	PasswordReset PasswordResetConfig
	Events        EventsConfig
	Metrics       MetricsConfig
}

/*
====================================
CONFIRMATION CONFIG
====================================
*/

// ConfirmationConfig controls the delayed sign-in retry loop that waits for
// the provisioning worker to confirm a freshly created account.
type ConfirmationConfig struct {
	// RetryDelay is the fixed delay between sign-in attempts.
	RetryDelay time.Duration
	// MaxAttempts caps the retry loop. 0 retries indefinitely, which matches
	// the backend contract: the worker will confirm eventually, there is no
	// protocol-level deadline. Callers wanting a hard timeout should cancel
	// the context instead.
	MaxAttempts int
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig controls the reset-ticket status poll.
type PasswordResetConfig struct {
	// PollDelay is the fixed delay between ticket status checks.
	PollDelay time.Duration
	// MaxAttempts caps the status poll. 0 polls indefinitely.
	MaxAttempts int
}

/*
====================================
EVENTS CONFIG
====================================
*/

// EventsConfig sizes the asynchronous event dispatcher sitting between the
// flows and the Bus collaborator.
type EventsConfig struct {
	BufferSize int
	// DropIfFull drops events instead of blocking the emitting flow when the
	// buffer is full. Dropped events are counted, see Account.EventsDropped.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig enables the in-process counters. When disabled all metric
// operations are no-ops.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		DocPrefix: "org.couchdb.user",
		Confirmation: ConfirmationConfig{
			RetryDelay:  300 * time.Millisecond,
			MaxAttempts: 0,
		},
		PasswordReset: PasswordResetConfig{
			PollDelay:   time.Second,
			MaxAttempts: 0,
		},
		Events: EventsConfig{
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for values that would stall or break the
// flows. It is called by Builder.Build.
func (c Config) Validate() error {
	if c.DocPrefix == "" {
		return errors.New("DocPrefix must be set")
	}
	if c.Confirmation.RetryDelay <= 0 {
		return errors.New("Confirmation.RetryDelay must be positive")
	}
	if c.Confirmation.MaxAttempts < 0 {
		return errors.New("Confirmation.MaxAttempts must not be negative")
	}
	if c.PasswordReset.PollDelay <= 0 {
		return errors.New("PasswordReset.PollDelay must be positive")
	}
	if c.PasswordReset.MaxAttempts < 0 {
		return errors.New("PasswordReset.MaxAttempts must not be negative")
	}
	if c.Events.BufferSize <= 0 {
		return errors.New("Events.BufferSize must be positive")
	}
	return nil
}

// config store keys for the persisted identity
const (
	keyUsername          = "_account.username"
	keyOwnerHash         = "_account.ownerHash"
	keyAnonymousPassword = "_account.anonymousPassword"
	keyResetPasswordID   = "_account.resetPasswordId"
	keyCreatedBy         = "createdBy"
)
