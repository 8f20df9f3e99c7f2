package goAccount

import "sync/atomic"

// MetricID names one of the in-process counters.
type MetricID uint16

const (
	MetricSignInSuccess MetricID = iota
	MetricSignInFailure
	MetricSignUpSuccess
	MetricSignUpFailure
	MetricSignOut
	MetricReauthenticated
	MetricConfirmationRetry
	MetricResetRequested
	MetricResetPollRetry
	MetricResetComplete
	MetricFetchSuccess
	MetricFetchFailure
	MetricSuperseded
	MetricUnauthenticated
	MetricDestroy
	metricIDCount
)

// String names the counter the way the otel exporter exports it.
func (id MetricID) String() string {
	switch id {
	case MetricSignInSuccess:
		return "signin_success"
	case MetricSignInFailure:
		return "signin_failure"
	case MetricSignUpSuccess:
		return "signup_success"
	case MetricSignUpFailure:
		return "signup_failure"
	case MetricSignOut:
		return "signout"
	case MetricReauthenticated:
		return "reauthenticated"
	case MetricConfirmationRetry:
		return "confirmation_retry"
	case MetricResetRequested:
		return "password_reset_requested"
	case MetricResetPollRetry:
		return "password_reset_poll_retry"
	case MetricResetComplete:
		return "password_reset_complete"
	case MetricFetchSuccess:
		return "fetch_success"
	case MetricFetchFailure:
		return "fetch_failure"
	case MetricSuperseded:
		return "request_superseded"
	case MetricUnauthenticated:
		return "unauthenticated"
	case MetricDestroy:
		return "account_destroyed"
	default:
		return "unknown"
	}
}

const cacheLineSize = 64

// paddedCounter keeps each counter on its own cache line so hot flows on
// different cores do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the lock-free counter set. A nil or disabled Metrics accepts
// every call as a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters at once. The copy is not atomic across
// counters; individual values are.
func (m *Metrics) Snapshot() map[MetricID]uint64 {
	s := make(map[MetricID]uint64, int(metricIDCount))
	if m == nil || !m.enabled {
		return s
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}

// MetricIDs lists every counter id, for exporters.
func MetricIDs() []MetricID {
	ids := make([]MetricID, 0, int(metricIDCount))
	for id := MetricID(0); id < metricIDCount; id++ {
		ids = append(ids, id)
	}
	return ids
}
