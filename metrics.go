package authcore

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
type MetricID uint16

const (
	// MetricSignInSuccess counts successful email sign-ins.
	MetricSignInSuccess MetricID = iota
	// MetricSignInFailure counts rejected sign-in attempts.
	MetricSignInFailure
	// MetricSignInRateLimited counts sign-ins refused by the login limiter.
	MetricSignInRateLimited
	// MetricSignUpSuccess counts created accounts.
	MetricSignUpSuccess
	// MetricSignUpDuplicate counts sign-ups rejected for a taken email.
	MetricSignUpDuplicate
	// MetricSignUpRateLimited counts sign-ups refused by the limiter.
	MetricSignUpRateLimited
	// MetricSignOut counts single-session sign-outs.
	MetricSignOut
	// MetricSignOutAll counts revoke-all operations.
	MetricSignOutAll
	// MetricSessionCreated counts session records written.
	MetricSessionCreated
	// MetricSessionInvalidated counts session records destroyed.
	MetricSessionInvalidated
	// MetricSessionResolved counts token lookups that found a live session.
	MetricSessionResolved
	// MetricSessionMiss counts token lookups that found nothing.
	MetricSessionMiss
	// MetricPasswordChangeSuccess counts completed password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidOld counts changes rejected on the
	// current-password check.
	MetricPasswordChangeInvalidOld
	// MetricPasswordChangeReuseRejected counts changes rejected for
	// reusing the current password.
	MetricPasswordChangeReuseRejected
	// MetricPasswordResetRequest counts reset links issued.
	MetricPasswordResetRequest
	// MetricPasswordResetConfirmSuccess counts completed resets.
	MetricPasswordResetConfirmSuccess
	// MetricPasswordResetConfirmFailure counts rejected reset attempts.
	MetricPasswordResetConfirmFailure
	// MetricEmailVerificationRequest counts OTP codes issued.
	MetricEmailVerificationRequest
	// MetricEmailVerificationSuccess counts confirmed verifications.
	MetricEmailVerificationSuccess
	// MetricEmailVerificationFailure counts rejected verification attempts.
	MetricEmailVerificationFailure
	// MetricEmailVerificationAttemptsExceeded counts challenges destroyed
	// after burning their attempt budget.
	MetricEmailVerificationAttemptsExceeded
	// MetricRateLimitHit counts every limiter rejection across all flows.
	MetricRateLimitHit
	// MetricSessionLookupLatency is the histogram bucket for GetSession
	// latency.
	MetricSessionLookupLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters and an optional latency histogram for the
// session lookup path. The write path is allocation-free.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc atomically increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d into the session-lookup latency histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricSessionLookupLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current counter value for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a deep copy of all counters and histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricSessionLookupLatency].buckets[i])
		}
		s.Histograms[MetricSessionLookupLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
