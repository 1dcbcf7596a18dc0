package internaldefs

import (
	authcore "github.com/casekit/authcore"
)

// CounterDef binds a core counter to its stable exported name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef binds a core histogram to its stable exported name.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter. Order here is render order.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricSignInSuccess, Name: "authcore_sign_in_success_total", Help: "Successful sign-ins."},
	{ID: authcore.MetricSignInFailure, Name: "authcore_sign_in_failure_total", Help: "Rejected sign-in attempts."},
	{ID: authcore.MetricSignInRateLimited, Name: "authcore_sign_in_rate_limited_total", Help: "Rate-limited sign-in attempts."},
	{ID: authcore.MetricSignUpSuccess, Name: "authcore_sign_up_success_total", Help: "Created accounts."},
	{ID: authcore.MetricSignUpDuplicate, Name: "authcore_sign_up_duplicate_total", Help: "Sign-ups rejected for a taken email."},
	{ID: authcore.MetricSignUpRateLimited, Name: "authcore_sign_up_rate_limited_total", Help: "Rate-limited sign-up attempts."},
	{ID: authcore.MetricSignOut, Name: "authcore_sign_out_total", Help: "Single-session sign-outs."},
	{ID: authcore.MetricSignOutAll, Name: "authcore_sign_out_all_total", Help: "Revoke-all operations."},
	{ID: authcore.MetricSessionCreated, Name: "authcore_session_created_total", Help: "Session records written."},
	{ID: authcore.MetricSessionInvalidated, Name: "authcore_session_invalidated_total", Help: "Session records destroyed."},
	{ID: authcore.MetricSessionResolved, Name: "authcore_session_resolved_total", Help: "Token lookups that found a live session."},
	{ID: authcore.MetricSessionMiss, Name: "authcore_session_miss_total", Help: "Token lookups that found nothing."},
	{ID: authcore.MetricPasswordChangeSuccess, Name: "authcore_password_change_success_total", Help: "Completed password changes."},
	{ID: authcore.MetricPasswordChangeInvalidOld, Name: "authcore_password_change_invalid_old_total", Help: "Password changes rejected on the current password."},
	{ID: authcore.MetricPasswordChangeReuseRejected, Name: "authcore_password_change_reuse_rejected_total", Help: "Password changes rejected for reuse."},
	{ID: authcore.MetricPasswordResetRequest, Name: "authcore_password_reset_request_total", Help: "Reset links issued."},
	{ID: authcore.MetricPasswordResetConfirmSuccess, Name: "authcore_password_reset_confirm_success_total", Help: "Completed password resets."},
	{ID: authcore.MetricPasswordResetConfirmFailure, Name: "authcore_password_reset_confirm_failure_total", Help: "Rejected password reset attempts."},
	{ID: authcore.MetricEmailVerificationRequest, Name: "authcore_email_verification_request_total", Help: "Verification codes issued."},
	{ID: authcore.MetricEmailVerificationSuccess, Name: "authcore_email_verification_success_total", Help: "Confirmed email verifications."},
	{ID: authcore.MetricEmailVerificationFailure, Name: "authcore_email_verification_failure_total", Help: "Rejected verification attempts."},
	{ID: authcore.MetricEmailVerificationAttemptsExceeded, Name: "authcore_email_verification_attempts_exceeded_total", Help: "Verification challenges destroyed by the attempt cap."},
	{ID: authcore.MetricRateLimitHit, Name: "authcore_rate_limit_hit_total", Help: "Limiter rejections across all flows."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricSessionLookupLatency, Name: "authcore_session_lookup_latency_seconds", Help: "Session lookup latency histogram."},
}

// HistogramBounds are the upper bounds of the core's fixed buckets, in
// seconds, ending with +Inf.
var HistogramBounds = []float64{
	0.005,
	0.01,
	0.025,
	0.05,
	0.1,
	0.25,
	0.5,
}

// HistogramBoundLabels are the `le` label values matching the core's
// buckets, +Inf included.
var HistogramBoundLabels = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix holds instrument-name-safe forms of the bucket
// bounds for exporters that cannot carry an `le` label.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms use.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
