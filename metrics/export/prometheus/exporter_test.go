package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authcore "github.com/casekit/authcore"
)

type fakeSource struct {
	snapshot authcore.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() authcore.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                      { return f.dropped }

func renderBody(t *testing.T, e *Exporter) string {
	t.Helper()

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape returned %d", rec.Code)
	}
	return rec.Body.String()
}

func TestExporterRendersCounters(t *testing.T) {
	source := &fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters: map[authcore.MetricID]uint64{
				authcore.MetricSignInSuccess: 3,
				authcore.MetricSignInFailure: 2,
				authcore.MetricRateLimitHit:  7,
			},
			Histograms: map[authcore.MetricID][]uint64{},
		},
		dropped: 5,
	}

	body := renderBody(t, NewExporterFromSource(source))

	for _, want := range []string{
		"authcore_sign_in_success_total 3",
		"authcore_sign_in_failure_total 2",
		"authcore_rate_limit_hit_total 7",
		"authcore_audit_dropped_total 5",
		"authcore_sign_up_success_total 0",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in scrape output:\n%s", want, body)
		}
	}
}

func TestExporterRendersHistogram(t *testing.T) {
	source := &fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters: map[authcore.MetricID]uint64{},
			Histograms: map[authcore.MetricID][]uint64{
				authcore.MetricSessionLookupLatency: {1, 2, 0, 0, 0, 0, 0, 1},
			},
		},
	}

	body := renderBody(t, NewExporterFromSource(source))

	for _, want := range []string{
		`authcore_session_lookup_latency_seconds_bucket{le="0.005"} 1`,
		`authcore_session_lookup_latency_seconds_bucket{le="0.01"} 3`,
		`authcore_session_lookup_latency_seconds_bucket{le="+Inf"} 4`,
		"authcore_session_lookup_latency_seconds_count 4",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in scrape output:\n%s", want, body)
		}
	}
}

func TestExporterEndToEndWithProvider(t *testing.T) {
	// The exporter accepts the provider directly; compile-time check that
	// the source interface stays aligned with the core API.
	var _ = NewExporter((*authcore.Provider)(nil))
}
