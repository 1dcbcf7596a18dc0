package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	authcore "github.com/casekit/authcore"
)

type fakeResolver struct {
	sessions map[string]*authcore.Session
	err      error
	calls    int
}

func (f *fakeResolver) GetSession(_ context.Context, token string) (*authcore.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if sess, ok := f.sessions[token]; ok {
		return sess, nil
	}
	return nil, authcore.ErrSessionNotFound
}

func newGateHandler(t *testing.T, resolver SessionResolver, opts ...Option) (http.Handler, *bool, *[]*authcore.Session) {
	t.Helper()

	reached := false
	var seen []*authcore.Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		if sess, ok := SessionFromContext(r.Context()); ok {
			seen = append(seen, sess)
		}
		w.WriteHeader(http.StatusOK)
	})

	return Gate(resolver, opts...)(inner), &reached, &seen
}

func TestGatePublicPathsSkipSessionLookup(t *testing.T) {
	resolver := &fakeResolver{}
	handler, _, _ := newGateHandler(t, resolver)

	public := []string{
		"/login",
		"/login/",
		"/signup?plan=pro",
		"/forgot-password",
		"/reset-password?token=abc",
		"/verify-email/confirm",
	}
	for _, target := range public {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("public path %q: expected 200, got %d", target, rec.Code)
		}
	}

	if resolver.calls != 0 {
		t.Fatalf("expected zero session lookups for public paths, got %d", resolver.calls)
	}
}

func TestGatePrefixMatchIsSegmentAware(t *testing.T) {
	handler, reached, _ := newGateHandler(t, &fakeResolver{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/loginx", nil))

	if *reached {
		t.Fatal("sibling path sharing a public prefix reached the handler")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
}

func TestGateRedirectsWithoutCookie(t *testing.T) {
	handler, reached, _ := newGateHandler(t, &fakeResolver{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if *reached {
		t.Fatal("unauthenticated request reached the handler")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/login?callbackUrl=%2Fdashboard" {
		t.Fatalf("unexpected redirect location %q", got)
	}
}

func TestGateRedirectPreservesQuery(t *testing.T) {
	handler, _, _ := newGateHandler(t, &fakeResolver{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cases/42?tab=notes", nil))

	want := "/login?callbackUrl=" + "%2Fcases%2F42%3Ftab%3Dnotes"
	if got := rec.Header().Get("Location"); got != want {
		t.Fatalf("redirect location = %q, want %q", got, want)
	}
}

func TestGateAllowsLiveSession(t *testing.T) {
	sess := &authcore.Session{UserID: "user-1", Email: "a@example.com"}
	resolver := &fakeResolver{sessions: map[string]*authcore.Session{"tok-1": sess}}
	handler, reached, seen := newGateHandler(t, resolver)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "tok-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !*reached {
		t.Fatal("authenticated request did not reach the handler")
	}
	if len(*seen) != 1 || (*seen)[0].UserID != "user-1" {
		t.Fatalf("handler did not receive the session: %+v", *seen)
	}
}

func TestGateRejectsUnknownToken(t *testing.T) {
	resolver := &fakeResolver{sessions: map[string]*authcore.Session{}}
	handler, reached, _ := newGateHandler(t, resolver)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "stale"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if *reached {
		t.Fatal("request with unknown token reached the handler")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
}

func TestGateFailsClosedOnBackendError(t *testing.T) {
	resolver := &fakeResolver{err: authcore.ErrSessionUnavailable}
	handler, reached, _ := newGateHandler(t, resolver)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "tok-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if *reached {
		t.Fatal("request reached the handler while the session backend was down")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
}

func TestGateOptions(t *testing.T) {
	resolver := &fakeResolver{sessions: map[string]*authcore.Session{"tok-1": {UserID: "u"}}}
	handler, reached, _ := newGateHandler(t, resolver,
		WithCookieName("pcm_session"),
		WithLoginPath("/auth/login"),
		WithPublicPrefixes([]string{"/health"}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("custom public prefix: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatal("default public prefix should not apply after override")
	}
	if got := rec.Header().Get("Location"); got != "/auth/login?callbackUrl=%2Flogin" {
		t.Fatalf("unexpected redirect location %q", got)
	}

	*reached = false
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "pcm_session", Value: "tok-1"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !*reached {
		t.Fatal("custom cookie name was not honored")
	}
}
