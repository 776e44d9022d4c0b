package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/baechuer/otp-auth-service/internal/application/auth"
	"github.com/baechuer/otp-auth-service/internal/domain"
)

// ---- fakes ----

type fakeVerifier struct {
	claims auth.Claims
	err    error
	calls  int
	gotTok string
}

func (f *fakeVerifier) VerifySession(token string) (auth.Claims, error) {
	f.calls++
	f.gotTok = token
	return f.claims, f.err
}

type writeErrRecorder struct {
	calls int
	last  error
}

func (w *writeErrRecorder) fn(rw http.ResponseWriter, _ *http.Request, err error) {
	w.calls++
	w.last = err
	rw.WriteHeader(http.StatusUnauthorized)
}

type nextRecorder struct {
	calls    int
	gotUID   string
	gotEmail string
}

func (n *nextRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.calls++
	n.gotUID, _ = UserIDFromContext(r.Context())
	n.gotEmail, _ = EmailFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func runAuth(t *testing.T, v *fakeVerifier, header string) (*writeErrRecorder, *nextRecorder) {
	t.Helper()
	we := &writeErrRecorder{}
	next := &nextRecorder{}

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	Auth(v, we.fn)(next).ServeHTTP(httptest.NewRecorder(), req)
	return we, next
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if !domain.Is(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

// ---- tests ----

func TestAuth_MissingHeader(t *testing.T) {
	v := &fakeVerifier{}
	we, next := runAuth(t, v, "")

	if we.calls != 1 || next.calls != 0 {
		t.Fatalf("writeErr=%d next=%d", we.calls, next.calls)
	}
	assertCode(t, we.last, "token_missing")
	if v.calls != 0 {
		t.Fatalf("verifier must not be called")
	}
}

func TestAuth_MalformedHeader(t *testing.T) {
	for _, h := range []string{"Token abc", "Bearer", "Bearer    ", "abc"} {
		v := &fakeVerifier{}
		we, next := runAuth(t, v, h)
		if next.calls != 0 {
			t.Fatalf("%q: next should not run", h)
		}
		assertCode(t, we.last, "unauthorized")
	}
}

func TestAuth_VerifierErrorIsUniform(t *testing.T) {
	for _, cause := range []error{domain.ErrTokenExpired(), domain.ErrTokenInvalid(), errors.New("boom")} {
		v := &fakeVerifier{err: cause}
		we, next := runAuth(t, v, "Bearer abc")
		if next.calls != 0 {
			t.Fatalf("next should not run")
		}
		assertCode(t, we.last, "unauthorized")
		if !errors.Is(we.last, cause) {
			t.Fatalf("cause should be kept for logs")
		}
	}
}

func TestAuth_HandshakeTokenRejected(t *testing.T) {
	v := &fakeVerifier{claims: auth.Claims{Email: "a@x.com"}}
	we, next := runAuth(t, v, "Bearer handshake")
	if next.calls != 0 {
		t.Fatalf("next should not run")
	}
	assertCode(t, we.last, "unauthorized")
}

func TestAuth_OK_InjectsIdentity(t *testing.T) {
	v := &fakeVerifier{claims: auth.Claims{UserID: "u1", Email: "a@x.com"}}
	we, next := runAuth(t, v, "bearer   tok-123 ")

	if we.calls != 0 {
		t.Fatalf("unexpected error: %v", we.last)
	}
	if v.gotTok != "tok-123" {
		t.Fatalf("token not trimmed: %q", v.gotTok)
	}
	if next.gotUID != "u1" || next.gotEmail != "a@x.com" {
		t.Fatalf("context not populated: %+v", next)
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := UserIDFromContext(req.Context()); ok {
		t.Fatalf("expected no user")
	}
	if _, ok := UserIDFromContext(WithUser(req.Context(), "", "")); ok {
		t.Fatalf("empty id must not count")
	}
}
