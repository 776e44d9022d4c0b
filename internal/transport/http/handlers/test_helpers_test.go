package http_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/baechuer/otp-auth-service/internal/application/auth"
	"github.com/baechuer/otp-auth-service/internal/domain"
	"github.com/baechuer/otp-auth-service/internal/infrastructure/security"
	"github.com/baechuer/otp-auth-service/internal/transport/http/middleware"
)

// ---------- in-memory ports ----------

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string
	err     error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]domain.User{}, byEmail: map[string]string{}}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.User{}, m.err
	}
	id, ok := m.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return m.byID[id], nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.User{}, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.byEmail[u.Email]; dup {
		return domain.User{}, domain.ErrUserAlreadyExists()
	}
	u.CreatedAt = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return u, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, p domain.ProfileUpdate) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	u.FirstName, u.LastName, u.Phone, u.DOB, u.Address = p.FirstName, p.LastName, p.Phone, p.DOB, p.Address
	m.byID[id] = u
	return u, nil
}

type memVerifications struct {
	mu   sync.Mutex
	rows map[string]domain.PendingVerification
}

func newMemVerifications() *memVerifications {
	return &memVerifications{rows: map[string]domain.PendingVerification{}}
}

func (m *memVerifications) Upsert(_ context.Context, email string, code int, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := code
	m.rows[email] = domain.PendingVerification{Email: email, Code: &c, Token: token, CreatedAt: time.Now()}
	return nil
}

func (m *memVerifications) Get(_ context.Context, email string) (domain.PendingVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[email]
	if !ok {
		return domain.PendingVerification{}, domain.ErrVerificationNotFound()
	}
	return row, nil
}

func (m *memVerifications) MarkVerified(_ context.Context, email, expected, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[email]
	if !ok || row.Token != expected || row.Code == nil {
		return domain.ErrVerificationNotFound()
	}
	row.Token, row.Code = next, nil
	m.rows[email] = row
	return nil
}

func (m *memVerifications) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, email)
	return nil
}

type fixedCodes struct{ code int }

func (f fixedCodes) NewCode() (int, error) { return f.code, nil }

type captureNotifier struct {
	mu   sync.Mutex
	sent []auth.Message
	err  error
}

func (c *captureNotifier) Send(_ context.Context, msg auth.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

// ---------- fixture ----------

const testCode = 482913

type fixture struct {
	users    *memUsers
	pending  *memVerifications
	notifier *captureNotifier
	signer   *security.JWTSigner
	svc      *auth.Service
	h        *AuthHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:    newMemUsers(),
		pending:  newMemVerifications(),
		notifier: &captureNotifier{},
		signer:   security.NewJWTSigner("handler-test-secret", "otp-auth-test"),
	}
	f.svc = auth.NewService(
		f.users,
		f.pending,
		security.NewBcryptHasher(bcrypt.MinCost),
		f.signer,
		fixedCodes{code: testCode},
		f.notifier,
		auth.Config{},
	)
	f.h = NewAuthHandler(f.svc)
	return f
}

// ---------- request helpers ----------

func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func mustReadJSON(t *testing.T, r io.Reader, out any) {
	t.Helper()

	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode json failed: %v; body=%s", err, string(raw))
	}
}

func serve(t *testing.T, fn http.HandlerFunc, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		rdr = mustJSONBody(t, b)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	fn(rr, req)
	return rr
}

func serveAs(t *testing.T, fn http.HandlerFunc, userID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	return serve(t, func(w http.ResponseWriter, r *http.Request) {
		fn(w, r.WithContext(middleware.WithUser(r.Context(), userID, "")))
	}, method, path, body)
}

type errBody struct {
	Error string            `json:"error"`
	Code  string            `json:"code"`
	Meta  map[string]string `json:"meta"`
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) errBody {
	t.Helper()

	if rr.Code != status {
		t.Fatalf("expected status %d, got %d; body=%s", status, rr.Code, rr.Body.String())
	}
	var eb errBody
	mustReadJSON(t, rr.Body, &eb)
	if eb.Code != code {
		t.Fatalf("expected code %q, got %q (%s)", code, eb.Code, eb.Error)
	}
	return eb
}

var errBoom = errors.New("boom")
