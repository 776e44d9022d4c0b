package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/otp-auth-service/internal/domain"
)

/*
Fakes for ports
*/

type fakeUserRepo struct {
	mu sync.Mutex

	byID    map[string]domain.User
	byEmail map[string]domain.User

	// injected errors (if set, method returns error)
	getByIDErr    error
	getByEmailErr error
	createErr     error
	updateErr     error

	created []domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    map[string]domain.User{},
		byEmail: map[string]domain.User{},
	}
}

func (f *fakeUserRepo) put(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByEmailErr != nil {
		return domain.User{}, f.getByEmailErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByIDErr != nil {
		return domain.User{}, f.getByIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	if _, dup := f.byEmail[u.Email]; dup {
		return domain.User{}, domain.ErrUserAlreadyExists()
	}
	u.CreatedAt = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id string, p domain.ProfileUpdate) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return domain.User{}, f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	u.FirstName = p.FirstName
	u.LastName = p.LastName
	u.Phone = p.Phone
	u.DOB = p.DOB
	u.Address = p.Address
	f.byID[id] = u
	f.byEmail[u.Email] = u
	return u, nil
}

type fakeVerifications struct {
	mu sync.Mutex

	rows map[string]domain.PendingVerification

	upsertErr error
	getErr    error
	markErr   error
	deleteErr error

	upserts int
}

func newFakeVerifications() *fakeVerifications {
	return &fakeVerifications{rows: map[string]domain.PendingVerification{}}
}

func (f *fakeVerifications) Upsert(ctx context.Context, email string, code int, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.upsertErr != nil {
		return f.upsertErr
	}
	c := code
	f.rows[email] = domain.PendingVerification{Email: email, Code: &c, Token: token, CreatedAt: time.Now()}
	f.upserts++
	return nil
}

func (f *fakeVerifications) Get(ctx context.Context, email string) (domain.PendingVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return domain.PendingVerification{}, f.getErr
	}
	row, ok := f.rows[email]
	if !ok {
		return domain.PendingVerification{}, domain.ErrVerificationNotFound()
	}
	return row, nil
}

func (f *fakeVerifications) MarkVerified(ctx context.Context, email, expectedToken, newToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.markErr != nil {
		return f.markErr
	}
	row, ok := f.rows[email]
	if !ok || row.Token != expectedToken || row.Code == nil {
		return domain.ErrVerificationNotFound()
	}
	row.Token = newToken
	row.Code = nil
	f.rows[email] = row
	return nil
}

func (f *fakeVerifications) Delete(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, email)
	return nil
}

func (f *fakeVerifications) row(t *testing.T, email string) domain.PendingVerification {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[email]
	if !ok {
		t.Fatalf("expected pending row for %q", email)
	}
	return row
}

// fakeHasher stores "hash:<pw>" so tests can reason about hashes.
type fakeHasher struct {
	hashFn    func(pw string) (string, error)
	compareFn func(hash, pw string) error
}

func (h *fakeHasher) Hash(pw string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(pw)
	}
	return "hash:" + pw, nil
}

func (h *fakeHasher) Compare(hash, pw string) error {
	if h.compareFn != nil {
		return h.compareFn(hash, pw)
	}
	if hash != "hash:"+pw {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokens hands out opaque sequential tokens and remembers their claims.
type fakeTokens struct {
	mu sync.Mutex

	seq     int
	claims  map[string]Claims
	ttls    map[string]time.Duration
	expired map[string]bool

	issueErr error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{
		claims:  map[string]Claims{},
		ttls:    map[string]time.Duration{},
		expired: map[string]bool{},
	}
}

func (f *fakeTokens) Issue(c Claims, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.issueErr != nil {
		return "", f.issueErr
	}
	f.seq++
	tok := fmt.Sprintf("tok-%d", f.seq)
	c.Exp = time.Now().Add(ttl)
	f.claims[tok] = c
	f.ttls[tok] = ttl
	return tok, nil
}

func (f *fakeTokens) Verify(tok string) (Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.claims[tok]
	if !ok {
		return Claims{}, domain.ErrTokenInvalid()
	}
	if f.expired[tok] {
		return Claims{}, domain.ErrTokenExpired()
	}
	return c, nil
}

func (f *fakeTokens) expire(tok string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired[tok] = true
}

func (f *fakeTokens) ttl(t *testing.T, tok string) time.Duration {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.ttls[tok]
	if !ok {
		t.Fatalf("token %q was never issued", tok)
	}
	return d
}

// fakeCodes returns queued codes in order, then repeats the last one.
type fakeCodes struct {
	mu    sync.Mutex
	queue []int
	err   error
}

func (f *fakeCodes) NewCode() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return 0, f.err
	}
	if len(f.queue) == 0 {
		return 123456, nil
	}
	c := f.queue[0]
	if len(f.queue) > 1 {
		f.queue = f.queue[1:]
	}
	return c, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeNotifier) last(t *testing.T) Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatalf("expected a message to be sent")
	}
	return f.sent[len(f.sent)-1]
}

/*
Service under test
*/

type testEnv struct {
	users    *fakeUserRepo
	pending  *fakeVerifications
	hasher   *fakeHasher
	tokens   *fakeTokens
	codes    *fakeCodes
	notifier *fakeNotifier
}

func newSvcForTest(t *testing.T) (*Service, *testEnv) {
	t.Helper()

	env := &testEnv{
		users:    newFakeUserRepo(),
		pending:  newFakeVerifications(),
		hasher:   &fakeHasher{},
		tokens:   newFakeTokens(),
		codes:    &fakeCodes{},
		notifier: &fakeNotifier{},
	}

	svc := NewService(env.users, env.pending, env.hasher, env.tokens, env.codes, env.notifier, Config{
		PendingTTL:  15 * time.Minute,
		VerifiedTTL: time.Hour,
		SessionTTL:  time.Hour,
	})
	if svc == nil {
		t.Fatalf("svc is nil")
	}
	return svc, env
}

// codeFromMessage extracts the OTP from the rendered email body.
func codeFromMessage(t *testing.T, msg Message) string {
	t.Helper()
	const prefix = "Your OTP is "
	if !strings.HasPrefix(msg.Body, prefix) {
		t.Fatalf("unexpected body %q", msg.Body)
	}
	return strings.TrimPrefix(msg.Body, prefix)
}

func mustDOB(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		t.Fatalf("parse dob: %v", err)
	}
	return d
}
