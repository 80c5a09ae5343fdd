package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/novelverse/internal/database"
	"github.com/redmonkez12/novelverse/internal/logging"
	"github.com/redmonkez12/novelverse/internal/user"
)

func testContext() context.Context {
	return logging.WithContext(context.Background(), logging.NewNopLogger())
}

// testClock is a settable time source
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, email, passwordHash string, verified bool) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return nil, user.ErrDuplicateEmail
	}
	u := &user.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, Verified: verified}
	f.users[email] = u
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[email]
	return ok, nil
}

func (f *fakeUserRepo) byID(id uuid.UUID) *user.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	users    *fakeUserRepo
	sessions map[string]*database.Session
	// deleteErr, when set, fails every Delete
	deleteErr error
}

func newFakeSessionRepo(users *fakeUserRepo) *fakeSessionRepo {
	return &fakeSessionRepo{users: users, sessions: make(map[string]*database.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *database.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[s.Token]; ok {
		return errors.New("duplicate token")
	}
	f.sessions[s.Token] = s
	return nil
}

func (f *fakeSessionRepo) FindUser(_ context.Context, token string, now time.Time) (*SessionUser, error) {
	f.mu.Lock()
	s, ok := f.sessions[token]
	f.mu.Unlock()
	if !ok || !s.ExpiresAt.After(now) {
		return nil, ErrSessionNotFound
	}
	u := f.users.byID(s.UserID)
	if u == nil {
		return nil, ErrSessionNotFound
	}
	return &SessionUser{ID: u.ID, Email: u.Email}, nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for token, s := range f.sessions {
		if !s.ExpiresAt.After(now) {
			delete(f.sessions, token)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeVerificationRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*database.VerificationCode
}

func newFakeVerificationRepo() *fakeVerificationRepo {
	return &fakeVerificationRepo{}
}

func (f *fakeVerificationRepo) Latest(_ context.Context, email, purpose string) (*database.VerificationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *database.VerificationCode
	for _, row := range f.rows {
		if row.Email != email || row.Purpose != purpose {
			continue
		}
		if latest == nil || !row.CreatedAt.Before(latest.CreatedAt) {
			latest = row
		}
	}
	if latest == nil {
		return nil, ErrVerificationCodeNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeVerificationRepo) Create(_ context.Context, code *database.VerificationCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	code.ID = f.nextID
	cp := *code
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeVerificationRepo) IncrementAttempts(_ context.Context, id int64, max int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == id && row.Attempts < max {
			row.Attempts++
		}
	}
	return nil
}

func (f *fakeVerificationRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.ID != id {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeVerificationRepo) DeleteAll(_ context.Context, email, purpose string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.Email != email || row.Purpose != purpose {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeVerificationRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.ExpiresAt.After(now) {
			kept = append(kept, row)
		} else {
			n++
		}
	}
	f.rows = kept
	return n, nil
}

func (f *fakeVerificationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// fakeSender records the last code sent to each address
type fakeSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func newFakeSender() *fakeSender {
	return &fakeSender{codes: make(map[string]string)}
}

func (f *fakeSender) SendVerificationCode(_ context.Context, toEmail, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.codes[toEmail] = code
	return nil
}

func (f *fakeSender) last(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[email]
}

type fakeCaptcha struct {
	ok  bool
	err error

	gotToken string
	gotIP    string
}

func (f *fakeCaptcha) Verify(_ context.Context, token, remoteIP string) (bool, error) {
	f.gotToken, f.gotIP = token, remoteIP
	return f.ok, f.err
}
