package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/novelverse/internal/auth"
	"github.com/redmonkez12/novelverse/internal/blob"
	"github.com/redmonkez12/novelverse/internal/config"
	"github.com/redmonkez12/novelverse/internal/database"
	"github.com/redmonkez12/novelverse/internal/httputil"
	"github.com/redmonkez12/novelverse/internal/logging"
	"github.com/redmonkez12/novelverse/internal/novel"
	"github.com/redmonkez12/novelverse/internal/upload"
	"github.com/redmonkez12/novelverse/internal/user"
)

// memoryBackend implements every repository the API needs on top of maps
type memoryBackend struct {
	mu       sync.Mutex
	users    map[string]*user.User
	sessions map[string]*database.Session
	codes    []*database.VerificationCode
	nextCode int64
	novels   map[uuid.UUID]*novel.Novel
	likes    map[uuid.UUID]map[uuid.UUID]bool
	clock    time.Time
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		users:    make(map[string]*user.User),
		sessions: make(map[string]*database.Session),
		novels:   make(map[uuid.UUID]*novel.Novel),
		likes:    make(map[uuid.UUID]map[uuid.UUID]bool),
		clock:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memoryBackend) emailOf(id uuid.UUID) string {
	for _, u := range m.users {
		if u.ID == id {
			return u.Email
		}
	}
	return ""
}

type userRepo struct{ *memoryBackend }

func (r userRepo) Create(_ context.Context, email, passwordHash string, verified bool) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[email]; ok {
		return nil, user.ErrDuplicateEmail
	}
	u := &user.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, Verified: verified}
	r.users[email] = u
	return u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (r userRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[email]
	return ok, nil
}

type sessionRepo struct{ *memoryBackend }

func (r sessionRepo) Create(_ context.Context, s *database.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Token] = s
	return nil
}

func (r sessionRepo) FindUser(_ context.Context, token string, now time.Time) (*auth.SessionUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok || !s.ExpiresAt.After(now) {
		return nil, auth.ErrSessionNotFound
	}
	return &auth.SessionUser{ID: s.UserID, Email: r.emailOf(s.UserID)}, nil
}

func (r sessionRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r sessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for token, s := range r.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}

type codeRepo struct{ *memoryBackend }

func (r codeRepo) Latest(_ context.Context, email, purpose string) (*database.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.codes) - 1; i >= 0; i-- {
		if c := r.codes[i]; c.Email == email && c.Purpose == purpose {
			cp := *c
			return &cp, nil
		}
	}
	return nil, auth.ErrVerificationCodeNotFound
}

func (r codeRepo) Create(_ context.Context, c *database.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextCode++
	c.ID = r.nextCode
	cp := *c
	r.codes = append(r.codes, &cp)
	return nil
}

func (r codeRepo) IncrementAttempts(_ context.Context, id int64, max int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id && c.Attempts < max {
			c.Attempts++
		}
	}
	return nil
}

func (r codeRepo) Delete(_ context.Context, id int64) error {
	return r.filter(func(c *database.VerificationCode) bool { return c.ID == id })
}

func (r codeRepo) DeleteAll(_ context.Context, email, purpose string) error {
	return r.filter(func(c *database.VerificationCode) bool { return c.Email == email && c.Purpose == purpose })
}

func (r codeRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	before := len(r.codes)
	_ = r.filter(func(c *database.VerificationCode) bool { return now.After(c.ExpiresAt) })
	return int64(before - len(r.codes)), nil
}

func (r codeRepo) filter(drop func(*database.VerificationCode) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.codes[:0]
	for _, c := range r.codes {
		if !drop(c) {
			kept = append(kept, c)
		}
	}
	r.codes = kept
	return nil
}

type novelStore struct{ *memoryBackend }

func (s novelStore) snapshot(n *novel.Novel) *novel.Novel {
	cp := *n
	cp.Likes = len(s.likes[n.ID])
	return &cp
}

func (s novelStore) List(_ context.Context) ([]*novel.Novel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*novel.Novel, 0, len(s.novels))
	for _, n := range s.novels {
		out = append(out, s.snapshot(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s novelStore) Get(_ context.Context, id uuid.UUID) (*novel.Novel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.novels[id]
	if !ok {
		return nil, novel.ErrNotFound
	}
	return s.snapshot(n), nil
}

func (s novelStore) Create(_ context.Context, userID uuid.UUID, in *novel.CreateInput) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(time.Second)
	n := &novel.Novel{
		ID:          uuid.New(),
		Title:       in.Title,
		Synopsis:    in.Synopsis,
		Tags:        in.Tags,
		CoverURL:    in.CoverURL,
		Chapters:    in.Chapters,
		CreatedAt:   s.clock,
		UpdatedAt:   s.clock,
		AuthorEmail: s.emailOf(userID),
	}
	s.novels[n.ID] = n
	return n.ID, nil
}

func (s novelStore) ToggleLike(_ context.Context, novelID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.novels[novelID]; !ok {
		return false, novel.ErrNotFound
	}
	if s.likes[novelID] == nil {
		s.likes[novelID] = make(map[uuid.UUID]bool)
	}
	if s.likes[novelID][userID] {
		delete(s.likes[novelID], userID)
		return false, nil
	}
	s.likes[novelID][userID] = true
	return true, nil
}

type capturingSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *capturingSender) SendVerificationCode(_ context.Context, toEmail, code string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[toEmail] = code
	return nil
}

func (c *capturingSender) last(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email]
}

type testAPI struct {
	server  *httptest.Server
	client  *http.Client
	sender  *capturingSender
	uploads string
}

func newTestAPI(t *testing.T, policy config.VerificationPolicy) *testAPI {
	t.Helper()

	backend := newMemoryBackend()
	sender := &capturingSender{codes: make(map[string]string)}
	uploadsDir := t.TempDir()

	cfg := &config.Config{
		Server: config.ServerConfig{Env: "prod"},
		Auth:   config.AuthConfig{Verification: policy},
	}

	var verifier *auth.Verifier
	if policy == config.VerificationCode {
		verifier = auth.NewVerifier(codeRepo{backend}, sender)
	}

	sessions := auth.NewSessionManager(sessionRepo{backend}, false)
	authService := auth.NewService(userRepo{backend}, verifier, nil, policy)

	router := NewRouter(cfg, Handlers{
		Auth:           auth.NewHandler(authService, sessions, nil),
		AuthMiddleware: auth.NewMiddleware(sessions),
		Novels:         novel.NewHandler(novel.NewService(novelStore{backend})),
		Uploads:        upload.NewHandler(upload.NewService(blob.NewLocalStore(uploadsDir, "http://covers.test/uploads"))),
		UploadsDir:     uploadsDir,
	}, logging.NewNopLogger())

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testAPI{
		server:  srv,
		client:  &http.Client{Jar: jar},
		sender:  sender,
		uploads: uploadsDir,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type meBody struct {
	User *struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
	} `json:"user"`
}

type novelBody struct {
	Novel struct {
		Title       string `json:"title"`
		AuthorEmail string `json:"author_email"`
		Likes       int    `json:"likes"`
	} `json:"novel"`
}

func TestAPI_EndToEnd(t *testing.T) {
	api := newTestAPI(t, config.VerificationNone)

	var me meBody
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/auth/me", nil, &me))
	assert.Nil(t, me.User)

	var ok map[string]bool
	status := api.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "A@B.com", "password": "secret1"}, &ok)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, ok["ok"])

	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/auth/me", nil, &me))
	require.NotNil(t, me.User)
	assert.Equal(t, "a@b.com", me.User.Email)

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	status = api.do(t, http.MethodPost, "/api/novels", map[string]any{
		"title":    "T",
		"chapters": []map[string]string{{"title": "", "body": "hi"}},
	}, &created)
	require.Equal(t, http.StatusOK, status)

	path := "/api/novels/" + created.ID.String()
	var got novelBody
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, path, nil, &got))
	assert.Equal(t, "T", got.Novel.Title)
	assert.Equal(t, "a@b.com", got.Novel.AuthorEmail)
	assert.Equal(t, 0, got.Novel.Likes)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, path+"/like", nil, nil))
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, path, nil, &got))
	assert.Equal(t, 1, got.Novel.Likes)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, path+"/like", nil, nil))
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, path, nil, &got))
	assert.Equal(t, 0, got.Novel.Likes)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/auth/logout", nil, nil))
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/auth/me", nil, &me))
	assert.Nil(t, me.User)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodPost, path+"/like", nil, nil))
}

func TestAPI_CodeRegistration(t *testing.T) {
	api := newTestAPI(t, config.VerificationCode)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/auth/request-code", map[string]string{"email": "reader@example.com"}, nil))
	code := api.sender.last("reader@example.com")
	require.Len(t, code, 6)

	body := map[string]string{"email": "reader@example.com", "password": "secret1", "code": code}
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/auth/register", body, nil))
	assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, "/api/auth/register", body, nil))

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "reader@example.com", "password": "secret1"}, nil))
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "reader@example.com", "password": "wrong-1"}, nil))
}

func TestAPI_RequestCodeOnlyUnderCodePolicy(t *testing.T) {
	api := newTestAPI(t, config.VerificationNone)

	var body map[string]string
	status := api.do(t, http.MethodPost, "/api/auth/request-code", map[string]string{"email": "reader@example.com"}, &body)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "route not found", body["error"])
}

func TestAPI_RoutingErrors(t *testing.T) {
	api := newTestAPI(t, config.VerificationNone)

	var body map[string]string
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/nope", nil, &body))
	assert.Equal(t, "ROUTE_NOT_FOUND", body["code"])

	assert.Equal(t, http.StatusMethodNotAllowed, api.do(t, http.MethodDelete, "/api/novels", nil, &body))
	assert.Equal(t, "method not allowed", body["error"])

	var health map[string]string
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health", nil, &health))
	assert.Equal(t, "api is running", health["status"])
}

func TestAPI_UploadCoverServedLocally(t *testing.T) {
	api := newTestAPI(t, config.VerificationNone)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "a@b.com", "password": "secret1"}, nil))

	var out struct {
		URL string `json:"url"`
	}
	status := api.do(t, http.MethodPost, "/api/upload-cover", map[string]string{
		"dataUrl":  "data:image/png;base64,aGVsbG8=",
		"filename": "cover.png",
	}, &out)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, out.URL, "http://covers.test/uploads/covers/")

	rel := out.URL[len("http://covers.test/uploads/"):]
	data, err := os.ReadFile(filepath.Join(api.uploads, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	resp, err := api.client.Get(api.server.URL + "/uploads/" + rel)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))
}

func TestAPI_UploadsNeverListDirectories(t *testing.T) {
	api := newTestAPI(t, config.VerificationNone)
	require.NoError(t, os.MkdirAll(filepath.Join(api.uploads, "covers", "u1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(api.uploads, "covers", "u1", "1.png"), []byte("png"), 0o644))

	for _, path := range []string{"/uploads/", "/uploads/covers/", "/uploads/covers", "/uploads/covers/u1/", "/uploads/covers/u1/2.png"} {
		var body map[string]string
		assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, path, nil, &body), path)
		assert.Equal(t, httputil.CodeRouteNotFound, body["code"], path)
	}

	resp, err := api.client.Get(api.server.URL + "/uploads/covers/u1/1.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
