package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/novelverse/internal/config"
)

func TestLocalStore_Put(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "http://localhost:8080/uploads/")

	url, err := store.Put(context.Background(), "covers/u1/1700000000000.png", "image/png", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/covers/u1/1700000000000.png", url)

	got, err := os.ReadFile(filepath.Join(dir, "covers", "u1", "1700000000000.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), got)
}

func TestLocalStore_StaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "http://localhost/uploads")

	url, err := store.Put(context.Background(), "../../escape.png", "image/png", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/uploads/escape.png", url)
	assert.FileExists(t, filepath.Join(dir, "escape.png"))

	_, err = store.Put(context.Background(), "covers/", "image/png", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestVercelStore_Put(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotHeader http.Header
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotHeader = r.Method, r.URL.Path, r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://cdn.example.com/covers/u1/1.png","pathname":"covers/u1/1.png"}`))
	}))
	defer srv.Close()

	store := NewVercelStore(srv.URL+"/", "tok", srv.Client())
	url, err := store.Put(context.Background(), "covers/u1/1.png", "image/png", []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/covers/u1/1.png", url)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/covers/u1/1.png", gotPath)
	assert.Equal(t, "Bearer tok", gotHeader.Get("Authorization"))
	assert.Equal(t, "public", gotHeader.Get("x-vercel-blob-access"))
	assert.Equal(t, "image/png", gotHeader.Get("x-content-type"))
	assert.Equal(t, []byte("img"), gotBody)
}

func TestVercelStore_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"provider error", http.StatusForbidden, `{"error":{"code":"forbidden"}}`},
		{"garbage body", http.StatusOK, `nope`},
		{"missing url", http.StatusOK, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			store := NewVercelStore(srv.URL, "tok", srv.Client())
			_, err := store.Put(context.Background(), "k.png", "image/png", []byte("x"))
			assert.Error(t, err)
		})
	}
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(config.BlobConfig{Driver: config.BlobDriverLocal, LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	s, err = NewStore(config.BlobConfig{Driver: config.BlobDriverVercel, Token: "t", APIURL: "https://blob.example"})
	require.NoError(t, err)
	assert.IsType(t, &VercelStore{}, s)

	_, err = NewStore(config.BlobConfig{Driver: "s3"})
	assert.Error(t, err)
}
