package novel

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore is an in-memory Store keyed by novel id
type memoryStore struct {
	mu      sync.Mutex
	now     time.Time
	novels  map[uuid.UUID]*Novel
	authors map[uuid.UUID]string
	likes   map[uuid.UUID]map[uuid.UUID]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		now:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		novels:  make(map[uuid.UUID]*Novel),
		authors: make(map[uuid.UUID]string),
		likes:   make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (m *memoryStore) setAuthor(userID uuid.UUID, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authors[userID] = email
}

func (m *memoryStore) snapshot(n *Novel) *Novel {
	cp := *n
	cp.Likes = len(m.likes[n.ID])
	return &cp
}

func (m *memoryStore) List(_ context.Context) ([]*Novel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Novel, 0, len(m.novels))
	for _, n := range m.novels {
		out = append(out, m.snapshot(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, id uuid.UUID) (*Novel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.novels[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.snapshot(n), nil
}

func (m *memoryStore) Create(_ context.Context, userID uuid.UUID, in *CreateInput) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(time.Minute)
	n := &Novel{
		ID:          uuid.New(),
		Title:       in.Title,
		Synopsis:    in.Synopsis,
		Tags:        in.Tags,
		CoverURL:    in.CoverURL,
		Chapters:    in.Chapters,
		CreatedAt:   m.now,
		UpdatedAt:   m.now,
		AuthorEmail: m.authors[userID],
	}
	m.novels[n.ID] = n
	return n.ID, nil
}

func (m *memoryStore) ToggleLike(_ context.Context, novelID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.novels[novelID]; !ok {
		return false, ErrNotFound
	}
	if m.likes[novelID] == nil {
		m.likes[novelID] = make(map[uuid.UUID]bool)
	}
	if m.likes[novelID][userID] {
		delete(m.likes[novelID], userID)
		return false, nil
	}
	m.likes[novelID][userID] = true
	return true, nil
}
