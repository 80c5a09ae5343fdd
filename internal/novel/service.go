package novel

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxTags           = 12
	MaxSynopsisLength = 2000
	MaxChapterTitle   = 80
)

var (
	ErrTitleRequired   = errors.New("title required")
	ErrChapterRequired = errors.New("minimum 1 chapter")
	ErrChapterNotFound = errors.New("chapter not found")
)

// Store is the persistence the novel service depends on
type Store interface {
	List(ctx context.Context) ([]*Novel, error)
	Get(ctx context.Context, id uuid.UUID) (*Novel, error)
	Create(ctx context.Context, userID uuid.UUID, in *CreateInput) (uuid.UUID, error)
	ToggleLike(ctx context.Context, novelID, userID uuid.UUID) (bool, error)
}

// Service handles novel business logic
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context) ([]*Novel, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Novel, error) {
	return s.store.Get(ctx, id)
}

// Create cleans the input and stores a new novel for userID
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (uuid.UUID, error) {
	cleaned, err := normalizeInput(in)
	if err != nil {
		return uuid.Nil, err
	}
	return s.store.Create(ctx, userID, cleaned)
}

// ToggleLike flips the user's like on a novel
func (s *Service) ToggleLike(ctx context.Context, novelID, userID uuid.UUID) (bool, error) {
	return s.store.ToggleLike(ctx, novelID, userID)
}

// Chapter returns one chapter, 0-based, with its body rendered to HTML
func (s *Service) Chapter(ctx context.Context, novelID uuid.UUID, index int) (*RenderedChapter, error) {
	n, err := s.store.Get(ctx, novelID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(n.Chapters) {
		return nil, ErrChapterNotFound
	}

	c := n.Chapters[index]
	html, err := renderMarkdown(c.Body)
	if err != nil {
		return nil, err
	}

	return &RenderedChapter{
		NovelID:  n.ID,
		Index:    index,
		Total:    len(n.Chapters),
		Title:    c.Title,
		BodyHTML: html,
	}, nil
}

// normalizeInput trims and caps fields. Chapters whose body is blank are
// dropped before the minimum chapter count is checked.
func normalizeInput(in CreateInput) (*CreateInput, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	chapters := make([]Chapter, 0, len(in.Chapters))
	for _, c := range in.Chapters {
		if strings.TrimSpace(c.Body) == "" {
			continue
		}
		chapters = append(chapters, Chapter{
			Title: truncateRunes(c.Title, MaxChapterTitle),
			Body:  c.Body,
		})
	}
	if len(chapters) == 0 {
		return nil, ErrChapterRequired
	}

	var coverURL *string
	if in.CoverURL != nil && *in.CoverURL != "" {
		u := *in.CoverURL
		coverURL = &u
	}

	return &CreateInput{
		Title:    title,
		Synopsis: truncateRunes(in.Synopsis, MaxSynopsisLength),
		CoverURL: coverURL,
		Tags:     normalizeTags(in.Tags),
		Chapters: chapters,
	}, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
