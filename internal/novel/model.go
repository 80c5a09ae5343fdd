package novel

import (
	"time"

	"github.com/google/uuid"
)

type Chapter struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Novel is a published novel with its author's email and live like count
type Novel struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Synopsis    string    `json:"synopsis"`
	Tags        []string  `json:"tags"`
	CoverURL    *string   `json:"cover_url"`
	Chapters    []Chapter `json:"chapters"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	AuthorEmail string    `json:"author_email"`
	Likes       int       `json:"likes"`
}

// CreateInput is the cleaned payload of a new novel
type CreateInput struct {
	Title    string
	Synopsis string
	CoverURL *string
	Tags     []string
	Chapters []Chapter
}

// RenderedChapter is one chapter prepared for the reader view
type RenderedChapter struct {
	NovelID  uuid.UUID `json:"novel_id"`
	Index    int       `json:"index"`
	Total    int       `json:"total"`
	Title    string    `json:"title"`
	BodyHTML string    `json:"body_html"`
}
