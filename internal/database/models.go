package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the users table
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,nullzero,default:gen_random_uuid()"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Verified     bool      `bun:"verified,notnull,default:false"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Session is one row per issued login cookie
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	Token     string    `bun:"token,pk"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
}

// VerificationCode stores the hash of an emailed one-time code
type VerificationCode struct {
	bun.BaseModel `bun:"table:verification_codes,alias:vc"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Email     string    `bun:"email,notnull"`
	CodeHash  string    `bun:"code_hash,notnull"`
	Purpose   string    `bun:"purpose,notnull"`
	Attempts  int       `bun:"attempts,notnull,default:0"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
}

// Chapter is stored inline in novels.chapters as jsonb
type Chapter struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Novel is the novels table
type Novel struct {
	bun.BaseModel `bun:"table:novels,alias:n"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,nullzero,default:gen_random_uuid()"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull"`
	Title     string    `bun:"title,notnull"`
	Synopsis  string    `bun:"synopsis,notnull,default:''"`
	Tags      []string  `bun:"tags,array,notnull"`
	CoverURL  *string   `bun:"cover_url"`
	Chapters  []Chapter `bun:"chapters,type:jsonb,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// NovelLike is the novel_likes junction table
type NovelLike struct {
	bun.BaseModel `bun:"table:novel_likes,alias:l"`

	NovelID   uuid.UUID `bun:"novel_id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,pk,type:uuid"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
