package novel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/novelverse/internal/database"
)

var ErrNotFound = errors.New("novel not found")

// foreignKeyViolation is the Postgres SQLSTATE for a missing referenced row
const foreignKeyViolation = "23503"

// novelRow extends the novels table with the joined author and like count
type novelRow struct {
	database.Novel `bun:",extend"`

	AuthorEmail string `bun:"author_email"`
	Likes       int    `bun:"likes"`
}

// Repository handles novel and like persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) selectNovels(dest any) *bun.SelectQuery {
	return r.db.NewSelect().
		Model(dest).
		ColumnExpr("n.*").
		ColumnExpr("u.email AS author_email").
		ColumnExpr("(SELECT count(*) FROM novel_likes AS l WHERE l.novel_id = n.id) AS likes").
		Join("JOIN users AS u ON u.id = n.user_id")
}

func (r *Repository) listQuery(dest *[]novelRow) *bun.SelectQuery {
	return r.selectNovels(dest).OrderExpr("n.updated_at DESC")
}

func (r *Repository) getQuery(dest *novelRow, id uuid.UUID) *bun.SelectQuery {
	return r.selectNovels(dest).Where("n.id = ?", id).Limit(1)
}

func (r *Repository) unlikeQuery(novelID, userID uuid.UUID) *bun.DeleteQuery {
	return r.db.NewDelete().
		Model((*database.NovelLike)(nil)).
		Where("novel_id = ?", novelID).
		Where("user_id = ?", userID)
}

// likeQuery never duplicates a (novel, user) pair
func (r *Repository) likeQuery(novelID, userID uuid.UUID) *bun.InsertQuery {
	return r.db.NewInsert().
		Model(&database.NovelLike{NovelID: novelID, UserID: userID}).
		On("CONFLICT DO NOTHING")
}

// List returns every novel, most recently updated first
func (r *Repository) List(ctx context.Context) ([]*Novel, error) {
	var rows []novelRow
	err := r.listQuery(&rows).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list novels: %w", err)
	}

	novels := make([]*Novel, 0, len(rows))
	for i := range rows {
		novels = append(novels, mapRowToModel(&rows[i]))
	}
	return novels, nil
}

// Get returns one novel by id
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Novel, error) {
	row := new(novelRow)
	err := r.getQuery(row, id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get novel: %w", err)
	}

	return mapRowToModel(row), nil
}

// Create inserts a novel owned by userID and returns its id
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, in *CreateInput) (uuid.UUID, error) {
	chapters := make([]database.Chapter, 0, len(in.Chapters))
	for _, c := range in.Chapters {
		chapters = append(chapters, database.Chapter{Title: c.Title, Body: c.Body})
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	dbNovel := &database.Novel{
		UserID:   userID,
		Title:    in.Title,
		Synopsis: in.Synopsis,
		Tags:     tags,
		CoverURL: in.CoverURL,
		Chapters: chapters,
	}

	_, err := r.db.NewInsert().
		Model(dbNovel).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create novel: %w", err)
	}

	return dbNovel.ID, nil
}

// ToggleLike removes the user's like if present, otherwise adds it.
// It reports whether the novel is liked afterwards.
func (r *Repository) ToggleLike(ctx context.Context, novelID, userID uuid.UUID) (bool, error) {
	result, err := r.unlikeQuery(novelID, userID).Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to remove like: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if removed > 0 {
		return false, nil
	}

	_, err = r.likeQuery(novelID, userID).Exec(ctx)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to add like: %w", err)
	}

	return true, nil
}

func mapRowToModel(row *novelRow) *Novel {
	chapters := make([]Chapter, 0, len(row.Chapters))
	for _, c := range row.Chapters {
		chapters = append(chapters, Chapter{Title: c.Title, Body: c.Body})
	}

	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}

	return &Novel{
		ID:          row.ID,
		Title:       row.Title,
		Synopsis:    row.Synopsis,
		Tags:        tags,
		CoverURL:    row.CoverURL,
		Chapters:    chapters,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		AuthorEmail: row.AuthorEmail,
		Likes:       row.Likes,
	}
}
