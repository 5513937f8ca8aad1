package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"postgrid/internal/api"
)

// Repository stores the demo server's posts in sqlite. The default database
// lives in memory and lasts for the process only; the demo server is a stand-in
// collaborator, not a persistence layer.
type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps an in-memory database from fragmenting across the
	// pool.
	db.SetMaxOpenConns(1)
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS posts (
  id INTEGER PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  short_desc TEXT NOT NULL,
  thumbnail TEXT NOT NULL,
  author TEXT NOT NULL,
  content TEXT NOT NULL,
  published_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS related (
  post_id INTEGER NOT NULL,
  related_id INTEGER NOT NULL,
  position INTEGER NOT NULL,
  PRIMARY KEY (post_id, position)
);
`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SeedDemo fills the repository with n generated posts. Each post lists four
// related posts, and the first related slot deliberately echoes the post
// itself: real upstream data does this, and clients are expected to filter
// the echo out.
func (r *Repository) SeedDemo(ctx context.Context, n int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	postStmt, err := tx.PrepareContext(ctx, `
INSERT INTO posts (id, slug, title, short_desc, thumbnail, author, content, published_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`)
	if err != nil {
		return fmt.Errorf("prepare post statement: %w", err)
	}
	defer postStmt.Close()

	relStmt, err := tx.PrepareContext(ctx, `
INSERT INTO related (post_id, related_id, position) VALUES (?, ?, ?)
ON CONFLICT(post_id, position) DO NOTHING
`)
	if err != nil {
		return fmt.Errorf("prepare related statement: %w", err)
	}
	defer relStmt.Close()

	authors := []string{"Ana Ruiz", "Kenji Sato", "Mara Veld", "Tom Iversen"}
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		slug := fmt.Sprintf("post-%d", i)
		title := fmt.Sprintf("Post %d: Notes from the Grid", i)
		shortDesc := fmt.Sprintf("A short summary of post %d, enough to fill a feed card.", i)
		thumbnail := fmt.Sprintf("https://picsum.photos/seed/%d/600/400", i)
		content := fmt.Sprintf(
			"<h2>Section one</h2><p>This is the full body of post %d. It only exists on the detail endpoint.</p><p>More prose follows, long enough to need wrapping in a narrow viewport.</p><ul><li>first point</li><li>second point</li></ul>",
			i,
		)
		published := base.Add(time.Duration(i) * time.Hour)

		if _, err := postStmt.ExecContext(ctx, i, slug, title, shortDesc, thumbnail, authors[i%len(authors)], content, published.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("seed post %d: %w", i, err)
		}

		// Self echo at position 0, then the three following posts (wrapping).
		related := []int{i}
		for off := 1; off <= 3; off++ {
			related = append(related, (i+off-1)%n+1)
		}
		for pos, rid := range related {
			if rid == i && pos != 0 {
				continue
			}
			if _, err := relStmt.ExecContext(ctx, i, rid, pos); err != nil {
				return fmt.Errorf("seed related for post %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListPage returns one page of summaries in publication order plus whether a
// further page exists. Pages are numbered from 1.
func (r *Repository) ListPage(ctx context.Context, page, perPage int) ([]api.Summary, bool, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 12
	}
	offset := (page - 1) * perPage

	// Fetch one extra row to learn whether another page exists.
	rows, err := r.db.QueryContext(ctx, `
SELECT id, slug, title, short_desc, thumbnail, author, published_at
FROM posts
ORDER BY id
LIMIT ? OFFSET ?
`, perPage+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	items := make([]api.Summary, 0, perPage+1)
	for rows.Next() {
		item, err := scanSummary(rows)
		if err != nil {
			return nil, false, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("rows iteration: %w", err)
	}

	hasMore := len(items) > perPage
	if hasMore {
		items = items[:perPage]
	}
	return items, hasMore, nil
}

// GetBySlug returns the full detail record for one slug, related posts
// included, or api.ErrNotFound.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (api.Detail, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, slug, title, short_desc, thumbnail, author, published_at, content
FROM posts
WHERE slug = ?
`, slug)

	var detail api.Detail
	var published string
	err := row.Scan(
		&detail.ID,
		&detail.Slug,
		&detail.Title,
		&detail.ShortDesc,
		&detail.Thumbnail,
		&detail.Author,
		&published,
		&detail.Content,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return api.Detail{}, fmt.Errorf("post %q: %w", slug, api.ErrNotFound)
	}
	if err != nil {
		return api.Detail{}, fmt.Errorf("scan post: %w", err)
	}
	if detail.PublishedAt, err = time.Parse(time.RFC3339, published); err != nil {
		return api.Detail{}, fmt.Errorf("parse post published_at %q: %w", published, err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.slug, p.title, p.short_desc, p.thumbnail, p.author, p.published_at
FROM related r
JOIN posts p ON p.id = r.related_id
WHERE r.post_id = ?
ORDER BY r.position
`, detail.ID)
	if err != nil {
		return api.Detail{}, fmt.Errorf("query related posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanSummary(rows)
		if err != nil {
			return api.Detail{}, err
		}
		detail.RelatedPosts = append(detail.RelatedPosts, item)
	}
	if err := rows.Err(); err != nil {
		return api.Detail{}, fmt.Errorf("rows iteration: %w", err)
	}
	return detail, nil
}

func scanSummary(rows *sql.Rows) (api.Summary, error) {
	var item api.Summary
	var published string
	if err := rows.Scan(
		&item.ID,
		&item.Slug,
		&item.Title,
		&item.ShortDesc,
		&item.Thumbnail,
		&item.Author,
		&published,
	); err != nil {
		return api.Summary{}, fmt.Errorf("scan summary: %w", err)
	}
	var err error
	if item.PublishedAt, err = time.Parse(time.RFC3339, published); err != nil {
		return api.Summary{}, fmt.Errorf("parse summary published_at %q: %w", published, err)
	}
	return item, nil
}
