package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Post models a board post owned by a specific user.
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AudioFile string    `json:"audio_file,omitempty"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostFilter constrains the results returned by post listings.
type PostFilter struct {
	Search   string // matches title or content
	Ordering string // created_at, title
}

// PostPatch describes a partial post update. Nil fields are left untouched.
type PostPatch struct {
	Title     *string
	Content   *string
	AudioFile *string
	Image     *string
}

var postOrderings = map[string]string{
	"created_at": "p.created_at",
	"title":      "p.title",
}

const postColumns = `p.id, p.user_id, u.username, p.title, p.content,
		COALESCE(p.audio_file, ''), COALESCE(p.image, ''), p.created_at, p.updated_at`

func scanPost(row interface{ Scan(...any) error }, post *Post, extra ...any) error {
	dest := []any{
		&post.ID, &post.UserID, &post.Author, &post.Title, &post.Content,
		&post.AudioFile, &post.Image, &post.CreatedAt, &post.UpdatedAt,
	}
	dest = append(dest, extra...)
	return row.Scan(dest...)
}

// CreatePost inserts a new post owned by userID.
func (s *Store) CreatePost(ctx context.Context, userID int64, post Post) (*Post, error) {
	post.Title = strings.TrimSpace(post.Title)

	var created Post
	row := s.db.QueryRowContext(ctx, `
		WITH inserted AS (
			INSERT INTO posts (user_id, title, content, audio_file, image, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING *
		)
		SELECT `+postColumns+`
		FROM inserted p
		JOIN users u ON u.id = p.user_id
	`, userID, post.Title, post.Content, nullIfEmpty(post.AudioFile), nullIfEmpty(post.Image), time.Now().UTC())
	if err := scanPost(row, &created); err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	return &created, nil
}

// ListPosts returns the user's own posts matching the filter.
func (s *Store) ListPosts(ctx context.Context, userID int64, filter PostFilter, page Page) ([]*Post, int64, error) {
	clauses := []string{"p.user_id = $1"}
	args := []any{userID}
	return s.listPosts(ctx, clauses, args, filter, page)
}

// BrowsePosts returns every user's posts, newest first by default.
func (s *Store) BrowsePosts(ctx context.Context, filter PostFilter, page Page) ([]*Post, int64, error) {
	return s.listPosts(ctx, []string{"TRUE"}, nil, filter, page)
}

func (s *Store) listPosts(ctx context.Context, clauses []string, args []any, filter PostFilter, page Page) ([]*Post, int64, error) {
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		clauses = append(clauses, fmt.Sprintf("(p.title ILIKE $%d OR p.content ILIKE $%d)", len(args), len(args)))
	}

	order := orderClause(filter.Ordering, postOrderings, "p.created_at DESC")
	limit, offset := page.limitOffset()
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, postColumns, strings.Join(clauses, " AND "), order, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select posts: %w", err)
	}
	defer rows.Close()

	var (
		posts []*Post
		total int64
	)
	for rows.Next() {
		var post Post
		if err := scanPost(rows, &post, &total); err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, total, nil
}

// GetPost fetches one of the user's posts. Posts owned by other users are
// reported as not found.
func (s *Store) GetPost(ctx context.Context, userID, id int64) (*Post, error) {
	var post Post
	row := s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1 AND p.user_id = $2
	`, id, userID)
	if err := scanPost(row, &post); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select post: %w", err)
	}

	return &post, nil
}

// UpdatePost applies a partial update to one of the user's posts, re-checking
// ownership on the fetched row before writing.
func (s *Store) UpdatePost(ctx context.Context, userID, id int64, patch PostPatch) (*Post, error) {
	current, err := s.GetPost(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, ErrForbidden
	}

	var (
		sets []string
		args []any
	)

	if patch.Title != nil {
		args = append(args, strings.TrimSpace(*patch.Title))
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Content != nil {
		args = append(args, *patch.Content)
		sets = append(sets, fmt.Sprintf("content = $%d", len(args)))
	}
	if patch.AudioFile != nil {
		args = append(args, nullIfEmpty(*patch.AudioFile))
		sets = append(sets, fmt.Sprintf("audio_file = $%d", len(args)))
	}
	if patch.Image != nil {
		args = append(args, nullIfEmpty(*patch.Image))
		sets = append(sets, fmt.Sprintf("image = $%d", len(args)))
	}

	if len(sets) == 0 {
		return current, nil
	}

	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id, userID)

	query := fmt.Sprintf(`
		WITH updated AS (
			UPDATE posts
			SET %s
			WHERE id = $%d AND user_id = $%d
			RETURNING *
		)
		SELECT %s
		FROM updated p
		JOIN users u ON u.id = p.user_id
	`, strings.Join(sets, ", "), len(args)-1, len(args), postColumns)

	var post Post
	if err := scanPost(s.db.QueryRowContext(ctx, query, args...), &post); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	return &post, nil
}

// DeletePost removes one of the user's posts.
func (s *Store) DeletePost(ctx context.Context, userID, id int64) error {
	current, err := s.GetPost(ctx, userID, id)
	if err != nil {
		return err
	}
	if current.UserID != userID {
		return ErrForbidden
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM posts
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	affected, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
