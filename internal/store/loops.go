package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// MusicLoop models an uploaded loop owned by a specific user.
type MusicLoop struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AudioFile   string    `json:"audio_file,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	BPM         *int      `json:"bpm,omitempty"`
	Duration    *float64  `json:"duration,omitempty"`
	Genre       string    `json:"genre"`
	Tags        []string  `json:"tags"`
	IsPublic    bool      `json:"is_public"`
	PlayCount   int64     `json:"play_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LoopFilter constrains the results returned by ListLoops.
type LoopFilter struct {
	Search   string // matches title or description
	Genre    string
	Public   *bool
	Ordering string // created_at, title, play_count; '-' prefix for descending
}

// LoopPatch describes a partial loop update. Nil fields are left untouched.
type LoopPatch struct {
	Title       *string
	Description *string
	AudioFile   *string
	Thumbnail   *string
	BPM         *int
	Duration    *float64
	Genre       *string
	Tags        *[]string
	IsPublic    *bool
}

var loopOrderings = map[string]string{
	"created_at": "created_at",
	"title":      "title",
	"play_count": "play_count",
}

const loopColumns = `id, user_id, title, description,
		COALESCE(audio_file, ''), COALESCE(thumbnail, ''),
		bpm, duration, genre, tags, is_public, play_count, created_at, updated_at`

func scanLoop(row interface{ Scan(...any) error }, loop *MusicLoop) error {
	return row.Scan(
		&loop.ID, &loop.UserID, &loop.Title, &loop.Description,
		&loop.AudioFile, &loop.Thumbnail,
		&loop.BPM, &loop.Duration, &loop.Genre, pq.Array(&loop.Tags),
		&loop.IsPublic, &loop.PlayCount, &loop.CreatedAt, &loop.UpdatedAt,
	)
}

// CreateLoop inserts a new loop owned by userID. The owner is always stamped
// server-side and never taken from caller-supplied data.
func (s *Store) CreateLoop(ctx context.Context, userID int64, loop MusicLoop) (*MusicLoop, error) {
	loop.Title = strings.TrimSpace(loop.Title)

	tags := loop.Tags
	if tags == nil {
		tags = []string{}
	}

	var created MusicLoop
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO music_loops (user_id, title, description, audio_file, thumbnail, bpm, duration, genre, tags, is_public, play_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $11)
		RETURNING `+loopColumns+`
	`, userID, loop.Title, loop.Description, nullIfEmpty(loop.AudioFile), nullIfEmpty(loop.Thumbnail),
		loop.BPM, loop.Duration, loop.Genre, pq.Array(tags), loop.IsPublic, time.Now().UTC())
	if err := scanLoop(row, &created); err != nil {
		return nil, fmt.Errorf("insert loop: %w", err)
	}

	return &created, nil
}

// ListLoops returns the user's loops matching the filter, with the total
// count of matching rows before pagination.
func (s *Store) ListLoops(ctx context.Context, userID int64, filter LoopFilter, page Page) ([]*MusicLoop, int64, error) {
	clauses := []string{"user_id = $1"}
	args := []any{userID}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if genre := strings.TrimSpace(filter.Genre); genre != "" {
		args = append(args, genre)
		clauses = append(clauses, fmt.Sprintf("genre = $%d", len(args)))
	}
	if filter.Public != nil {
		args = append(args, *filter.Public)
		clauses = append(clauses, fmt.Sprintf("is_public = $%d", len(args)))
	}

	order := orderClause(filter.Ordering, loopOrderings, "created_at DESC")
	limit, offset := page.limitOffset()
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM music_loops
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, loopColumns, strings.Join(clauses, " AND "), order, len(args)-1, len(args))

	return s.queryLoops(ctx, query, args...)
}

// BrowseLoops returns public loops from every user, for discovery.
func (s *Store) BrowseLoops(ctx context.Context, filter LoopFilter, page Page) ([]*MusicLoop, int64, error) {
	clauses := []string{"is_public = TRUE"}
	var args []any

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if genre := strings.TrimSpace(filter.Genre); genre != "" {
		args = append(args, genre)
		clauses = append(clauses, fmt.Sprintf("genre = $%d", len(args)))
	}

	order := orderClause(filter.Ordering, loopOrderings, "created_at DESC")
	limit, offset := page.limitOffset()
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM music_loops
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, loopColumns, strings.Join(clauses, " AND "), order, len(args)-1, len(args))

	return s.queryLoops(ctx, query, args...)
}

func (s *Store) queryLoops(ctx context.Context, query string, args ...any) ([]*MusicLoop, int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select loops: %w", err)
	}
	defer rows.Close()

	var (
		loops []*MusicLoop
		total int64
	)
	for rows.Next() {
		var loop MusicLoop
		if err := rows.Scan(
			&loop.ID, &loop.UserID, &loop.Title, &loop.Description,
			&loop.AudioFile, &loop.Thumbnail,
			&loop.BPM, &loop.Duration, &loop.Genre, pq.Array(&loop.Tags),
			&loop.IsPublic, &loop.PlayCount, &loop.CreatedAt, &loop.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan loop: %w", err)
		}
		loops = append(loops, &loop)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate loops: %w", err)
	}

	return loops, total, nil
}

// GetLoop fetches one of the user's loops. Loops owned by other users are
// reported as not found, never as forbidden.
func (s *Store) GetLoop(ctx context.Context, userID, id int64) (*MusicLoop, error) {
	var loop MusicLoop
	row := s.db.QueryRowContext(ctx, `
		SELECT `+loopColumns+`
		FROM music_loops
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err := scanLoop(row, &loop); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select loop: %w", err)
	}

	return &loop, nil
}

// UpdateLoop applies a partial update to one of the user's loops. The row is
// fetched through the scoped query first and its owner re-checked before any
// write, as a guard against scoping ever being bypassed.
func (s *Store) UpdateLoop(ctx context.Context, userID, id int64, patch LoopPatch) (*MusicLoop, error) {
	current, err := s.GetLoop(ctx, userID, id)
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
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if patch.AudioFile != nil {
		args = append(args, nullIfEmpty(*patch.AudioFile))
		sets = append(sets, fmt.Sprintf("audio_file = $%d", len(args)))
	}
	if patch.Thumbnail != nil {
		args = append(args, nullIfEmpty(*patch.Thumbnail))
		sets = append(sets, fmt.Sprintf("thumbnail = $%d", len(args)))
	}
	if patch.BPM != nil {
		args = append(args, *patch.BPM)
		sets = append(sets, fmt.Sprintf("bpm = $%d", len(args)))
	}
	if patch.Duration != nil {
		args = append(args, *patch.Duration)
		sets = append(sets, fmt.Sprintf("duration = $%d", len(args)))
	}
	if patch.Genre != nil {
		args = append(args, strings.TrimSpace(*patch.Genre))
		sets = append(sets, fmt.Sprintf("genre = $%d", len(args)))
	}
	if patch.Tags != nil {
		args = append(args, pq.Array(*patch.Tags))
		sets = append(sets, fmt.Sprintf("tags = $%d", len(args)))
	}
	if patch.IsPublic != nil {
		args = append(args, *patch.IsPublic)
		sets = append(sets, fmt.Sprintf("is_public = $%d", len(args)))
	}

	if len(sets) == 0 {
		return current, nil
	}

	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id, userID)

	query := fmt.Sprintf(`
		UPDATE music_loops
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), len(args)-1, len(args), loopColumns)

	var loop MusicLoop
	if err := scanLoop(s.db.QueryRowContext(ctx, query, args...), &loop); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update loop: %w", err)
	}

	return &loop, nil
}

// DeleteLoop removes one of the user's loops. The delete cascades to any
// favorites pointing at the loop.
func (s *Store) DeleteLoop(ctx context.Context, userID, id int64) error {
	current, err := s.GetLoop(ctx, userID, id)
	if err != nil {
		return err
	}
	if current.UserID != userID {
		return ErrForbidden
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM music_loops
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete loop: %w", err)
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

// IncrementPlayCount bumps the loop's play counter atomically and returns the
// new value. Only public loops (or the owner's own) count plays.
func (s *Store) IncrementPlayCount(ctx context.Context, userID, id int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE music_loops
		SET play_count = play_count + 1
		WHERE id = $1 AND (is_public = TRUE OR user_id = $2)
		RETURNING play_count
	`, id, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("increment play count: %w", err)
	}

	return count, nil
}
