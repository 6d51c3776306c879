package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Track models a finished piece of music owned by a specific user.
type Track struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Artist      string    `json:"artist"`
	AudioFile   string    `json:"audio_file,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	Genre       string    `json:"genre"`
	Duration    *float64  `json:"duration,omitempty"`
	LikesCount  int64     `json:"likes_count"`
	IsLiked     bool      `json:"is_liked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TrackFilter constrains the results returned by ListTracks.
type TrackFilter struct {
	Search   string
	Genre    string
	Ordering string // created_at, title
}

// TrackPatch describes a partial track update. Nil fields are left untouched.
type TrackPatch struct {
	Title       *string
	Description *string
	Artist      *string
	AudioFile   *string
	CoverImage  *string
	Genre       *string
	Duration    *float64
}

var trackOrderings = map[string]string{
	"created_at": "t.created_at",
	"title":      "t.title",
}

// trackColumns selects the track row plus the like counters relative to the
// viewer passed as $1.
const trackColumns = `t.id, t.user_id, t.title, t.description, t.artist,
		COALESCE(t.audio_file, ''), COALESCE(t.cover_image, ''), t.genre, t.duration,
		(SELECT COUNT(*) FROM track_likes tl WHERE tl.track_id = t.id) AS likes_count,
		EXISTS(SELECT 1 FROM track_likes tl WHERE tl.track_id = t.id AND tl.user_id = $1) AS is_liked,
		t.created_at, t.updated_at`

func scanTrack(row interface{ Scan(...any) error }, track *Track, extra ...any) error {
	dest := []any{
		&track.ID, &track.UserID, &track.Title, &track.Description, &track.Artist,
		&track.AudioFile, &track.CoverImage, &track.Genre, &track.Duration,
		&track.LikesCount, &track.IsLiked, &track.CreatedAt, &track.UpdatedAt,
	}
	dest = append(dest, extra...)
	return row.Scan(dest...)
}

// CreateTrack inserts a new track owned by userID.
func (s *Store) CreateTrack(ctx context.Context, userID int64, track Track) (*Track, error) {
	track.Title = strings.TrimSpace(track.Title)

	var created Track
	row := s.db.QueryRowContext(ctx, `
		WITH inserted AS (
			INSERT INTO tracks (user_id, title, description, artist, audio_file, cover_image, genre, duration, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING *
		)
		SELECT `+trackColumns+`
		FROM inserted t
	`, userID, track.Title, track.Description, track.Artist,
		nullIfEmpty(track.AudioFile), nullIfEmpty(track.CoverImage),
		track.Genre, track.Duration, time.Now().UTC())
	if err := scanTrack(row, &created); err != nil {
		return nil, fmt.Errorf("insert track: %w", err)
	}

	return &created, nil
}

// ListTracks returns the user's tracks matching the filter.
func (s *Store) ListTracks(ctx context.Context, userID int64, filter TrackFilter, page Page) ([]*Track, int64, error) {
	clauses := []string{"t.user_id = $1"}
	args := []any{userID}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		clauses = append(clauses, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d)", len(args), len(args)))
	}
	if genre := strings.TrimSpace(filter.Genre); genre != "" {
		args = append(args, genre)
		clauses = append(clauses, fmt.Sprintf("t.genre = $%d", len(args)))
	}

	order := orderClause(filter.Ordering, trackOrderings, "t.created_at DESC")
	limit, offset := page.limitOffset()
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM tracks t
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, trackColumns, strings.Join(clauses, " AND "), order, len(args)-1, len(args))

	return s.queryTracks(ctx, query, args...)
}

// BrowseTracks returns every user's tracks for discovery, scored against the
// viewer for is_liked.
func (s *Store) BrowseTracks(ctx context.Context, viewerID int64, filter TrackFilter, page Page) ([]*Track, int64, error) {
	clauses := []string{"TRUE"}
	args := []any{viewerID}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		clauses = append(clauses, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d)", len(args), len(args)))
	}
	if genre := strings.TrimSpace(filter.Genre); genre != "" {
		args = append(args, genre)
		clauses = append(clauses, fmt.Sprintf("t.genre = $%d", len(args)))
	}

	order := orderClause(filter.Ordering, trackOrderings, "t.created_at DESC")
	limit, offset := page.limitOffset()
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM tracks t
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, trackColumns, strings.Join(clauses, " AND "), order, len(args)-1, len(args))

	return s.queryTracks(ctx, query, args...)
}

func (s *Store) queryTracks(ctx context.Context, query string, args ...any) ([]*Track, int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select tracks: %w", err)
	}
	defer rows.Close()

	var (
		tracks []*Track
		total  int64
	)
	for rows.Next() {
		var track Track
		if err := scanTrack(rows, &track, &total); err != nil {
			return nil, 0, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, &track)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tracks: %w", err)
	}

	return tracks, total, nil
}

// GetTrack fetches one of the user's tracks. Tracks owned by other users are
// reported as not found.
func (s *Store) GetTrack(ctx context.Context, userID, id int64) (*Track, error) {
	var track Track
	row := s.db.QueryRowContext(ctx, `
		SELECT `+trackColumns+`
		FROM tracks t
		WHERE t.id = $2 AND t.user_id = $1
	`, userID, id)
	if err := scanTrack(row, &track); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select track: %w", err)
	}

	return &track, nil
}

// UpdateTrack applies a partial update to one of the user's tracks, re-checking
// ownership on the fetched row before writing.
func (s *Store) UpdateTrack(ctx context.Context, userID, id int64, patch TrackPatch) (*Track, error) {
	current, err := s.GetTrack(ctx, userID, id)
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
	args = append(args, userID) // $1 feeds the is_liked subquery

	if patch.Title != nil {
		args = append(args, strings.TrimSpace(*patch.Title))
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if patch.Artist != nil {
		args = append(args, strings.TrimSpace(*patch.Artist))
		sets = append(sets, fmt.Sprintf("artist = $%d", len(args)))
	}
	if patch.AudioFile != nil {
		args = append(args, nullIfEmpty(*patch.AudioFile))
		sets = append(sets, fmt.Sprintf("audio_file = $%d", len(args)))
	}
	if patch.CoverImage != nil {
		args = append(args, nullIfEmpty(*patch.CoverImage))
		sets = append(sets, fmt.Sprintf("cover_image = $%d", len(args)))
	}
	if patch.Genre != nil {
		args = append(args, strings.TrimSpace(*patch.Genre))
		sets = append(sets, fmt.Sprintf("genre = $%d", len(args)))
	}
	if patch.Duration != nil {
		args = append(args, *patch.Duration)
		sets = append(sets, fmt.Sprintf("duration = $%d", len(args)))
	}

	if len(sets) == 0 {
		return current, nil
	}

	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf(`
		WITH updated AS (
			UPDATE tracks
			SET %s
			WHERE id = $%d AND user_id = $1
			RETURNING *
		)
		SELECT %s
		FROM updated t
	`, strings.Join(sets, ", "), len(args), trackColumns)

	var track Track
	if err := scanTrack(s.db.QueryRowContext(ctx, query, args...), &track); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update track: %w", err)
	}

	return &track, nil
}

// DeleteTrack removes one of the user's tracks, cascading its likes.
func (s *Store) DeleteTrack(ctx context.Context, userID, id int64) error {
	current, err := s.GetTrack(ctx, userID, id)
	if err != nil {
		return err
	}
	if current.UserID != userID {
		return ErrForbidden
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM tracks
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete track: %w", err)
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
