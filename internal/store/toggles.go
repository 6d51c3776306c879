package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// toggleRelation describes one like/favorite link table. All identifiers are
// compile-time constants, never caller input.
type toggleRelation struct {
	linkTable string
	itemTable string
	itemCol   string
}

var (
	favoriteRelation  = toggleRelation{linkTable: "favorites", itemTable: "music_loops", itemCol: "loop_id"}
	trackLikeRelation = toggleRelation{linkTable: "track_likes", itemTable: "tracks", itemCol: "track_id"}
)

// Favorite links a user to a loop they favorited.
type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	LoopID    int64     `json:"loop_id"`
	Loop      MusicLoop `json:"loop"`
	CreatedAt time.Time `json:"created_at"`
}

// TrackLike links a user to a track they liked.
type TrackLike struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TrackID   int64     `json:"track_id"`
	Track     Track     `json:"track"`
	CreatedAt time.Time `json:"created_at"`
}

// toggleLink flips set membership of the (user, item) pair. The insert relies
// on the link table's uniqueness constraint: if two concurrent toggles both
// observe the pair as absent, exactly one insert lands and the other resolves
// to the already-present branch. Returns true when the link was created,
// false when an existing link was removed.
func (s *Store) toggleLink(ctx context.Context, rel toggleRelation, userID, itemID int64) (bool, error) {
	var ownerID int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT user_id FROM %s WHERE id = $1
	`, rel.itemTable), itemID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("lookup item owner: %w", err)
	}
	if ownerID == userID {
		return false, ErrSelfToggle
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (user_id, %s, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, %s) DO NOTHING
	`, rel.linkTable, rel.itemCol, rel.itemCol), userID, itemID, time.Now().UTC())
	if err != nil {
		// The item can disappear between the owner lookup and the insert.
		if isForeignKeyViolation(err) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert link: %w", err)
	}

	affected, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	if affected == 1 {
		return true, nil
	}

	// Pair already present, including when this call lost a concurrent
	// creation race: treat it as the removal half of the toggle.
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE user_id = $1 AND %s = $2
	`, rel.linkTable, rel.itemCol), userID, itemID); err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}

	return false, nil
}

// checkLink reports whether the (user, item) pair exists. No side effects.
func (s *Store) checkLink(ctx context.Context, rel toggleRelation, userID, itemID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT EXISTS(SELECT 1 FROM %s WHERE user_id = $1 AND %s = $2)
	`, rel.linkTable, rel.itemCol), userID, itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check link: %w", err)
	}
	return exists, nil
}

// clearLinks deletes every link owned by the user and returns the exact count
// removed. Other users' links are never touched.
func (s *Store) clearLinks(ctx context.Context, rel toggleRelation, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE user_id = $1
	`, rel.linkTable), userID)
	if err != nil {
		return 0, fmt.Errorf("clear links: %w", err)
	}
	return rowsAffected(res)
}

// ToggleFavorite flips the user's favorite on a loop.
func (s *Store) ToggleFavorite(ctx context.Context, userID, loopID int64) (bool, error) {
	return s.toggleLink(ctx, favoriteRelation, userID, loopID)
}

// CheckFavorite reports whether the user has favorited the loop.
func (s *Store) CheckFavorite(ctx context.Context, userID, loopID int64) (bool, error) {
	return s.checkLink(ctx, favoriteRelation, userID, loopID)
}

// ClearFavorites removes all of the user's favorites.
func (s *Store) ClearFavorites(ctx context.Context, userID int64) (int64, error) {
	return s.clearLinks(ctx, favoriteRelation, userID)
}

// ListFavorites returns the user's favorites with the favorited loops
// embedded, newest favorite first.
func (s *Store) ListFavorites(ctx context.Context, userID int64, page Page) ([]*Favorite, int64, error) {
	limit, offset := page.limitOffset()

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.user_id, f.loop_id, f.created_at,
			l.id, l.user_id, l.title, l.description,
			COALESCE(l.audio_file, ''), COALESCE(l.thumbnail, ''),
			l.bpm, l.duration, l.genre, l.tags, l.is_public, l.play_count, l.created_at, l.updated_at,
			COUNT(*) OVER() AS total
		FROM favorites f
		JOIN music_loops l ON l.id = f.loop_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("select favorites: %w", err)
	}
	defer rows.Close()

	var (
		favorites []*Favorite
		total     int64
	)
	for rows.Next() {
		var fav Favorite
		if err := rows.Scan(
			&fav.ID, &fav.UserID, &fav.LoopID, &fav.CreatedAt,
			&fav.Loop.ID, &fav.Loop.UserID, &fav.Loop.Title, &fav.Loop.Description,
			&fav.Loop.AudioFile, &fav.Loop.Thumbnail,
			&fav.Loop.BPM, &fav.Loop.Duration, &fav.Loop.Genre, pq.Array(&fav.Loop.Tags),
			&fav.Loop.IsPublic, &fav.Loop.PlayCount, &fav.Loop.CreatedAt, &fav.Loop.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, &fav)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate favorites: %w", err)
	}

	return favorites, total, nil
}

// ToggleTrackLike flips the user's like on a track.
func (s *Store) ToggleTrackLike(ctx context.Context, userID, trackID int64) (bool, error) {
	return s.toggleLink(ctx, trackLikeRelation, userID, trackID)
}

// CheckTrackLike reports whether the user has liked the track.
func (s *Store) CheckTrackLike(ctx context.Context, userID, trackID int64) (bool, error) {
	return s.checkLink(ctx, trackLikeRelation, userID, trackID)
}

// ClearTrackLikes removes all of the user's track likes.
func (s *Store) ClearTrackLikes(ctx context.Context, userID int64) (int64, error) {
	return s.clearLinks(ctx, trackLikeRelation, userID)
}

// ListTrackLikes returns the user's likes with the liked tracks embedded,
// newest like first.
func (s *Store) ListTrackLikes(ctx context.Context, userID int64, page Page) ([]*TrackLike, int64, error) {
	limit, offset := page.limitOffset()

	rows, err := s.db.QueryContext(ctx, `
		SELECT tl.id, tl.user_id, tl.track_id, tl.created_at,
			t.id, t.user_id, t.title, t.description, t.artist,
			COALESCE(t.audio_file, ''), COALESCE(t.cover_image, ''), t.genre, t.duration,
			(SELECT COUNT(*) FROM track_likes x WHERE x.track_id = t.id) AS likes_count,
			t.created_at, t.updated_at,
			COUNT(*) OVER() AS total
		FROM track_likes tl
		JOIN tracks t ON t.id = tl.track_id
		WHERE tl.user_id = $1
		ORDER BY tl.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("select track likes: %w", err)
	}
	defer rows.Close()

	var (
		likes []*TrackLike
		total int64
	)
	for rows.Next() {
		var like TrackLike
		if err := rows.Scan(
			&like.ID, &like.UserID, &like.TrackID, &like.CreatedAt,
			&like.Track.ID, &like.Track.UserID, &like.Track.Title, &like.Track.Description, &like.Track.Artist,
			&like.Track.AudioFile, &like.Track.CoverImage, &like.Track.Genre, &like.Track.Duration,
			&like.Track.LikesCount, &like.Track.CreatedAt, &like.Track.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan track like: %w", err)
		}
		like.Track.IsLiked = true
		likes = append(likes, &like)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate track likes: %w", err)
	}

	return likes, total, nil
}
