package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// User models a registered account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Nickname     string    `json:"nickname"`
	Bio          string    `json:"bio"`
	ProfileImage string    `json:"profile_image,omitempty"`
	IsActive     bool      `json:"is_active"`
	DateJoined   time.Time `json:"date_joined"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserWithPassword carries the stored credential alongside the profile.
type UserWithPassword struct {
	User
	PasswordHash string
}

// UserPatch describes a partial profile update. Nil fields are left untouched.
type UserPatch struct {
	Nickname     *string
	Bio          *string
	ProfileImage *string
}

// UserStats aggregates per-user counters for the statistics endpoint.
type UserStats struct {
	TotalPosts    int64 `json:"total_posts"`
	TotalLoops    int64 `json:"total_loops"`
	TotalTracks   int64 `json:"total_tracks"`
	TotalPlays    int64 `json:"total_plays"`
	LikesReceived int64 `json:"likes_received"`
}

// CreateUser registers a new user. Uniqueness of email and username is
// enforced by the database.
func (s *Store) CreateUser(ctx context.Context, email, username, nickname, passwordHash string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	var user User
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, username, nickname, password_hash, is_active, date_joined, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		RETURNING id, email, username, nickname, bio, COALESCE(profile_image, ''), is_active, date_joined, updated_at
	`, email, username, nickname, passwordHash, time.Now().UTC()).Scan(
		&user.ID, &user.Email, &user.Username, &user.Nickname, &user.Bio,
		&user.ProfileImage, &user.IsActive, &user.DateJoined, &user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "email") {
				return nil, ErrEmailExists
			}
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &user, nil
}

// UserByEmail fetches a user and credential hash for login.
func (s *Store) UserByEmail(ctx context.Context, email string) (*UserWithPassword, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user UserWithPassword
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, username, nickname, bio, COALESCE(profile_image, ''), is_active, date_joined, updated_at, password_hash
		FROM users
		WHERE email = $1
	`, email).Scan(
		&user.ID, &user.Email, &user.Username, &user.Nickname, &user.Bio,
		&user.ProfileImage, &user.IsActive, &user.DateJoined, &user.UpdatedAt,
		&user.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return &user, nil
}

// UserByID fetches a user profile.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, username, nickname, bio, COALESCE(profile_image, ''), is_active, date_joined, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&user.ID, &user.Email, &user.Username, &user.Nickname, &user.Bio,
		&user.ProfileImage, &user.IsActive, &user.DateJoined, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return &user, nil
}

// PasswordHashByID returns the stored credential hash for a password change.
func (s *Store) PasswordHashByID(ctx context.Context, id int64) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT password_hash FROM users WHERE id = $1
	`, id).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("lookup password hash: %w", err)
	}
	return hash, nil
}

// UpdateUser applies a partial profile update and returns the fresh profile.
func (s *Store) UpdateUser(ctx context.Context, id int64, patch UserPatch) (*User, error) {
	var (
		sets []string
		args []any
	)

	if patch.Nickname != nil {
		args = append(args, strings.TrimSpace(*patch.Nickname))
		sets = append(sets, fmt.Sprintf("nickname = $%d", len(args)))
	}
	if patch.Bio != nil {
		args = append(args, *patch.Bio)
		sets = append(sets, fmt.Sprintf("bio = $%d", len(args)))
	}
	if patch.ProfileImage != nil {
		args = append(args, nullIfEmpty(*patch.ProfileImage))
		sets = append(sets, fmt.Sprintf("profile_image = $%d", len(args)))
	}

	if len(sets) == 0 {
		return s.UserByID(ctx, id)
	}

	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING id, email, username, nickname, bio, COALESCE(profile_image, ''), is_active, date_joined, updated_at
	`, strings.Join(sets, ", "), len(args))

	var user User
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Email, &user.Username, &user.Nickname, &user.Bio,
		&user.ProfileImage, &user.IsActive, &user.DateJoined, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	return &user, nil
}

// UpdatePassword replaces the stored credential hash.
func (s *Store) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $1, updated_at = $2
		WHERE id = $3
	`, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
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

// UserStatistics aggregates the user's content counters in one round trip.
func (s *Store) UserStatistics(ctx context.Context, userID int64) (*UserStats, error) {
	var stats UserStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM posts WHERE user_id = $1),
			(SELECT COUNT(*) FROM music_loops WHERE user_id = $1),
			(SELECT COUNT(*) FROM tracks WHERE user_id = $1),
			(SELECT COALESCE(SUM(play_count), 0) FROM music_loops WHERE user_id = $1),
			(SELECT COUNT(*) FROM favorites f JOIN music_loops l ON l.id = f.loop_id WHERE l.user_id = $1)
			+ (SELECT COUNT(*) FROM track_likes tl JOIN tracks t ON t.id = tl.track_id WHERE t.user_id = $1)
	`, userID).Scan(
		&stats.TotalPosts, &stats.TotalLoops, &stats.TotalTracks,
		&stats.TotalPlays, &stats.LikesReceived,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate statistics: %w", err)
	}

	return &stats, nil
}
