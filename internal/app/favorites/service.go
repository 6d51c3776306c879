package favorites

import (
	"context"

	"loopyard/internal/store"
)

// Store defines persistence operations required for favorite workflows.
type Store interface {
	ToggleFavorite(ctx context.Context, userID, loopID int64) (bool, error)
	CheckFavorite(ctx context.Context, userID, loopID int64) (bool, error)
	ClearFavorites(ctx context.Context, userID int64) (int64, error)
	ListFavorites(ctx context.Context, userID int64, page store.Page) ([]*store.Favorite, int64, error)
}

// Service handles favorite workflows on music loops.
type Service struct {
	store Store
}

// New constructs a favorites Service backed by the given store.
func New(st Store) *Service {
	return &Service{store: st}
}

// Toggle flips the user's favorite on a loop. Returns true when the favorite
// was created, false when it was removed.
func (s *Service) Toggle(ctx context.Context, userID, loopID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.store.ToggleFavorite(ctx, userID, loopID)
}

// Check reports whether the user has favorited the loop.
func (s *Service) Check(ctx context.Context, userID, loopID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.store.CheckFavorite(ctx, userID, loopID)
}

// Clear removes all of the user's favorites and returns the exact count.
func (s *Service) Clear(ctx context.Context, userID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.store.ClearFavorites(ctx, userID)
}

// List returns the user's favorites, newest first.
func (s *Service) List(ctx context.Context, userID int64, page store.Page) ([]*store.Favorite, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.ListFavorites(ctx, userID, page)
}
