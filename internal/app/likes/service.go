package likes

import (
	"context"

	"loopyard/internal/store"
)

// Store defines persistence operations required for track like workflows.
type Store interface {
	ToggleTrackLike(ctx context.Context, userID, trackID int64) (bool, error)
	CheckTrackLike(ctx context.Context, userID, trackID int64) (bool, error)
	ClearTrackLikes(ctx context.Context, userID int64) (int64, error)
	ListTrackLikes(ctx context.Context, userID int64, page store.Page) ([]*store.TrackLike, int64, error)
}

// Service handles like workflows on tracks.
type Service struct {
	store Store
}

// New constructs a likes Service backed by the given store.
func New(st Store) *Service {
	return &Service{store: st}
}

// Toggle flips the user's like on a track. Returns true when the like was
// created, false when it was removed.
func (s *Service) Toggle(ctx context.Context, userID, trackID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.store.ToggleTrackLike(ctx, userID, trackID)
}

// Check reports whether the user has liked the track.
func (s *Service) Check(ctx context.Context, userID, trackID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.store.CheckTrackLike(ctx, userID, trackID)
}

// Clear removes all of the user's track likes and returns the exact count.
func (s *Service) Clear(ctx context.Context, userID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.store.ClearTrackLikes(ctx, userID)
}

// List returns the user's track likes, newest first.
func (s *Service) List(ctx context.Context, userID int64, page store.Page) ([]*store.TrackLike, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return s.store.ListTrackLikes(ctx, userID, page)
}
