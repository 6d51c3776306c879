package tracks

import (
	"context"
	"fmt"

	"loopyard/internal/store"
	"loopyard/internal/upload"
	"loopyard/internal/validate"
)

// Store defines persistence operations required for track workflows.
type Store interface {
	CreateTrack(ctx context.Context, userID int64, track store.Track) (*store.Track, error)
	ListTracks(ctx context.Context, userID int64, filter store.TrackFilter, page store.Page) ([]*store.Track, int64, error)
	BrowseTracks(ctx context.Context, viewerID int64, filter store.TrackFilter, page store.Page) ([]*store.Track, int64, error)
	GetTrack(ctx context.Context, userID, id int64) (*store.Track, error)
	UpdateTrack(ctx context.Context, userID, id int64, patch store.TrackPatch) (*store.Track, error)
	DeleteTrack(ctx context.Context, userID, id int64) error
}

// Service handles track workflows.
type Service struct {
	store       Store
	attachments upload.Store
}

// New constructs a tracks Service.
func New(st Store, attachments upload.Store) *Service {
	return &Service{store: st, attachments: attachments}
}

// CreateInput carries a track creation request.
type CreateInput struct {
	Title       string       `json:"title" validate:"required,max=200"`
	Description string       `json:"description"`
	Artist      string       `json:"artist" validate:"max=100"`
	Genre       string       `json:"genre" validate:"max=50"`
	Duration    *float64     `json:"duration" validate:"omitempty,gte=0"`
	Audio       *upload.File `json:"-"`
	Cover       *upload.File `json:"-"`
}

// Create validates the request, stores attachments, and inserts the track.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*store.Track, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := upload.ValidateAudio("audio_file", in.Audio); err != nil {
		return nil, err
	}
	if err := upload.ValidateImage("cover_image", in.Cover); err != nil {
		return nil, err
	}

	track := store.Track{
		Title:       in.Title,
		Description: in.Description,
		Artist:      in.Artist,
		Genre:       in.Genre,
		Duration:    in.Duration,
	}

	if in.Audio != nil {
		path, err := s.attachments.Save(ctx, upload.KindTrackAudio, in.Audio.Name, in.Audio.Reader)
		if err != nil {
			return nil, fmt.Errorf("store audio: %w", err)
		}
		track.AudioFile = path
	}
	if in.Cover != nil {
		path, err := s.attachments.Save(ctx, upload.KindTrackCover, in.Cover.Name, in.Cover.Reader)
		if err != nil {
			return nil, fmt.Errorf("store cover: %w", err)
		}
		track.CoverImage = path
	}

	return s.store.CreateTrack(ctx, userID, track)
}

// UpdateInput carries a partial track update.
type UpdateInput struct {
	Title       *string      `json:"title" validate:"omitempty,max=200"`
	Description *string      `json:"description"`
	Artist      *string      `json:"artist" validate:"omitempty,max=100"`
	Genre       *string      `json:"genre" validate:"omitempty,max=50"`
	Duration    *float64     `json:"duration" validate:"omitempty,gte=0"`
	Audio       *upload.File `json:"-"`
	Cover       *upload.File `json:"-"`
}

// Update validates and applies a partial update to one of the user's tracks.
func (s *Service) Update(ctx context.Context, userID, id int64, in UpdateInput) (*store.Track, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Title != nil && *in.Title == "" {
		return nil, validate.Field("title", "this field is required")
	}
	if err := upload.ValidateAudio("audio_file", in.Audio); err != nil {
		return nil, err
	}
	if err := upload.ValidateImage("cover_image", in.Cover); err != nil {
		return nil, err
	}

	patch := store.TrackPatch{
		Title:       in.Title,
		Description: in.Description,
		Artist:      in.Artist,
		Genre:       in.Genre,
		Duration:    in.Duration,
	}

	if in.Audio != nil {
		path, err := s.attachments.Save(ctx, upload.KindTrackAudio, in.Audio.Name, in.Audio.Reader)
		if err != nil {
			return nil, fmt.Errorf("store audio: %w", err)
		}
		patch.AudioFile = &path
	}
	if in.Cover != nil {
		path, err := s.attachments.Save(ctx, upload.KindTrackCover, in.Cover.Name, in.Cover.Reader)
		if err != nil {
			return nil, fmt.Errorf("store cover: %w", err)
		}
		patch.CoverImage = &path
	}

	return s.store.UpdateTrack(ctx, userID, id, patch)
}

// List returns the user's own tracks.
func (s *Service) List(ctx context.Context, userID int64, filter store.TrackFilter, page store.Page) ([]*store.Track, int64, error) {
	return s.store.ListTracks(ctx, userID, filter, page)
}

// Browse returns every user's tracks for discovery.
func (s *Service) Browse(ctx context.Context, viewerID int64, filter store.TrackFilter, page store.Page) ([]*store.Track, int64, error) {
	return s.store.BrowseTracks(ctx, viewerID, filter, page)
}

// Get returns one of the user's own tracks.
func (s *Service) Get(ctx context.Context, userID, id int64) (*store.Track, error) {
	return s.store.GetTrack(ctx, userID, id)
}

// Delete removes one of the user's own tracks.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteTrack(ctx, userID, id)
}
