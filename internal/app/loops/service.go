package loops

import (
	"context"
	"fmt"

	"loopyard/internal/store"
	"loopyard/internal/upload"
	"loopyard/internal/validate"
)

// Store defines persistence operations required for loop workflows.
type Store interface {
	CreateLoop(ctx context.Context, userID int64, loop store.MusicLoop) (*store.MusicLoop, error)
	ListLoops(ctx context.Context, userID int64, filter store.LoopFilter, page store.Page) ([]*store.MusicLoop, int64, error)
	BrowseLoops(ctx context.Context, filter store.LoopFilter, page store.Page) ([]*store.MusicLoop, int64, error)
	GetLoop(ctx context.Context, userID, id int64) (*store.MusicLoop, error)
	UpdateLoop(ctx context.Context, userID, id int64, patch store.LoopPatch) (*store.MusicLoop, error)
	DeleteLoop(ctx context.Context, userID, id int64) error
	IncrementPlayCount(ctx context.Context, userID, id int64) (int64, error)
}

// Service handles music loop workflows. Every operation takes the acting
// user explicitly; nothing is resolved from ambient state.
type Service struct {
	store       Store
	attachments upload.Store
}

// New constructs a loops Service.
func New(st Store, attachments upload.Store) *Service {
	return &Service{store: st, attachments: attachments}
}

// CreateInput carries a loop creation request.
type CreateInput struct {
	Title       string       `json:"title" validate:"required,max=200"`
	Description string       `json:"description"`
	BPM         *int         `json:"bpm" validate:"omitempty,gte=1,lte=300"`
	Duration    *float64     `json:"duration" validate:"omitempty,gte=0"`
	Genre       string       `json:"genre" validate:"max=50"`
	Tags        []string     `json:"tags"`
	IsPublic    *bool        `json:"is_public"`
	Audio       *upload.File `json:"-"`
	Thumbnail   *upload.File `json:"-"`
}

// Create validates the request, stores any attachments, and inserts the loop
// with the acting user stamped as owner.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*store.MusicLoop, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := upload.ValidateAudio("audio_file", in.Audio); err != nil {
		return nil, err
	}
	if err := upload.ValidateImage("thumbnail", in.Thumbnail); err != nil {
		return nil, err
	}

	loop := store.MusicLoop{
		Title:       in.Title,
		Description: in.Description,
		BPM:         in.BPM,
		Duration:    in.Duration,
		Genre:       in.Genre,
		Tags:        in.Tags,
		IsPublic:    true,
	}
	if in.IsPublic != nil {
		loop.IsPublic = *in.IsPublic
	}

	if in.Audio != nil {
		path, err := s.attachments.Save(ctx, upload.KindLoopAudio, in.Audio.Name, in.Audio.Reader)
		if err != nil {
			return nil, fmt.Errorf("store audio: %w", err)
		}
		loop.AudioFile = path
	}
	if in.Thumbnail != nil {
		path, err := s.attachments.Save(ctx, upload.KindLoopThumbnail, in.Thumbnail.Name, in.Thumbnail.Reader)
		if err != nil {
			return nil, fmt.Errorf("store thumbnail: %w", err)
		}
		loop.Thumbnail = path
	}

	return s.store.CreateLoop(ctx, userID, loop)
}

// UpdateInput carries a partial loop update.
type UpdateInput struct {
	Title       *string      `json:"title" validate:"omitempty,max=200"`
	Description *string      `json:"description"`
	BPM         *int         `json:"bpm" validate:"omitempty,gte=1,lte=300"`
	Duration    *float64     `json:"duration" validate:"omitempty,gte=0"`
	Genre       *string      `json:"genre" validate:"omitempty,max=50"`
	Tags        *[]string    `json:"tags"`
	IsPublic    *bool        `json:"is_public"`
	Audio       *upload.File `json:"-"`
	Thumbnail   *upload.File `json:"-"`
}

// Update validates and applies a partial update to one of the user's loops.
func (s *Service) Update(ctx context.Context, userID, id int64, in UpdateInput) (*store.MusicLoop, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Title != nil && *in.Title == "" {
		return nil, validate.Field("title", "this field is required")
	}
	if err := upload.ValidateAudio("audio_file", in.Audio); err != nil {
		return nil, err
	}
	if err := upload.ValidateImage("thumbnail", in.Thumbnail); err != nil {
		return nil, err
	}

	patch := store.LoopPatch{
		Title:       in.Title,
		Description: in.Description,
		BPM:         in.BPM,
		Duration:    in.Duration,
		Genre:       in.Genre,
		Tags:        in.Tags,
		IsPublic:    in.IsPublic,
	}

	if in.Audio != nil {
		path, err := s.attachments.Save(ctx, upload.KindLoopAudio, in.Audio.Name, in.Audio.Reader)
		if err != nil {
			return nil, fmt.Errorf("store audio: %w", err)
		}
		patch.AudioFile = &path
	}
	if in.Thumbnail != nil {
		path, err := s.attachments.Save(ctx, upload.KindLoopThumbnail, in.Thumbnail.Name, in.Thumbnail.Reader)
		if err != nil {
			return nil, fmt.Errorf("store thumbnail: %w", err)
		}
		patch.Thumbnail = &path
	}

	return s.store.UpdateLoop(ctx, userID, id, patch)
}

// List returns the user's own loops.
func (s *Service) List(ctx context.Context, userID int64, filter store.LoopFilter, page store.Page) ([]*store.MusicLoop, int64, error) {
	return s.store.ListLoops(ctx, userID, filter, page)
}

// Browse returns public loops from every user.
func (s *Service) Browse(ctx context.Context, filter store.LoopFilter, page store.Page) ([]*store.MusicLoop, int64, error) {
	return s.store.BrowseLoops(ctx, filter, page)
}

// Get returns one of the user's own loops.
func (s *Service) Get(ctx context.Context, userID, id int64) (*store.MusicLoop, error) {
	return s.store.GetLoop(ctx, userID, id)
}

// Delete removes one of the user's own loops.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteLoop(ctx, userID, id)
}

// Play records a playback of a public loop and returns the new count.
func (s *Service) Play(ctx context.Context, userID, id int64) (int64, error) {
	return s.store.IncrementPlayCount(ctx, userID, id)
}
