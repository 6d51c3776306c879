package posts

import (
	"context"
	"fmt"

	"loopyard/internal/store"
	"loopyard/internal/upload"
	"loopyard/internal/validate"
)

// Store defines persistence operations required for post workflows.
type Store interface {
	CreatePost(ctx context.Context, userID int64, post store.Post) (*store.Post, error)
	ListPosts(ctx context.Context, userID int64, filter store.PostFilter, page store.Page) ([]*store.Post, int64, error)
	BrowsePosts(ctx context.Context, filter store.PostFilter, page store.Page) ([]*store.Post, int64, error)
	GetPost(ctx context.Context, userID, id int64) (*store.Post, error)
	UpdatePost(ctx context.Context, userID, id int64, patch store.PostPatch) (*store.Post, error)
	DeletePost(ctx context.Context, userID, id int64) error
}

// Service handles post workflows.
type Service struct {
	store       Store
	attachments upload.Store
}

// New constructs a posts Service.
func New(st Store, attachments upload.Store) *Service {
	return &Service{store: st, attachments: attachments}
}

// CreateInput carries a post creation request.
type CreateInput struct {
	Title   string       `json:"title" validate:"required,max=255"`
	Content string       `json:"content" validate:"required"`
	Audio   *upload.File `json:"-"`
	Image   *upload.File `json:"-"`
}

// Create validates the request, stores attachments, and inserts the post.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*store.Post, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := upload.ValidateAudio("audio_file", in.Audio); err != nil {
		return nil, err
	}
	if err := upload.ValidateImage("image", in.Image); err != nil {
		return nil, err
	}

	post := store.Post{Title: in.Title, Content: in.Content}

	if in.Audio != nil {
		path, err := s.attachments.Save(ctx, upload.KindPostAudio, in.Audio.Name, in.Audio.Reader)
		if err != nil {
			return nil, fmt.Errorf("store audio: %w", err)
		}
		post.AudioFile = path
	}
	if in.Image != nil {
		path, err := s.attachments.Save(ctx, upload.KindPostImage, in.Image.Name, in.Image.Reader)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		post.Image = path
	}

	return s.store.CreatePost(ctx, userID, post)
}

// UpdateInput carries a partial post update.
type UpdateInput struct {
	Title   *string      `json:"title" validate:"omitempty,max=255"`
	Content *string      `json:"content"`
	Audio   *upload.File `json:"-"`
	Image   *upload.File `json:"-"`
}

// Update validates and applies a partial update to one of the user's posts.
func (s *Service) Update(ctx context.Context, userID, id int64, in UpdateInput) (*store.Post, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Title != nil && *in.Title == "" {
		return nil, validate.Field("title", "this field is required")
	}
	if in.Content != nil && *in.Content == "" {
		return nil, validate.Field("content", "this field is required")
	}
	if err := upload.ValidateAudio("audio_file", in.Audio); err != nil {
		return nil, err
	}
	if err := upload.ValidateImage("image", in.Image); err != nil {
		return nil, err
	}

	patch := store.PostPatch{Title: in.Title, Content: in.Content}

	if in.Audio != nil {
		path, err := s.attachments.Save(ctx, upload.KindPostAudio, in.Audio.Name, in.Audio.Reader)
		if err != nil {
			return nil, fmt.Errorf("store audio: %w", err)
		}
		patch.AudioFile = &path
	}
	if in.Image != nil {
		path, err := s.attachments.Save(ctx, upload.KindPostImage, in.Image.Name, in.Image.Reader)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		patch.Image = &path
	}

	return s.store.UpdatePost(ctx, userID, id, patch)
}

// List returns the user's own posts.
func (s *Service) List(ctx context.Context, userID int64, filter store.PostFilter, page store.Page) ([]*store.Post, int64, error) {
	return s.store.ListPosts(ctx, userID, filter, page)
}

// Browse returns every user's posts.
func (s *Service) Browse(ctx context.Context, filter store.PostFilter, page store.Page) ([]*store.Post, int64, error) {
	return s.store.BrowsePosts(ctx, filter, page)
}

// Get returns one of the user's own posts.
func (s *Service) Get(ctx context.Context, userID, id int64) (*store.Post, error) {
	return s.store.GetPost(ctx, userID, id)
}

// Delete removes one of the user's own posts.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeletePost(ctx, userID, id)
}
