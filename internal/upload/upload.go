// Package upload validates and stores user-supplied attachments. Validation
// happens before any bytes are written or any database row is created.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	// MaxAudioBytes is the upper bound for audio attachments (50 MB).
	MaxAudioBytes = 50 << 20
	// MaxImageBytes is the upper bound for image attachments (5 MB).
	MaxImageBytes = 5 << 20
)

var (
	audioExtensions = map[string]bool{
		".mp3": true, ".wav": true, ".ogg": true, ".m4a": true, ".flac": true,
	}
	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	}
)

// ValidationError reports an out-of-envelope attachment.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// File is one attachment taken from a multipart request.
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Kind distinguishes the storage buckets attachments land in.
type Kind string

const (
	KindLoopAudio      Kind = "loops"
	KindLoopThumbnail  Kind = "thumbnails"
	KindTrackAudio     Kind = "tracks"
	KindTrackCover     Kind = "covers"
	KindPostAudio      Kind = "audio"
	KindPostImage      Kind = "images"
	KindProfileImage   Kind = "profiles"
)

// Store persists validated attachment bytes and returns a reference path.
type Store interface {
	Save(ctx context.Context, kind Kind, name string, r io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
}

// ValidateAudio checks an audio attachment against the size and extension
// envelope. The field name is carried into the error for per-field reporting.
func ValidateAudio(field string, f *File) error {
	if f == nil {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	if !audioExtensions[ext] {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("unsupported audio format %q (allowed: .mp3, .wav, .ogg, .m4a, .flac)", ext)}
	}
	if f.Size > MaxAudioBytes {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("audio file exceeds the %d MB limit", MaxAudioBytes>>20)}
	}
	return nil
}

// ValidateImage checks an image attachment against the size and extension
// envelope.
func ValidateImage(field string, f *File) error {
	if f == nil {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	if !imageExtensions[ext] {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("unsupported image format %q (allowed: .jpg, .jpeg, .png, .gif, .webp)", ext)}
	}
	if f.Size > MaxImageBytes {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("image file exceeds the %d MB limit", MaxImageBytes>>20)}
	}
	return nil
}

// AsValidationError unwraps err into a ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
