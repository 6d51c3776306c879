package upload

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAudioAccepted(t *testing.T) {
	for _, name := range []string{"beat.mp3", "take.WAV", "pad.ogg", "vox.m4a", "mix.flac"} {
		err := ValidateAudio("audio_file", &File{Name: name, Size: MaxAudioBytes})
		assert.NoError(t, err, name)
	}
}

func TestValidateAudioRejectsFormat(t *testing.T) {
	err := ValidateAudio("audio_file", &File{Name: "beat.aiff", Size: 1024})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "audio_file", ve.Field)
	assert.Contains(t, ve.Reason, "unsupported audio format")
}

func TestValidateAudioRejectsOversize(t *testing.T) {
	err := ValidateAudio("audio_file", &File{Name: "beat.mp3", Size: MaxAudioBytes + 1})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Reason, "50 MB")
}

func TestValidateImageAccepted(t *testing.T) {
	for _, name := range []string{"cover.jpg", "cover.jpeg", "cover.PNG", "cover.gif", "cover.webp"} {
		err := ValidateImage("cover_image", &File{Name: name, Size: MaxImageBytes})
		assert.NoError(t, err, name)
	}
}

func TestValidateImageRejectsOversize(t *testing.T) {
	err := ValidateImage("cover_image", &File{Name: "cover.png", Size: MaxImageBytes + 1})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Reason, "5 MB")
}

func TestValidateNilFileIsFine(t *testing.T) {
	assert.NoError(t, ValidateAudio("audio_file", nil))
	assert.NoError(t, ValidateImage("image", nil))
}

func TestDiskStoreSaveAndRemove(t *testing.T) {
	root := t.TempDir()
	st := NewDiskStore(root)

	path, err := st.Save(context.Background(), KindLoopAudio, "groove.mp3", strings.NewReader("audio bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "loops/"))
	assert.True(t, strings.HasSuffix(path, ".mp3"))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	require.NoError(t, err)
	assert.Equal(t, "audio bytes", string(data))

	require.NoError(t, st.Remove(context.Background(), path))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(path)))
	assert.True(t, os.IsNotExist(err))

	// Removing twice is not an error.
	assert.NoError(t, st.Remove(context.Background(), path))
}
