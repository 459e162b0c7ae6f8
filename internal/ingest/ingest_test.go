package ingest

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicelog/backend/internal/storage"
)

func TestIsAllowedAudioFile(t *testing.T) {
	testCases := []struct {
		filename string
		expected bool
	}{
		{"note.mp3", true},
		{"note.wav", true},
		{"note.flac", true},
		{"note.m4a", true},
		{"note.aac", true},
		{"note.ogg", true},
		{"note.webm", true},
		{"note.MP3", true},
		{"note.txt", false},
		{"note.exe", false},
		{"note", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsAllowedAudioFile(tc.filename))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"my recording.wav", "my_recording.wav"},
		{"../../etc/passwd", "passwd"},
		{"résumé notes.mp3", "rsum_notes.mp3"},
		{"a  b   c.ogg", "a_b_c.ogg"},
		{"///", "audio"},
		{"...", "audio"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeFilename(tc.input))
		})
	}
}

func TestUniqueFilename(t *testing.T) {
	name := UniqueFilename("memo.wav")
	assert.Regexp(t, regexp.MustCompile(`^memo_[0-9a-f]{8}\.wav$`), name)

	// Two calls never collide.
	assert.NotEqual(t, UniqueFilename("memo.wav"), UniqueFilename("memo.wav"))
}

// fileHeader builds a real multipart.FileHeader the way gin would hand it to
// the handler.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(64<<20))

	return req.MultipartForm.File["audio"][0]
}

func newTestStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveAudio(t *testing.T) {
	store := newTestStore(t)

	name, err := SaveAudio(context.Background(), fileHeader(t, "memo.wav", []byte("RIFF fake wav")), store)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^memo_[0-9a-f]{8}\.wav$`), name)

	path, ok := store.LocalPath(name)
	require.True(t, ok)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF fake wav"), data)
}

func TestSaveAudioRejectsBadExtension(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewLocalStore(root)
	require.NoError(t, err)

	_, err = SaveAudio(context.Background(), fileHeader(t, "notes.txt", []byte("text")), store)
	assert.ErrorIs(t, err, ErrBadExtension)

	// Rejection writes nothing.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, e.IsDir(), "unexpected file %s written on rejection", e.Name())
	}
}

func TestSaveAudioRejectsMissingFile(t *testing.T) {
	store := newTestStore(t)

	_, err := SaveAudio(context.Background(), nil, store)
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = SaveAudio(context.Background(), &multipart.FileHeader{Filename: ""}, store)
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestSaveAudioRejectsOversizedFile(t *testing.T) {
	store := newTestStore(t)

	header := fileHeader(t, "big.mp3", []byte("tiny"))
	header.Size = MaxFileSize + 1

	_, err := SaveAudio(context.Background(), header, store)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSaveAudioSanitizesTraversal(t *testing.T) {
	store := newTestStore(t)

	name, err := SaveAudio(context.Background(), fileHeader(t, "../../escape.mp3", []byte("data")), store)
	require.NoError(t, err)
	assert.NotContains(t, name, "..")
	assert.Equal(t, name, filepath.Base(name))
}
