// Package ingest validates and stores uploaded audio files.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/voicelog/backend/internal/storage"
)

// MaxFileSize is the upload ceiling (50 MiB).
const MaxFileSize = 50 * 1024 * 1024

// AllowedExtensions is the audio extension whitelist (lowercase, no dot).
var AllowedExtensions = map[string]bool{
	"mp3":  true,
	"wav":  true,
	"flac": true,
	"m4a":  true,
	"aac":  true,
	"ogg":  true,
	"webm": true,
}

var (
	ErrNoFile       = errors.New("no audio file provided")
	ErrBadExtension = fmt.Errorf("file type not allowed, supported formats: %s", allowedList())
	ErrTooLarge     = fmt.Errorf("file too large, maximum size: %dMB", MaxFileSize/(1024*1024))
)

func allowedList() string {
	exts := make([]string, 0, len(AllowedExtensions))
	for ext := range AllowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

// IsAllowedAudioFile checks the filename against the extension whitelist.
func IsAllowedAudioFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return ext != "" && AllowedExtensions[ext]
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename strips directory components and unsafe characters,
// collapsing whitespace runs to single underscores.
func SanitizeFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "audio"
	}
	return name
}

// UniqueFilename derives a collision-resistant stored name from the original,
// preserving the extension: <sanitized-stem>_<8 hex chars><ext>.
func UniqueFilename(filename string) string {
	safe := SanitizeFilename(filename)
	ext := filepath.Ext(safe)
	stem := strings.TrimSuffix(safe, ext)
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("%s_%s%s", stem, suffix, ext)
}

// SaveAudio validates an uploaded file and writes it to the store under a
// generated unique name. Rejections perform no write. The caller owns the
// stored file's lifecycle from here on.
func SaveAudio(ctx context.Context, file *multipart.FileHeader, store storage.Store) (string, error) {
	if file == nil || file.Filename == "" {
		return "", ErrNoFile
	}
	if !IsAllowedAudioFile(file.Filename) {
		return "", ErrBadExtension
	}
	if file.Size > MaxFileSize {
		return "", ErrTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return "", ErrTooLarge
	}

	filename := UniqueFilename(file.Filename)
	contentType := storage.ContentTypeFor(filepath.Ext(filename))
	if err := store.Save(ctx, filename, data, contentType); err != nil {
		return "", fmt.Errorf("failed to store audio file: %w", err)
	}

	return filename, nil
}
