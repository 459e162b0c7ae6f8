package storage

import "context"

// ConvertedDir is the subdirectory (or key prefix) holding transcoded MP3s.
const ConvertedDir = "converted"

// Store abstracts where audio and header-image files live. Keys are relative
// paths like "memo_a1b2c3d4.wav" or "converted/memo_a1b2c3d4_converted.mp3".
type Store interface {
	// Save writes data under key, overwriting any existing object.
	Save(ctx context.Context, key string, data []byte, contentType string) error

	// Remove deletes the object. A missing object is success, not error.
	Remove(ctx context.Context, key string) error

	// Exists reports whether the object is present.
	Exists(ctx context.Context, key string) (bool, error)

	// LocalPath returns an on-disk path for the key when the backend is
	// filesystem-backed, or "" and false when it is not.
	LocalPath(key string) (string, bool)

	// URL returns a client-reachable URL for remote backends, or "" for
	// backends served through the API process.
	URL(key string) string
}
