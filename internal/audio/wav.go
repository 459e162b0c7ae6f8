package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// wavDuration reads frame count and sample rate straight from the WAV
// container headers. Used when ffprobe is unavailable or fails.
func wavDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return 0, errors.New("not a valid WAV file")
	}

	d, err := decoder.Duration()
	if err != nil {
		return 0, fmt.Errorf("failed to read WAV duration: %w", err)
	}

	return d.Seconds(), nil
}
