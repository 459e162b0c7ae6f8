// Package audio wraps the external ffmpeg/ffprobe binaries for duration
// probing and web-format transcoding. The tools being absent degrades
// features but never fails post creation.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ConvertTimeout bounds a single transcode run.
const ConvertTimeout = 5 * time.Minute

// probeTimeout bounds a metadata-only ffprobe run.
const probeTimeout = 30 * time.Second

// ErrDurationUnknown is returned when neither ffprobe nor the WAV header
// fallback could determine a duration.
var ErrDurationUnknown = errors.New("audio duration unknown")

// Duration returns the audio duration in seconds. It probes with ffprobe
// first and falls back to reading WAV container headers directly. When both
// fail the duration is absent, not zero.
func Duration(ctx context.Context, path string) (float64, error) {
	if d, err := probeDuration(ctx, path); err == nil {
		return d, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if d, err := wavDuration(path); err == nil {
			return d, nil
		}
	}

	return 0, ErrDurationUnknown
}

// probeDuration invokes ffprobe in metadata-only mode and parses a single
// floating-point seconds value from its output.
func probeDuration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return 0, errors.New("ffprobe returned no duration")
	}

	duration, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable ffprobe duration %q: %w", out, err)
	}

	return duration, nil
}

// ConvertedFilename returns the transcoded name for an original:
// <stem>_converted.mp3.
func ConvertedFilename(originalFilename string) string {
	stem := strings.TrimSuffix(originalFilename, filepath.Ext(originalFilename))
	return stem + "_converted.mp3"
}

// ConvertToMP3 transcodes a non-MP3 file to MP3 at a fixed web-playback
// profile (192 kbps, 44.1 kHz, stereo) and writes it to outputPath. Files
// already in MP3 are skipped, reported by the false return. Conversion
// failure is classified and left to the caller; post creation continues with
// the original file.
func ConvertToMP3(ctx context.Context, inputPath, outputPath string) (bool, error) {
	if strings.EqualFold(filepath.Ext(inputPath), ".mp3") {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, ConvertTimeout)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return false, fmt.Errorf("failed to create output directory: %w", err)
	}

	args := []string{
		"-i", inputPath,
		"-codec:a", "libmp3lame",
		"-b:a", "192k",
		"-ar", "44100",
		"-ac", "2",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		if ctx.Err() == context.DeadlineExceeded {
			return false, fmt.Errorf("conversion timed out after %s", ConvertTimeout)
		}
		return false, fmt.Errorf("ffmpeg conversion failed: %v, stderr: %s", err, stderr.String())
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return false, fmt.Errorf("conversion produced no output file: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(outputPath)
		return false, errors.New("conversion produced an empty output file")
	}

	return true, nil
}

// CheckFFmpegAvailable verifies ffmpeg and ffprobe are on PATH.
func CheckFFmpegAvailable() error {
	if err := exec.Command("ffmpeg", "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found on PATH: %w", err)
	}
	if err := exec.Command("ffprobe", "-version").Run(); err != nil {
		return fmt.Errorf("ffprobe not found on PATH: %w", err)
	}
	return nil
}
