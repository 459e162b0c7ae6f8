// Package enrich generates transcripts, titles, and summaries for voice
// posts through one of two interchangeable external AI providers.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/voicelog/backend/internal/config"
	"github.com/voicelog/backend/internal/logger"
	"github.com/voicelog/backend/internal/metrics"
	"go.uber.org/zap"
)

// ErrNoProvider is returned when no AI credential is configured. Callers
// treat transcript/summary/title as absent, not fatal.
var ErrNoProvider = errors.New("no AI provider configured")

const (
	// transcribeTimeout bounds a single transcription call.
	transcribeTimeout = 120 * time.Second
	// completeTimeout bounds a single text-generation call.
	completeTimeout = 60 * time.Second

	// Transcripts shorter than these short-circuit without a provider call.
	minTranscriptForTitle   = 20
	minTranscriptForSummary = 50

	// Fixed results for the short-circuits and failures.
	fallbackTitle      = "Voice Note"
	shortNoteTitle     = "Quick Voice Note"
	shortNoteSummary   = "Brief voice note"
	summaryFallbackLen = 200
)

// Client runs enrichment operations against the provider selected once at
// construction: Gemini credential first, then OpenAI, else disabled.
type Client struct {
	provider       Provider
	titleMaxLength int
}

// NewClient selects the provider from configuration. A client with no
// credential is valid; its calls return ErrNoProvider.
func NewClient(cfg *config.Config) *Client {
	c := &Client{titleMaxLength: cfg.TitleMaxLength}
	if c.titleMaxLength <= 0 {
		c.titleMaxLength = 60
	}

	switch {
	case cfg.GeminiAPIKey != "":
		c.provider = NewGeminiProvider(cfg.GeminiAPIKey)
	case cfg.OpenAIAPIKey != "":
		c.provider = NewOpenAIProvider(cfg.OpenAIAPIKey)
	}

	return c
}

// NewClientWithProvider wires an explicit provider. Used by tests.
func NewClientWithProvider(p Provider, titleMaxLength int) *Client {
	if titleMaxLength <= 0 {
		titleMaxLength = 60
	}
	return &Client{provider: p, titleMaxLength: titleMaxLength}
}

// Enabled reports whether any provider is configured.
func (c *Client) Enabled() bool {
	return c.provider != nil
}

// ProviderName returns the active provider's name, or "" when disabled.
func (c *Client) ProviderName() string {
	if c.provider == nil {
		return ""
	}
	return c.provider.Name()
}

// Transcribe produces a transcript for the audio file. The HTTP-JSON
// provider returns flat text, which is re-segmented into HTML paragraphs.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if c.provider == nil {
		return "", ErrNoProvider
	}

	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	started := time.Now()
	transcript, err := c.provider.Transcribe(ctx, audioPath)
	metrics.ObserveEnrichmentCall(c.provider.Name(), "transcribe", time.Since(started), err)
	if err != nil {
		return "", err
	}

	if c.provider.Name() == ProviderGemini {
		transcript = FormatTranscriptHTML(transcript)
	}

	return transcript, nil
}

// GenerateTitle produces a title for the transcript. Very short transcripts
// short-circuit to a generic title without calling the provider.
func (c *Client) GenerateTitle(ctx context.Context, transcript string, style StyleContext) (string, error) {
	if c.provider == nil {
		return "", ErrNoProvider
	}

	if len(strings.TrimSpace(transcript)) < minTranscriptForTitle {
		return shortNoteTitle, nil
	}

	ctx, cancel := context.WithTimeout(ctx, completeTimeout)
	defer cancel()

	started := time.Now()
	raw, err := c.provider.Complete(ctx, titlePrompt(transcript, c.titleMaxLength, style))
	metrics.ObserveEnrichmentCall(c.provider.Name(), "title", time.Since(started), err)
	if err != nil {
		return "", err
	}

	title := CleanTitle(raw, c.titleMaxLength)
	if title == "" {
		title = fallbackTitle
	}
	return title, nil
}

// GenerateSummary produces a summary for the transcript. The prompt template
// is selected by transcript word count.
func (c *Client) GenerateSummary(ctx context.Context, transcript string, style StyleContext) (string, error) {
	if c.provider == nil {
		return "", ErrNoProvider
	}

	if len(strings.TrimSpace(transcript)) < minTranscriptForSummary {
		return shortNoteSummary, nil
	}

	prompt := longSummaryPrompt(transcript, style)
	if WordCount(transcript) < summaryWordThreshold {
		prompt = shortSummaryPrompt(transcript, style)
	}

	ctx, cancel := context.WithTimeout(ctx, completeTimeout)
	defer cancel()

	started := time.Now()
	summary, err := c.provider.Complete(ctx, prompt)
	metrics.ObserveEnrichmentCall(c.provider.Name(), "summary", time.Since(started), err)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(summary), nil
}

// Enrichment is the output of the composite Process operation.
type Enrichment struct {
	Transcript string
	Title      string
	Summary    string
}

// Process runs transcribe, then title, then summary. A transcription failure
// aborts the composite with its error; title or summary failures downgrade to
// local fallbacks (filename-derived title, transcript-prefix summary).
func (c *Client) Process(ctx context.Context, audioPath, originalFilename string, style StyleContext) (*Enrichment, error) {
	if c.provider == nil {
		return nil, ErrNoProvider
	}

	transcript, err := c.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	title, err := c.GenerateTitle(ctx, transcript, style)
	if err != nil {
		title = TitleFromFilename(originalFilename)
		logger.Log.Warn("title generation failed, using filename fallback",
			zap.String("provider", c.provider.Name()),
			zap.Error(err),
		)
	}

	summary, err := c.GenerateSummary(ctx, transcript, style)
	if err != nil {
		summary = Truncate(transcript, summaryFallbackLen)
		logger.Log.Warn("summary generation failed, using transcript prefix",
			zap.String("provider", c.provider.Name()),
			zap.Error(err),
		)
	}

	return &Enrichment{
		Transcript: transcript,
		Title:      title,
		Summary:    summary,
	}, nil
}

// TitleFromFilename derives the local fallback title from the uploaded
// file's name.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(title))
	if title == "" {
		return fallbackTitle
	}
	return title
}
