package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider records calls and returns canned results per operation.
type fakeProvider struct {
	name           string
	transcript     string
	completion     string
	transcribeErr  error
	completeErr    error
	prompts        []string
	transcribeHits int
}

func (p *fakeProvider) Name() string {
	if p.name == "" {
		return "fake"
	}
	return p.name
}

func (p *fakeProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	p.transcribeHits++
	return p.transcript, p.transcribeErr
}

func (p *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	return p.completion, p.completeErr
}

const longTranscript = "I walked down to the harbor this morning and watched the boats " +
	"come in while drinking coffee from the stand on the corner. The fishermen were " +
	"unloading crates and arguing about the weather."

func TestClientDisabledWithoutProvider(t *testing.T) {
	c := NewClientWithProvider(nil, 60)
	assert.False(t, c.Enabled())
	assert.Empty(t, c.ProviderName())

	_, err := c.Transcribe(context.Background(), "x.mp3")
	assert.ErrorIs(t, err, ErrNoProvider)
	_, err = c.GenerateTitle(context.Background(), longTranscript, StyleContext{})
	assert.ErrorIs(t, err, ErrNoProvider)
	_, err = c.GenerateSummary(context.Background(), longTranscript, StyleContext{})
	assert.ErrorIs(t, err, ErrNoProvider)
	_, err = c.Process(context.Background(), "x.mp3", "x.mp3", StyleContext{})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestGenerateTitleShortTranscript(t *testing.T) {
	p := &fakeProvider{completion: "should never be used"}
	c := NewClientWithProvider(p, 60)

	title, err := c.GenerateTitle(context.Background(), "too short", StyleContext{})
	require.NoError(t, err)
	assert.Equal(t, "Quick Voice Note", title)
	assert.Empty(t, p.prompts, "short transcript must not call the provider")
}

func TestGenerateTitleCleansOutput(t *testing.T) {
	p := &fakeProvider{completion: `Title: "Harbor Mornings"`}
	c := NewClientWithProvider(p, 60)

	title, err := c.GenerateTitle(context.Background(), longTranscript, StyleContext{})
	require.NoError(t, err)
	assert.Equal(t, "Harbor Mornings", title)
}

func TestGenerateTitleTruncates(t *testing.T) {
	p := &fakeProvider{completion: strings.Repeat("long ", 30)}
	c := NewClientWithProvider(p, 40)

	title, err := c.GenerateTitle(context.Background(), longTranscript, StyleContext{})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(title), 40)
	assert.True(t, strings.HasSuffix(title, "..."))
}

func TestGenerateSummaryShortTranscript(t *testing.T) {
	p := &fakeProvider{completion: "unused"}
	c := NewClientWithProvider(p, 60)

	summary, err := c.GenerateSummary(context.Background(), "brief words here", StyleContext{})
	require.NoError(t, err)
	assert.Equal(t, "Brief voice note", summary)
	assert.Empty(t, p.prompts)
}

func TestGenerateSummaryPromptSelection(t *testing.T) {
	p := &fakeProvider{completion: "a summary"}
	c := NewClientWithProvider(p, 60)

	// Under the word threshold: simple paragraph prompt.
	_, err := c.GenerateSummary(context.Background(), longTranscript, StyleContext{})
	require.NoError(t, err)
	require.Len(t, p.prompts, 1)
	assert.NotContains(t, p.prompts[0], "Key Points")

	// Over the threshold: structured HTML-section prompt.
	long := strings.Repeat("word ", 150)
	_, err = c.GenerateSummary(context.Background(), long, StyleContext{})
	require.NoError(t, err)
	require.Len(t, p.prompts, 2)
	assert.Contains(t, p.prompts[1], "Key Points")
}

func TestStyleContextInjectedIntoPrompts(t *testing.T) {
	p := &fakeProvider{completion: "styled output"}
	c := NewClientWithProvider(p, 60)

	style := StyleContext{Bio: "sailor and amateur chef", WritingSamples: "ahoy there"}
	_, err := c.GenerateTitle(context.Background(), longTranscript, style)
	require.NoError(t, err)
	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "sailor and amateur chef")
	assert.Contains(t, p.prompts[0], "ahoy there")
}

func TestProcessComposite(t *testing.T) {
	p := &fakeProvider{
		transcript: longTranscript,
		completion: "Harbor mornings with coffee and loud fishermen arguing",
	}
	c := NewClientWithProvider(p, 60)

	result, err := c.Process(context.Background(), "memo.mp3", "memo.mp3", StyleContext{})
	require.NoError(t, err)
	assert.Equal(t, longTranscript, result.Transcript)
	assert.Equal(t, p.completion, result.Title)
	assert.Equal(t, p.completion, result.Summary)
	assert.Equal(t, 1, p.transcribeHits)
}

func TestProcessTranscriptionFailureIsFatal(t *testing.T) {
	p := &fakeProvider{transcribeErr: errors.New("upstream 500")}
	c := NewClientWithProvider(p, 60)

	_, err := c.Process(context.Background(), "memo.mp3", "memo.mp3", StyleContext{})
	require.Error(t, err)
	assert.Empty(t, p.prompts, "no generation after failed transcription")
}

func TestProcessCompletionFailureFallsBack(t *testing.T) {
	p := &fakeProvider{
		transcript:  longTranscript,
		completeErr: errors.New("quota exceeded"),
	}
	c := NewClientWithProvider(p, 60)

	result, err := c.Process(context.Background(), "path/morning_walk.mp3", "morning_walk.mp3", StyleContext{})
	require.NoError(t, err)
	assert.Equal(t, "morning walk", result.Title)
	assert.Equal(t, Truncate(longTranscript, 200), result.Summary)
}

func TestTitleFromFilename(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"morning_walk.mp3", "morning walk"},
		{"field-notes-03.wav", "field notes 03"},
		{"memo.mp3", "memo"},
		{".mp3", "Voice Note"},
		{"", "Voice Note"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, TitleFromFilename(tc.input))
		})
	}
}

func TestCleanTitle(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Morning Walk", "Morning Walk"},
		{"quoted", `"Morning Walk"`, "Morning Walk"},
		{"nested quotes", `'"Morning Walk"'`, "Morning Walk"},
		{"prefix", "Title: Morning Walk", "Morning Walk"},
		{"prefix and quotes", `Title: "Morning Walk"`, "Morning Walk"},
		{"multiline", "Morning Walk\nAnd more detail", "Morning Walk"},
		{"whitespace", "  Morning Walk  ", "Morning Walk"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanTitle(tc.input, 60))
		})
	}
}

func TestFormatTranscriptHTML(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", FormatTranscriptHTML("  "))
	})

	t.Run("single sentence", func(t *testing.T) {
		assert.Equal(t, "<p>Just one thought.</p>", FormatTranscriptHTML("Just one thought."))
	})

	t.Run("groups of four", func(t *testing.T) {
		text := "One. Two. Three. Four. Five. Six."
		html := FormatTranscriptHTML(text)
		assert.Equal(t, "<p>One. Two. Three. Four.</p>\n<p>Five. Six.</p>", html)
	})

	t.Run("transition starts new paragraph", func(t *testing.T) {
		text := "First thing happened. So, everything changed."
		html := FormatTranscriptHTML(text)
		assert.Equal(t, "<p>First thing happened.</p>\n<p>So, everything changed.</p>", html)
	})

	t.Run("long sentence forces break", func(t *testing.T) {
		long := "This sentence keeps going on and on about nothing in particular just to pass the one hundred character mark for the test. Short one."
		html := FormatTranscriptHTML(long)
		assert.Equal(t, 2, strings.Count(html, "<p>"))
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcde...", Truncate("abcdefgh", 5))
}

func TestTruncateNeverSplitsRunes(t *testing.T) {
	accented := strings.Repeat("é", 120)
	got := Truncate(accented, 100)
	assert.True(t, utf8.ValidString(got), "got invalid UTF-8: %q", got)
	assert.Equal(t, strings.Repeat("é", 100)+"...", got)

	// Mixed-width input, cut inside the multi-byte run.
	got = Truncate("abc日本語のメモ", 5)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "abc日本...", got)
}

func TestCleanTitleTruncatesByCharacters(t *testing.T) {
	title := CleanTitle(strings.Repeat("ü", 80), 40)
	assert.True(t, utf8.ValidString(title), "got invalid UTF-8: %q", title)
	assert.Equal(t, strings.Repeat("ü", 37)+"...", title)
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount("   "))
	assert.Equal(t, 3, WordCount("one two three"))
}
