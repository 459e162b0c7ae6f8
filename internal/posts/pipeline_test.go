package posts

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicelog/backend/internal/enrich"
	"github.com/voicelog/backend/internal/models"
)

// stubProvider is a canned AI provider for pipeline tests.
type stubProvider struct {
	transcript string
	completion string
	fail       bool
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if p.fail {
		return "", assert.AnError
	}
	return p.transcript, nil
}

func (p *stubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if p.fail {
		return "", assert.AnError
	}
	return p.completion, nil
}

func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
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

func TestPipelineRunWithoutEnrichment(t *testing.T) {
	svc := newTestService(t)
	user := createTestUser(t, svc.DB(), "alice")
	pipeline := NewPipeline(svc, enrich.NewClientWithProvider(nil, 60))

	post, err := pipeline.Run(context.Background(), UploadInput{
		UserID: user.ID,
		Title:  "Spoken Words",
		File:   uploadHeader(t, "memo.mp3", []byte("fake mp3 bytes")),
	})
	require.NoError(t, err)

	assert.Equal(t, "Spoken Words", post.Title)
	assert.Regexp(t, `^spoken-words-[0-9a-f]{8}$`, post.Slug)
	assert.Equal(t, models.ProcessingNone, post.ProcessingStatus)
	assert.Nil(t, post.Transcript)
	// MP3 uploads are never re-encoded.
	assert.Nil(t, post.ConvertedMP3Path)

	exists, err := svc.Store().Exists(context.Background(), post.AudioFilename)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPipelineRunTitleFromFilename(t *testing.T) {
	svc := newTestService(t)
	user := createTestUser(t, svc.DB(), "alice")
	pipeline := NewPipeline(svc, enrich.NewClientWithProvider(nil, 60))

	post, err := pipeline.Run(context.Background(), UploadInput{
		UserID: user.ID,
		File:   uploadHeader(t, "morning_walk_notes.mp3", []byte("fake mp3")),
	})
	require.NoError(t, err)
	// The title comes from the upload's own name; the random suffix on the
	// stored file must not leak into it.
	assert.Equal(t, "morning walk notes", post.Title)
}

func TestPipelineRunRejectsBadUpload(t *testing.T) {
	svc := newTestService(t)
	user := createTestUser(t, svc.DB(), "alice")
	pipeline := NewPipeline(svc, enrich.NewClientWithProvider(nil, 60))

	_, err := pipeline.Run(context.Background(), UploadInput{
		UserID: user.ID,
		File:   uploadHeader(t, "malware.exe", []byte("MZ")),
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, svc.DB().Model(&models.VoicePost{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPipelineRunEnriched(t *testing.T) {
	svc := newTestService(t)
	user := createTestUser(t, svc.DB(), "alice")

	provider := &stubProvider{
		transcript: strings.Repeat("The quick brown fox jumps over the lazy dog. ", 4),
		completion: "A short note about foxes and their daily routines together",
	}
	pipeline := NewPipeline(svc, enrich.NewClientWithProvider(provider, 60))

	post, err := pipeline.Run(context.Background(), UploadInput{
		UserID: user.ID,
		File:   uploadHeader(t, "foxes.mp3", []byte("fake mp3")),
	})
	require.NoError(t, err)

	assert.Equal(t, models.ProcessingEnriched, post.ProcessingStatus)
	require.NotNil(t, post.Transcript)
	require.NotNil(t, post.Summary)
	// AI title fills the gap when the user supplied none.
	assert.Equal(t, provider.completion, post.Title)
}

func TestPipelineRunEnrichmentFailureKeepsPost(t *testing.T) {
	svc := newTestService(t)
	user := createTestUser(t, svc.DB(), "alice")
	pipeline := NewPipeline(svc, enrich.NewClientWithProvider(&stubProvider{fail: true}, 60))

	post, err := pipeline.Run(context.Background(), UploadInput{
		UserID: user.ID,
		Title:  "Survivor",
		File:   uploadHeader(t, "memo.mp3", []byte("fake mp3")),
	})
	require.NoError(t, err)

	assert.Equal(t, models.ProcessingFailed, post.ProcessingStatus)
	assert.Nil(t, post.Transcript)
	assert.Equal(t, "Survivor", post.Title)
}

func TestPipelineReprocess(t *testing.T) {
	svc := newTestService(t)
	user := createTestUser(t, svc.DB(), "alice")

	pipeline := NewPipeline(svc, enrich.NewClientWithProvider(nil, 60))
	post, err := pipeline.Run(context.Background(), UploadInput{
		UserID: user.ID,
		Title:  "Raw",
		File:   uploadHeader(t, "memo.mp3", []byte("fake mp3")),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingNone, post.ProcessingStatus)

	provider := &stubProvider{
		transcript: strings.Repeat("Words spoken into the void, recorded for posterity. ", 3),
		completion: "Generated later by a second enrichment run over the file",
	}
	withAI := NewPipeline(svc, enrich.NewClientWithProvider(provider, 60))
	require.NoError(t, withAI.Reprocess(context.Background(), post))

	updated, err := svc.GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingEnriched, updated.ProcessingStatus)
	require.NotNil(t, updated.Transcript)
	require.NotNil(t, updated.Summary)
	// Reprocessing never renames a post.
	assert.Equal(t, "Raw", updated.Title)
}

func TestPipelineReprocessWithoutProvider(t *testing.T) {
	svc := newTestService(t)
	user := createTestUser(t, svc.DB(), "alice")
	pipeline := NewPipeline(svc, enrich.NewClientWithProvider(nil, 60))

	post, err := pipeline.Run(context.Background(), UploadInput{
		UserID: user.ID,
		Title:  "Plain",
		File:   uploadHeader(t, "memo.mp3", []byte("fake mp3")),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, pipeline.Reprocess(context.Background(), post), enrich.ErrNoProvider)
}
