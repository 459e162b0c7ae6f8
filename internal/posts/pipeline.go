package posts

import (
	"context"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/voicelog/backend/internal/audio"
	"github.com/voicelog/backend/internal/enrich"
	"github.com/voicelog/backend/internal/ingest"
	"github.com/voicelog/backend/internal/logger"
	"github.com/voicelog/backend/internal/metrics"
	"github.com/voicelog/backend/internal/models"
	"github.com/voicelog/backend/internal/storage"
	"go.uber.org/zap"
)

// Pipeline runs the full upload flow: validate and store the file, probe its
// duration, convert to MP3 when needed, optionally enrich with AI, and
// persist the post. All steps after ingestion are best-effort except the
// final insert: a post with an unknown duration or no transcript is still a
// post.
type Pipeline struct {
	service  *Service
	enricher *enrich.Client
}

// NewPipeline wires the pipeline over a post service and an enrichment
// client. The client may be disabled; the pipeline then skips enrichment
// entirely.
func NewPipeline(service *Service, enricher *enrich.Client) *Pipeline {
	return &Pipeline{service: service, enricher: enricher}
}

// UploadInput is the user-supplied half of a new post.
type UploadInput struct {
	UserID       uint
	Title        string
	PrivacyLevel string
	TagIDs       []uint
	File         *multipart.FileHeader
}

// Run executes the pipeline. On any failure after the file has been stored,
// the provisional files are removed before the error is returned so that
// storage never accumulates orphans.
func (p *Pipeline) Run(ctx context.Context, in UploadInput) (*models.VoicePost, error) {
	filename, err := ingest.SaveAudio(ctx, in.File, p.service.Store())
	if err != nil {
		metrics.CountUpload("rejected")
		return nil, err
	}

	provisional := []string{filename}
	cleanup := func() {
		for _, key := range provisional {
			if rmErr := p.service.Store().Remove(context.Background(), key); rmErr != nil {
				logger.Log.Warn("failed to clean up provisional file",
					zap.String("key", key), zap.Error(rmErr))
			}
		}
	}

	create := CreateInput{
		UserID:           in.UserID,
		AudioFilename:    filename,
		PrivacyLevel:     in.PrivacyLevel,
		TagIDs:           in.TagIDs,
		ProcessingStatus: models.ProcessingNone,
	}

	localPath, onDisk := p.service.Store().LocalPath(filename)
	if onDisk {
		if seconds, err := audio.Duration(ctx, localPath); err == nil {
			create.DurationSeconds = &seconds
		} else {
			logger.Log.Warn("audio duration unknown",
				zap.String("filename", filename), zap.Error(err))
		}

		if convertedKey, ok := p.convert(ctx, filename, localPath); ok {
			create.ConvertedMP3Path = &convertedKey
			provisional = append(provisional, convertedKey)
		}
	}

	if p.enricher.Enabled() && onDisk {
		create.ProcessingStatus = models.ProcessingInProgress
		result, err := p.enricher.Process(ctx, localPath, in.File.Filename, p.styleFor(ctx, in.UserID))
		if err != nil {
			logger.Log.Warn("enrichment failed, post keeps raw metadata",
				zap.String("filename", filename), zap.Error(err))
			create.ProcessingStatus = models.ProcessingFailed
		} else {
			create.Transcript = &result.Transcript
			create.Summary = &result.Summary
			create.ProcessingStatus = models.ProcessingEnriched
			if strings.TrimSpace(in.Title) == "" {
				create.Title = result.Title
			}
		}
	}

	// User-provided title always wins; AI title fills the gap, the
	// upload's own filename is the last resort. The stored name carries a
	// random suffix and never leaks into titles.
	if strings.TrimSpace(in.Title) != "" {
		create.Title = strings.TrimSpace(in.Title)
	} else if create.Title == "" {
		create.Title = enrich.TitleFromFilename(in.File.Filename)
	}

	post, err := p.service.Create(ctx, create)
	if err != nil {
		cleanup()
		metrics.CountUpload("failed")
		return nil, err
	}

	metrics.CountUpload("accepted")
	logger.Log.Info("post created",
		zap.Uint("post_id", post.ID),
		zap.String("slug", post.Slug),
		zap.String("processing_status", post.ProcessingStatus))
	return post, nil
}

// convert produces the MP3 rendition under the converted/ prefix. Returns
// the storage key and whether a converted file exists. Conversion failure is
// logged, never fatal.
func (p *Pipeline) convert(ctx context.Context, filename, localPath string) (string, bool) {
	if strings.EqualFold(filepath.Ext(filename), ".mp3") {
		return "", false
	}

	convertedKey := filepath.Join(storage.ConvertedDir, audio.ConvertedFilename(filename))
	outPath, ok := p.service.Store().LocalPath(convertedKey)
	if !ok {
		return "", false
	}

	start := time.Now()
	converted, err := audio.ConvertToMP3(ctx, localPath, outPath)
	if err != nil {
		metrics.ObserveConversion("failed", time.Since(start))
		logger.Log.Warn("mp3 conversion failed",
			zap.String("filename", filename), zap.Error(err))
		return "", false
	}
	if !converted {
		return "", false
	}
	metrics.ObserveConversion("converted", time.Since(start))
	return convertedKey, true
}

// Reprocess re-runs enrichment on an existing post, replacing its
// transcript and summary. The title is left alone: by this point it is
// either user-chosen or already published under, and a rename belongs to
// the edit flow. Only useful when the source file is still on local disk.
func (p *Pipeline) Reprocess(ctx context.Context, post *models.VoicePost) error {
	if !p.enricher.Enabled() {
		return enrich.ErrNoProvider
	}
	localPath, ok := p.service.Store().LocalPath(post.AudioFilename)
	if !ok {
		return ErrNotFound
	}

	inProgress := models.ProcessingInProgress
	if err := p.service.Update(ctx, post.ID, Patch{ProcessingStatus: &inProgress}); err != nil {
		return err
	}

	result, err := p.enricher.Process(ctx, localPath, post.AudioFilename, p.styleFor(ctx, post.UserID))
	if err != nil {
		failed := models.ProcessingFailed
		if updErr := p.service.Update(ctx, post.ID, Patch{ProcessingStatus: &failed}); updErr != nil {
			logger.Log.Error("failed to record enrichment failure",
				zap.Uint("post_id", post.ID), zap.Error(updErr))
		}
		return err
	}

	enriched := models.ProcessingEnriched
	return p.service.Update(ctx, post.ID, Patch{
		Transcript:       &result.Transcript,
		Summary:          &result.Summary,
		ProcessingStatus: &enriched,
	})
}

// styleFor loads the author's AI training material, empty when unset.
func (p *Pipeline) styleFor(ctx context.Context, userID uint) enrich.StyleContext {
	var user models.User
	if err := p.service.DB().WithContext(ctx).First(&user, userID).Error; err != nil {
		return enrich.StyleContext{}
	}
	return enrich.StyleContext{
		Bio:            user.AIBio,
		WritingSamples: user.AIWritingSamples,
	}
}
