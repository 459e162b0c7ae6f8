// Package posts orchestrates the voice-post lifecycle: creation through the
// ingestion/enrichment pipeline, partial updates, deletion with file cleanup,
// tag assignment, and play/view counters.
package posts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voicelog/backend/internal/models"
	"github.com/voicelog/backend/internal/storage"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a post does not exist (or a lookup by slug
// misses).
var ErrNotFound = errors.New("post not found")

// Service owns all durable voice-post state transitions.
type Service struct {
	db    *gorm.DB
	store storage.Store
}

// NewService creates a post service over the given database and file store.
func NewService(db *gorm.DB, store storage.Store) *Service {
	return &Service{db: db, store: store}
}

// DB exposes the underlying handle for composite operations (pipeline).
func (s *Service) DB() *gorm.DB {
	return s.db
}

// Store exposes the file store backing this service.
func (s *Service) Store() storage.Store {
	return s.store
}

// CreateInput carries everything needed to persist a new post. File
// ingestion and enrichment have already happened by the time this is called;
// see pipeline.go.
type CreateInput struct {
	UserID           uint
	Title            string
	AudioFilename    string
	ConvertedMP3Path *string
	DurationSeconds  *float64
	Transcript       *string
	Summary          *string
	PrivacyLevel     string
	ProcessingStatus string
	TagIDs           []uint
}

// Create persists the post row, its zeroed analytics row, and any tag
// associations in one transaction. The slug is generated here and never
// changes afterward.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.VoicePost, error) {
	if in.ProcessingStatus == "" {
		in.ProcessingStatus = models.ProcessingNone
	}

	post := &models.VoicePost{
		UserID:           in.UserID,
		Title:            in.Title,
		Slug:             GenerateSlug(in.Title),
		AudioFilename:    in.AudioFilename,
		ConvertedMP3Path: in.ConvertedMP3Path,
		DurationSeconds:  in.DurationSeconds,
		Transcript:       in.Transcript,
		Summary:          in.Summary,
		PrivacyLevel:     models.NormalizePrivacy(in.PrivacyLevel),
		ProcessingStatus: in.ProcessingStatus,
		IsPublished:      true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		if err := tx.Create(&models.PostAnalytics{PostID: post.ID}).Error; err != nil {
			return fmt.Errorf("failed to create analytics row: %w", err)
		}
		for _, tagID := range in.TagIDs {
			if err := tx.Create(&models.PostTag{PostID: post.ID, TagID: tagID}).Error; err != nil {
				return fmt.Errorf("failed to associate tag %d: %w", tagID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, post.ID)
}

// GetByID fetches a post with its analytics and tags.
func (s *Service) GetByID(ctx context.Context, id uint) (*models.VoicePost, error) {
	var post models.VoicePost
	err := s.db.WithContext(ctx).
		Preload("Analytics").Preload("Tags").Preload("User").
		First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	return &post, nil
}

// GetBySlug fetches a post by its slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.VoicePost, error) {
	var post models.VoicePost
	err := s.db.WithContext(ctx).
		Preload("Analytics").Preload("Tags").Preload("User").
		Where("slug = ?", slug).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	return &post, nil
}

// ListPublic returns public, published posts, newest first. Unlisted posts
// never appear here; they are reachable only by direct slug.
func (s *Service) ListPublic(ctx context.Context, limit, offset int) ([]models.VoicePost, error) {
	var list []models.VoicePost
	err := s.db.WithContext(ctx).
		Preload("Analytics").Preload("Tags").Preload("User").
		Where("privacy_level = ? AND is_published = ?", models.PrivacyPublic, true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return list, nil
}

// ListByUser returns a user's posts, newest first. Without includeHidden
// only public published posts are returned.
func (s *Service) ListByUser(ctx context.Context, userID uint, includeHidden bool) ([]models.VoicePost, error) {
	q := s.db.WithContext(ctx).
		Preload("Analytics").Preload("Tags").
		Where("user_id = ?", userID)
	if !includeHidden {
		q = q.Where("privacy_level = ? AND is_published = ?", models.PrivacyPublic, true)
	}

	var list []models.VoicePost
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list user posts: %w", err)
	}
	return list, nil
}

// Patch is a sparse update: only set fields are written, everything else is
// left untouched. This replaces open field-name dispatch with a fixed,
// reviewable statement.
type Patch struct {
	Title            *string
	Transcript       *string
	Summary          *string
	PrivacyLevel     *string
	IsPublished      *bool
	HeaderImage      *string
	ProcessingStatus *string
}

// Update applies a patch to the post and stamps updated_at.
func (s *Service) Update(ctx context.Context, postID uint, patch Patch) error {
	updates := map[string]interface{}{}

	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Transcript != nil {
		updates["transcript"] = *patch.Transcript
	}
	if patch.Summary != nil {
		updates["summary"] = *patch.Summary
	}
	if patch.PrivacyLevel != nil {
		updates["privacy_level"] = models.NormalizePrivacy(*patch.PrivacyLevel)
	}
	if patch.IsPublished != nil {
		updates["is_published"] = *patch.IsPublished
	}
	if patch.HeaderImage != nil {
		updates["header_image"] = *patch.HeaderImage
	}
	if patch.ProcessingStatus != nil {
		updates["processing_status"] = *patch.ProcessingStatus
	}

	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()

	res := s.db.WithContext(ctx).Model(&models.VoicePost{}).
		Where("id = ?", postID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the post's files from storage (absence tolerated), then the
// row. Analytics and tag associations go with it.
func (s *Service) Delete(ctx context.Context, post *models.VoicePost) error {
	if err := s.store.Remove(ctx, post.AudioFilename); err != nil {
		return fmt.Errorf("failed to remove audio file: %w", err)
	}
	if post.ConvertedMP3Path != nil {
		if err := s.store.Remove(ctx, *post.ConvertedMP3Path); err != nil {
			return fmt.Errorf("failed to remove converted file: %w", err)
		}
	}
	if post.HeaderImage != nil {
		if err := s.store.Remove(ctx, *post.HeaderImage); err != nil {
			return fmt.Errorf("failed to remove header image: %w", err)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostAnalytics{}).Error; err != nil {
			return fmt.Errorf("failed to delete analytics: %w", err)
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostTag{}).Error; err != nil {
			return fmt.Errorf("failed to delete tag associations: %w", err)
		}
		if err := tx.Delete(&models.VoicePost{}, post.ID).Error; err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	})
}

// SetTags replaces the post's tag set wholesale. There is no incremental
// add/remove at this layer.
func (s *Service) SetTags(ctx context.Context, postID uint, tagIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
			return fmt.Errorf("failed to clear tags: %w", err)
		}
		for _, tagID := range tagIDs {
			if err := tx.Create(&models.PostTag{PostID: postID, TagID: tagID}).Error; err != nil {
				return fmt.Errorf("failed to assign tag %d: %w", tagID, err)
			}
		}
		return nil
	})
}

// IncrementView bumps the view counter by exactly one and stamps
// last_viewed. A single UPDATE statement; the database's row locking makes
// concurrent increments linearizable.
func (s *Service) IncrementView(ctx context.Context, postID uint) error {
	err := s.db.WithContext(ctx).Model(&models.PostAnalytics{}).
		Where("post_id = ?", postID).
		UpdateColumns(map[string]interface{}{
			"view_count":  gorm.Expr("view_count + 1"),
			"last_viewed": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

// IncrementPlay bumps the play counter by exactly one.
func (s *Service) IncrementPlay(ctx context.Context, postID uint) error {
	err := s.db.WithContext(ctx).Model(&models.PostAnalytics{}).
		Where("post_id = ?", postID).
		UpdateColumn("play_count", gorm.Expr("play_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment play count: %w", err)
	}
	return nil
}

// Analytics fetches the post's counters, zero-valued when the row is missing.
func (s *Service) Analytics(ctx context.Context, postID uint) (*models.PostAnalytics, error) {
	var a models.PostAnalytics
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.PostAnalytics{PostID: postID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}
	return &a, nil
}
