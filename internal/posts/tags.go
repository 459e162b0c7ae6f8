package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/voicelog/backend/internal/models"
	"gorm.io/gorm"
)

// ErrTagExists is returned when creating a tag whose name is already taken.
var ErrTagExists = errors.New("tag already exists")

// TagWithCount pairs a tag with how many posts carry it.
type TagWithCount struct {
	models.Tag
	PostCount int64 `json:"post_count"`
}

// CreateTag adds a new tag. Names are stored lowercase and trimmed.
func (s *Service) CreateTag(ctx context.Context, name, description string) (*models.Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, errors.New("tag name is required")
	}

	var existing models.Tag
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, ErrTagExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check tag: %w", err)
	}

	tag := &models.Tag{Name: name, Description: description}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return tag, nil
}

// ListTags returns all tags ordered by name.
func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// PopularTags returns the most-used tags with their usage counts.
func (s *Service) PopularTags(ctx context.Context, limit int) ([]TagWithCount, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []TagWithCount
	err := s.db.WithContext(ctx).Model(&models.Tag{}).
		Select("tags.*, COUNT(post_tags.post_id) AS post_count").
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Group("tags.id").
		Order("post_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load popular tags: %w", err)
	}
	return rows, nil
}

// DeleteTag removes a tag and its post associations.
func (s *Service) DeleteTag(ctx context.Context, tagID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", tagID).Delete(&models.PostTag{}).Error; err != nil {
			return fmt.Errorf("failed to clear tag associations: %w", err)
		}
		res := tx.Delete(&models.Tag{}, tagID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete tag: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ResolveTagIDs maps tag names to IDs against the existing vocabulary.
// Unknown names are skipped, never created: the tag set is admin-managed
// and users only pick from it.
func (s *Service) ResolveTagIDs(ctx context.Context, names []string) ([]uint, error) {
	ids := make([]uint, 0, len(names))
	seen := map[string]bool{}
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag models.Tag
		err := s.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// Stats aggregates platform-wide totals for the stats endpoint.
type Stats struct {
	TotalPosts  int64 `json:"total_posts"`
	PublicPosts int64 `json:"public_posts"`
	TotalUsers  int64 `json:"total_users"`
	TotalViews  int64 `json:"total_views"`
	TotalPlays  int64 `json:"total_plays"`
	TotalTags   int64 `json:"total_tags"`
}

// PlatformStats computes platform totals in one pass per table.
func (s *Service) PlatformStats(ctx context.Context) (*Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.VoicePost{}).Count(&st.TotalPosts).Error; err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	if err := db.Model(&models.VoicePost{}).
		Where("privacy_level = ? AND is_published = ?", models.PrivacyPublic, true).
		Count(&st.PublicPosts).Error; err != nil {
		return nil, fmt.Errorf("failed to count public posts: %w", err)
	}
	if err := db.Model(&models.User{}).Count(&st.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&models.Tag{}).Count(&st.TotalTags).Error; err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}

	type sums struct {
		Views int64
		Plays int64
	}
	var agg sums
	err := db.Model(&models.PostAnalytics{}).
		Select("COALESCE(SUM(view_count),0) AS views, COALESCE(SUM(play_count),0) AS plays").
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum analytics: %w", err)
	}
	st.TotalViews = agg.Views
	st.TotalPlays = agg.Plays
	return &st, nil
}
