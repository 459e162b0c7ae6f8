// Package seed fills a development database with realistic fake data:
// users, voice posts with analytics, and a tag vocabulary.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/voicelog/backend/internal/models"
	"github.com/voicelog/backend/internal/posts"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a seeder.
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data.
func (s *Seeder) SeedDev() error {
	users, err := s.seedUsers(20)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	tags, err := s.seedTags()
	if err != nil {
		return fmt.Errorf("failed to seed tags: %w", err)
	}

	if err := s.seedPosts(users, tags, 100); err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	return nil
}

// Clean removes all seeded rows. Destructive; development databases only.
func (s *Seeder) Clean() error {
	tables := []interface{}{
		&models.PostTag{},
		&models.PostAnalytics{},
		&models.VoicePost{},
		&models.Tag{},
		&models.Subscription{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return fmt.Errorf("failed to clean table: %w", err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		user := models.User{
			Username:     fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i),
			Email:        fmt.Sprintf("user%d.%s", i, gofakeit.Email()),
			PasswordHash: string(hashed),
			DisplayName:  gofakeit.Name(),
			Bio:          gofakeit.HipsterSentence(),
			Website:      gofakeit.URL(),
			IsActive:     true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

var tagVocabulary = []string{
	"daily", "tech", "music", "travel", "cooking", "rant",
	"storytime", "interview", "fieldnotes", "review",
}

func (s *Seeder) seedTags() ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(tagVocabulary))
	for _, name := range tagVocabulary {
		tag := models.Tag{
			Name:        name,
			Description: gofakeit.Sentence(6),
			Color:       gofakeit.HexColor(),
		}
		if err := s.db.Create(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

var privacyLevels = []string{
	models.PrivacyPublic, models.PrivacyPublic, models.PrivacyPublic,
	models.PrivacyUnlisted, models.PrivacyPrivate,
}

func (s *Seeder) seedPosts(users []models.User, tags []models.Tag, count int) error {
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		title := gofakeit.HipsterSentence()
		duration := 30 + rand.Float64()*570
		transcript := gofakeit.Paragraph(3, 4, 12, " ")
		summary := gofakeit.Sentence(20)

		post := models.VoicePost{
			UserID:           user.ID,
			Title:            title,
			Slug:             posts.GenerateSlug(title),
			AudioFilename:    fmt.Sprintf("seed_%d.mp3", i),
			DurationSeconds:  &duration,
			Transcript:       &transcript,
			Summary:          &summary,
			ProcessingStatus: models.ProcessingEnriched,
			PrivacyLevel:     privacyLevels[rand.Intn(len(privacyLevels))],
			IsPublished:      rand.Intn(10) > 0,
			CreatedAt:        gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now()),
		}
		if err := s.db.Create(&post).Error; err != nil {
			return err
		}

		lastViewed := gofakeit.DateRange(post.CreatedAt, time.Now())
		analytics := models.PostAnalytics{
			PostID:     post.ID,
			ViewCount:  int64(rand.Intn(500)),
			PlayCount:  int64(rand.Intn(200)),
			LastViewed: &lastViewed,
		}
		if err := s.db.Create(&analytics).Error; err != nil {
			return err
		}

		for _, tag := range pickTags(tags) {
			if err := s.db.Create(&models.PostTag{PostID: post.ID, TagID: tag.ID}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func pickTags(tags []models.Tag) []models.Tag {
	n := rand.Intn(4)
	picked := make([]models.Tag, 0, n)
	seen := map[uint]bool{}
	for len(picked) < n {
		t := tags[rand.Intn(len(tags))]
		if !seen[t.ID] {
			seen[t.ID] = true
			picked = append(picked, t)
		}
	}
	return picked
}
