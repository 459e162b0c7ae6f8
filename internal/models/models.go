package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Privacy levels for a voice post. Anything else normalizes to public.
const (
	PrivacyPublic   = "public"
	PrivacyUnlisted = "unlisted"
	PrivacyPrivate  = "private"
)

// Processing status for AI enrichment. Persisted explicitly so clients can
// query true state instead of inferring it from null transcript fields.
const (
	ProcessingNone       = "none"
	ProcessingInProgress = "processing"
	ProcessingEnriched   = "enriched"
	ProcessingFailed     = "failed"
)

// NormalizePrivacy coerces unknown privacy values to public.
func NormalizePrivacy(level string) string {
	switch level {
	case PrivacyPublic, PrivacyUnlisted, PrivacyPrivate:
		return level
	default:
		return PrivacyPublic
	}
}

// User represents a voice-note author account
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`

	PasswordHash string `gorm:"type:text;not null" json:"-"`
	IsAdmin      bool   `gorm:"default:false" json:"is_admin"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	// Profile data
	DisplayName string `json:"display_name"`
	Website     string `json:"website"`
	Bio         string `gorm:"type:text" json:"bio"`

	// Style-guidance context injected into enrichment prompts, never
	// surfaced as content in generated output.
	AIBio            string `gorm:"type:text" json:"-"`
	AIWritingSamples string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VoicePost represents a single published recording
type VoicePost struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`

	Title string `gorm:"not null" json:"title"`
	// Slug is generated once at creation and never changes.
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`

	// Audio file data
	AudioFilename    string  `gorm:"not null" json:"audio_filename"`
	ConvertedMP3Path *string `json:"converted_mp3_path,omitempty"`
	HeaderImage      *string `json:"header_image,omitempty"`
	// Nil when probing failed, not zero.
	DurationSeconds *float64 `json:"duration_seconds"`

	// Enrichment output
	Transcript *string `gorm:"type:text" json:"transcript,omitempty"`
	Summary    *string `gorm:"type:text" json:"summary,omitempty"`

	ProcessingStatus string `gorm:"default:none" json:"processing_status"`

	PrivacyLevel string `gorm:"default:public;index" json:"privacy_level"`
	IsPublished  bool   `gorm:"default:true;index" json:"is_published"`

	Analytics *PostAnalytics `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"analytics,omitempty"`
	Tags      []Tag          `gorm:"many2many:post_tags;joinForeignKey:PostID;joinReferences:TagID;constraint:OnDelete:CASCADE" json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FormatDuration renders the duration as m:ss, or "Unknown" when probing failed.
func (p *VoicePost) FormatDuration() string {
	if p.DurationSeconds == nil {
		return "Unknown"
	}
	total := int(*p.DurationSeconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// BeforeSave normalizes the privacy level so the three-value invariant holds
// no matter what the caller supplied.
func (p *VoicePost) BeforeSave(tx *gorm.DB) error {
	p.PrivacyLevel = NormalizePrivacy(p.PrivacyLevel)
	return nil
}

// PostAnalytics is the 1:1 companion row to a VoicePost. Counters only go up.
type PostAnalytics struct {
	ID         uint       `gorm:"primaryKey" json:"-"`
	PostID     uint       `gorm:"not null;uniqueIndex" json:"-"`
	ViewCount  int64      `gorm:"default:0" json:"view_count"`
	PlayCount  int64      `gorm:"default:0" json:"play_count"`
	LastViewed *time.Time `json:"last_viewed"`
}

// Tag is a global admin-managed label
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"default:#6c757d" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

// PostTag is the voice_posts <-> tags join row
type PostTag struct {
	PostID uint `gorm:"primaryKey" json:"post_id"`
	TagID  uint `gorm:"primaryKey" json:"tag_id"`
}

func (PostTag) TableName() string {
	return "post_tags"
}

// Subscription is a directed subscriber -> creator edge, unique per pair
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubscriberID uint      `gorm:"not null;index;uniqueIndex:idx_subscriptions_pair" json:"subscriber_id"`
	CreatorID    uint      `gorm:"not null;index;uniqueIndex:idx_subscriptions_pair" json:"creator_id"`
	CreatedAt    time.Time `json:"created_at"`
}
