package posts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voicelog/backend/internal/models"
)

func TestCanView(t *testing.T) {
	owner := &models.User{ID: 1}
	other := &models.User{ID: 2}

	testCases := []struct {
		name      string
		privacy   string
		published bool
		requester *models.User
		expected  bool
	}{
		{"public anonymous", models.PrivacyPublic, true, nil, true},
		{"public other user", models.PrivacyPublic, true, other, true},
		{"public owner", models.PrivacyPublic, true, owner, true},
		{"unlisted anonymous", models.PrivacyUnlisted, true, nil, true},
		{"unlisted other user", models.PrivacyUnlisted, true, other, true},
		{"private anonymous", models.PrivacyPrivate, true, nil, false},
		{"private other user", models.PrivacyPrivate, true, other, false},
		{"private owner", models.PrivacyPrivate, true, owner, true},
		{"unpublished anonymous", models.PrivacyPublic, false, nil, false},
		{"unpublished other user", models.PrivacyPublic, false, other, false},
		{"unpublished owner", models.PrivacyPublic, false, owner, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			post := &models.VoicePost{
				UserID:       owner.ID,
				PrivacyLevel: tc.privacy,
				IsPublished:  tc.published,
			}
			assert.Equal(t, tc.expected, CanView(post, tc.requester))
		})
	}
}

func TestCanModify(t *testing.T) {
	post := &models.VoicePost{UserID: 1, PrivacyLevel: models.PrivacyPublic, IsPublished: true}

	assert.True(t, CanModify(post, &models.User{ID: 1}))
	assert.False(t, CanModify(post, &models.User{ID: 2}))
	assert.False(t, CanModify(post, nil))
}
