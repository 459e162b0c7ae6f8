package posts

import "github.com/voicelog/backend/internal/models"

// CanView is the per-request privacy gate applied uniformly to view, serve,
// and API read operations. A hidden post is indistinguishable from a missing
// one; callers respond 404, never 403.
//
// private: owner only. unlisted: direct access for anyone, excluded from
// public listings. public: anyone. Unpublished posts are owner-only
// regardless of privacy level.
func CanView(post *models.VoicePost, requester *models.User) bool {
	if requester != nil && requester.ID == post.UserID {
		return true
	}
	if !post.IsPublished {
		return false
	}
	return post.PrivacyLevel != models.PrivacyPrivate
}

// CanModify gates edit, delete, reprocess, and tag assignment: owner only.
func CanModify(post *models.VoicePost, requester *models.User) bool {
	return requester != nil && requester.ID == post.UserID
}
