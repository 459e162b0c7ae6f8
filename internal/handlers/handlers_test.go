package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicelog/backend/internal/auth"
	"github.com/voicelog/backend/internal/config"
	"github.com/voicelog/backend/internal/database"
	"github.com/voicelog/backend/internal/enrich"
	"github.com/voicelog/backend/internal/models"
	"github.com/voicelog/backend/internal/posts"
	"github.com/voicelog/backend/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSignupCode = "VOICE2024"

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	posts   *posts.Service
	auth    *auth.Service
	baseURL string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.VoicePost{},
		&models.PostAnalytics{},
		&models.Tag{},
		&models.PostTag{},
		&models.Subscription{},
	))
	// The health endpoint reads the package-level handle.
	database.DB = db

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		Environment: "test",
		JWTSecret:   []byte("test-secret"),
		SignupCode:  testSignupCode,
	}

	authService := auth.NewService(db, cfg.JWTSecret, cfg.SignupCode)
	postService := posts.NewService(db, store)
	pipeline := posts.NewPipeline(postService, enrich.NewClientWithProvider(nil, 60))

	h := NewHandlers(cfg, authService, postService, pipeline)
	return &testEnv{
		router:  h.SetupRouter(),
		db:      db,
		posts:   postService,
		auth:    authService,
		baseURL: "/api/v1",
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return e.do(t, method, path, token, body, "application/json")
}

func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	w := e.doJSON(t, "POST", e.baseURL+"/auth/register", "", gin.H{
		"email":       username + "@example.com",
		"username":    username,
		"password":    "password123",
		"signup_code": testSignupCode,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// upload posts a multipart voice note and returns the decoded response.
func (e *testEnv) upload(t *testing.T, token, title, privacy, filename string) map[string]interface{} {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake audio bytes for testing"))
	require.NoError(t, err)
	if title != "" {
		require.NoError(t, writer.WriteField("title", title))
	}
	if privacy != "" {
		require.NoError(t, writer.WriteField("privacy_level", privacy))
	}
	require.NoError(t, writer.Close())

	w := e.do(t, "POST", e.baseURL+"/posts", token, &buf, writer.FormDataContentType())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "GET", "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRegisterAndMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")

	w := env.do(t, "GET", env.baseURL+"/auth/me", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alice"`)

	// No token, no account.
	w = env.do(t, "GET", env.baseURL+"/auth/me", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterBadSignupCode(t *testing.T) {
	env := newTestEnv(t)
	w := env.doJSON(t, "POST", env.baseURL+"/auth/register", "", gin.H{
		"email":       "bob@example.com",
		"username":    "bob",
		"password":    "password123",
		"signup_code": "WRONG",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUploadAndFetchPost(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")

	created := env.upload(t, token, "Standup Notes", "public", "standup.mp3")
	slug, _ := created["slug"].(string)
	require.Regexp(t, `^standup-notes-[0-9a-f]{8}$`, slug)
	assert.Equal(t, "Unknown", created["duration_display"])

	w := env.do(t, "GET", env.baseURL+"/posts/"+slug, "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Standup Notes")
}

func TestUploadRejectsNonAudio(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "report.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	w := env.do(t, "POST", env.baseURL+"/posts", token, &buf, writer.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "POST", env.baseURL+"/posts", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestViewsIncrementCounter(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")
	created := env.upload(t, token, "Counted", "public", "memo.mp3")
	slug := created["slug"].(string)

	for i := 0; i < 2; i++ {
		w := env.do(t, "GET", env.baseURL+"/posts/"+slug, "", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	// Owner views count too; there is no per-viewer dedup.
	w := env.do(t, "GET", env.baseURL+"/posts/"+slug, token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var post models.VoicePost
	require.NoError(t, env.db.Preload("Analytics").Where("slug = ?", slug).First(&post).Error)
	assert.EqualValues(t, 3, post.Analytics.ViewCount)
}

func TestPlayPing(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")
	created := env.upload(t, token, "Played", "public", "memo.mp3")
	slug := created["slug"].(string)

	w := env.do(t, "POST", env.baseURL+"/posts/"+slug+"/play", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var post models.VoicePost
	require.NoError(t, env.db.Preload("Analytics").Where("slug = ?", slug).First(&post).Error)
	assert.EqualValues(t, 1, post.Analytics.PlayCount)
}

func TestPrivacyGate(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "alice")
	other := env.register(t, "bob")

	created := env.upload(t, owner, "Secret Thoughts", "private", "secret.mp3")
	slug := created["slug"].(string)

	// Hidden posts 404 for everyone but the owner, audio included.
	for _, token := range []string{"", other} {
		w := env.do(t, "GET", env.baseURL+"/posts/"+slug, token, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = env.do(t, "GET", env.baseURL+"/audio/"+slug, token, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	}

	w := env.do(t, "GET", env.baseURL+"/posts/"+slug, owner, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnlistedHiddenFromFeedButDirectlyReachable(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")

	env.upload(t, token, "Public One", "public", "a.mp3")
	unlisted := env.upload(t, token, "Quiet One", "unlisted", "b.mp3")
	slug := unlisted["slug"].(string)

	w := env.do(t, "GET", env.baseURL+"/posts", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Public One")
	assert.NotContains(t, w.Body.String(), "Quiet One")

	w = env.do(t, "GET", env.baseURL+"/posts/"+slug, "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServeAudio(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")
	created := env.upload(t, token, "Audible", "public", "memo.mp3")
	slug := created["slug"].(string)

	w := env.do(t, "GET", env.baseURL+"/audio/"+slug, "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "fake audio bytes for testing", w.Body.String())
}

func TestUpdatePost(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "alice")
	other := env.register(t, "bob")

	created := env.upload(t, owner, "Draft", "public", "memo.mp3")
	slug := created["slug"].(string)

	// Non-owners can't edit; the post is invisible to them as a target.
	w := env.doJSON(t, "PATCH", env.baseURL+"/posts/"+slug, other, gin.H{"title": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.doJSON(t, "PATCH", env.baseURL+"/posts/"+slug, owner, gin.H{
		"title":         "Final Title",
		"privacy_level": "unlisted",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var post models.VoicePost
	require.NoError(t, env.db.Where("slug = ?", slug).First(&post).Error)
	assert.Equal(t, "Final Title", post.Title)
	assert.Equal(t, models.PrivacyUnlisted, post.PrivacyLevel)
	// The slug never changes, even when the title does.
	assert.Equal(t, slug, post.Slug)
}

func TestUpdatePostRejectsEmptyTitle(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")
	created := env.upload(t, token, "Named", "public", "memo.mp3")
	slug := created["slug"].(string)

	w := env.doJSON(t, "PATCH", env.baseURL+"/posts/"+slug, token, gin.H{"title": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")
	created := env.upload(t, token, "Doomed", "public", "memo.mp3")
	slug := created["slug"].(string)

	w := env.do(t, "DELETE", env.baseURL+"/posts/"+slug, token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", env.baseURL+"/posts/"+slug, token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "GET", env.baseURL+"/audio/"+slug, "", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMyPostsIncludesHidden(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")

	env.upload(t, token, "Public Note", "public", "a.mp3")
	env.upload(t, token, "Private Note", "private", "b.mp3")

	w := env.do(t, "GET", env.baseURL+"/posts/mine", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Public Note")
	assert.Contains(t, w.Body.String(), "Private Note")
}

func TestTagAdminGate(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "alice")

	w := env.doJSON(t, "POST", env.baseURL+"/tags", user, gin.H{"name": "tech"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Promote and retry.
	require.NoError(t, env.auth.PromoteAdmin(t.Context(), "alice"))
	w = env.doJSON(t, "POST", env.baseURL+"/tags", user, gin.H{"name": "tech"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Duplicate names conflict.
	w = env.doJSON(t, "POST", env.baseURL+"/tags", user, gin.H{"name": "Tech"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Listing is public.
	w = env.do(t, "GET", env.baseURL+"/tags", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tech")
}

func TestSetPostTags(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")
	created := env.upload(t, token, "Tagged", "public", "memo.mp3")
	slug := created["slug"].(string)

	for _, name := range []string{"tech", "daily"} {
		_, err := env.posts.CreateTag(t.Context(), name, "")
		require.NoError(t, err)
	}

	// Names outside the admin-managed vocabulary are dropped, not created.
	w := env.doJSON(t, "PUT", env.baseURL+"/posts/"+slug+"/tags", token, gin.H{
		"tags": []string{"tech", "daily", "made-up"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var count int64
	require.NoError(t, env.db.Model(&models.PostTag{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
	require.NoError(t, env.db.Model(&models.Tag{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestPlatformStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")
	env.upload(t, token, "Only Post", "public", "memo.mp3")

	w := env.do(t, "GET", env.baseURL+"/stats", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var stats posts.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.TotalPosts)
	assert.EqualValues(t, 1, stats.TotalUsers)
}

func TestUserPostsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.upload(t, alice, "Visible", "public", "a.mp3")
	env.upload(t, alice, "Hidden", "private", "b.mp3")

	w := env.do(t, "GET", env.baseURL+"/users/alice/posts", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Visible")
	assert.NotContains(t, w.Body.String(), "Hidden")

	// The owner sees everything on their own page.
	w = env.do(t, "GET", env.baseURL+"/users/alice/posts", alice, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hidden")

	w = env.do(t, "GET", env.baseURL+"/users/nobody/posts", "", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPagination(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")
	for i := 0; i < 3; i++ {
		env.upload(t, token, fmt.Sprintf("Post %d", i), "public", "memo.mp3")
	}

	w := env.do(t, "GET", env.baseURL+"/posts?limit=2", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Posts []json.RawMessage `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Posts, 2)
}
