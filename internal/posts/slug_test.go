package posts

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var slugShape = regexp.MustCompile(`^[a-z0-9-]+-[0-9a-f]{8}$`)

func TestGenerateSlugShape(t *testing.T) {
	testCases := []string{
		"Morning Thoughts",
		"  Trimmed  Spaces  ",
		"Symbols & Punctuation!!!",
		"MiXeD CaSe Title",
		"underscores_are_stripped",
		"数字じゃない non-ascii",
	}

	for _, title := range testCases {
		t.Run(title, func(t *testing.T) {
			slug := GenerateSlug(title)
			assert.Regexp(t, slugShape, slug)
		})
	}
}

func TestGenerateSlugFallback(t *testing.T) {
	for _, title := range []string{"", "!!!", "   ", "日本語だけ"} {
		slug := GenerateSlug(title)
		assert.True(t, strings.HasPrefix(slug, "post-"), "got %q for title %q", slug, title)
		assert.Regexp(t, slugShape, slug)
	}
}

func TestGenerateSlugUniqueness(t *testing.T) {
	a := GenerateSlug("Same Title")
	b := GenerateSlug("Same Title")
	assert.NotEqual(t, a, b)

	prefix := func(s string) string { return s[:strings.LastIndex(s, "-")] }
	assert.Equal(t, "same-title", prefix(a))
	assert.Equal(t, prefix(a), prefix(b))
}
