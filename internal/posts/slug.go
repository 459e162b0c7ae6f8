package posts

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
)

// GenerateSlug derives a URL-safe slug from the title and appends an 8-hex
// random suffix. The suffix is the sole uniqueness guarantee: identical
// titles never produce identical slugs.
func GenerateSlug(title string) string {
	base := strings.ToLower(title)
	base = slugStrip.ReplaceAllString(base, "")
	base = slugCollapse.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "post"
	}

	suffix := uuid.New().String()[:8]
	return base + "-" + suffix
}
