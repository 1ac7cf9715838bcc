package portfolios

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const fallbackSlugBase = "portfolio"

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// generateSlug derives a URL-safe slug from name with a base-36 millisecond suffix.
func generateSlug(name string, now time.Time) string {
	base := strings.ToLower(name)
	base = slugDisallowed.ReplaceAllString(base, "")
	base = strings.TrimSpace(base)
	base = slugWhitespace.ReplaceAllString(base, "-")
	base = slugDashes.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = fallbackSlugBase
	}
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 36)
}
