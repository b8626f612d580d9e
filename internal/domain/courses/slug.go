package courses

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

// MakeSlug generates a URL-safe base slug from a course title.
// Example: "Go for Beginners!" -> "go-for-beginners"
func MakeSlug(title string) string {
	base := strings.ToLower(strings.TrimSpace(title))
	base = strings.ReplaceAll(base, " ", "-")
	base = nonSlug.ReplaceAllString(base, "")
	base = multiDash.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if base == "" {
		base = "course"
	}
	return base
}

// EnsureSlug persists a unique slug for the course. Must be called after
// Create so the generated id is known.
func EnsureSlug(db *gorm.DB, course *Course) (string, error) {
	if course == nil {
		return "", fmt.Errorf("course is nil")
	}
	if strings.TrimSpace(course.Slug) != "" {
		return course.Slug, nil
	}
	if course.ID == "" {
		return "", fmt.Errorf("course ID missing (call EnsureSlug after Create)")
	}

	suffix := course.ID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	slug := fmt.Sprintf("%s-%s", MakeSlug(course.Title), suffix)

	if err := db.Model(&Course{}).
		Where("id = ?", course.ID).
		Update("slug", slug).Error; err != nil {
		return "", err
	}
	course.Slug = slug
	return slug, nil
}
