package users

import (
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"
)

func BuildUserDTO(u users.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		ImageURL:     stringPtrIfNotEmpty(u.ImageURL),
		Role:         u.Role,
		AuthProvider: u.AuthProvider,
		IsVerified:   u.IsVerified,
		CreatedAt:    u.CreatedAt,
	}
}

// BuildProgressDTO counts only lectures that still exist in the course.
func BuildProgressDTO(c courses.Course, p courses.CourseProgress) ProgressDTO {
	total := c.LectureCount()
	done := []string{}
	for _, id := range p.CompletedLectures {
		if _, ok := c.FindLecture(id); ok {
			done = append(done, id)
		}
	}
	percent := 0
	if total > 0 {
		percent = len(done) * 100 / total
	}
	return ProgressDTO{
		CourseID:          c.ID,
		CompletedLectures: done,
		TotalLectures:     total,
		Percent:           percent,
	}
}

// BuildEnrolledCourseDTO is only used for courses the user is enrolled in,
// so every lecture URL is included.
func BuildEnrolledCourseDTO(c courses.Course, p courses.CourseProgress) EnrolledCourseDTO {
	completed := map[string]bool{}
	for _, id := range p.CompletedLectures {
		completed[id] = true
	}

	chapters := make([]EnrolledChapter, 0, len(c.Chapters))
	for _, ch := range c.Chapters {
		lectures := make([]EnrolledLecture, 0, len(ch.Lectures))
		for _, l := range ch.Lectures {
			lectures = append(lectures, EnrolledLecture{
				ID:              l.ID,
				Title:           l.Title,
				DurationMinutes: l.DurationMinutes,
				URL:             l.URL,
				Completed:       completed[l.ID],
			})
		}
		chapters = append(chapters, EnrolledChapter{ID: ch.ID, Title: ch.Title, Lectures: lectures})
	}

	educator := ""
	if c.Educator != nil {
		educator = c.Educator.Name
	}
	return EnrolledCourseDTO{
		ID:           c.ID,
		Title:        c.Title,
		Slug:         c.Slug,
		ThumbnailURL: stringPtrIfNotEmpty(c.ThumbnailURL),
		Educator:     educator,
		Progress:     BuildProgressDTO(c, p),
		Chapters:     chapters,
	}
}

func stringPtrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
