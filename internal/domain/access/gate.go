package access

import (
	"context"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
)

type EnrollmentReader interface {
	IsEnrolled(ctx context.Context, userID uint, courseID string) (bool, error)
}

// Gate answers read-time access questions against the enrollment table.
type Gate struct {
	enrollments EnrollmentReader
}

func NewGate(enrollments EnrollmentReader) *Gate {
	return &Gate{enrollments: enrollments}
}

// IsEnrolled is false for anonymous viewers (userID 0).
func (g *Gate) IsEnrolled(ctx context.Context, userID uint, courseID string) (bool, error) {
	if userID == 0 || courseID == "" {
		return false, nil
	}
	return g.enrollments.IsEnrolled(ctx, userID, courseID)
}

func (g *Gate) IsLectureAccessible(ctx context.Context, userID uint, courseID string, lecture courses.Lecture) (bool, error) {
	if lecture.IsPreviewFree {
		return true, nil
	}
	return g.IsEnrolled(ctx, userID, courseID)
}

// CourseView returns the course as the given viewer may see it, plus whether
// the viewer is enrolled.
func (g *Gate) CourseView(ctx context.Context, userID uint, course courses.Course) (courses.Course, bool, error) {
	enrolled, err := g.IsEnrolled(ctx, userID, course.ID)
	if err != nil {
		return courses.Course{}, false, err
	}
	return RedactLectures(course, enrolled), enrolled, nil
}
