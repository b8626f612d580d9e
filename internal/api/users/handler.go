package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/respond"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"
	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"

	"github.com/gin-gonic/gin"
)

type UserReader interface {
	FindByID(ctx context.Context, id uint) (users.User, error)
}

type EnrollmentStore interface {
	CoursesOf(ctx context.Context, userID uint) ([]courses.Course, error)
	Unenroll(ctx context.Context, userID uint, courseID string) (bool, error)
}

type ProgressStore interface {
	Get(ctx context.Context, userID uint, courseID string) (courses.CourseProgress, error)
	ListForUser(ctx context.Context, userID uint) ([]courses.CourseProgress, error)
	MarkLectureCompleted(ctx context.Context, userID uint, courseID, lectureID string) (courses.CourseProgress, bool, error)
}

type CourseFinder interface {
	FindByID(ctx context.Context, id string) (courses.Course, error)
}

type Handler struct {
	users       UserReader
	enrollments EnrollmentStore
	progress    ProgressStore
	courses     CourseFinder
}

func NewHandler(u UserReader, e EnrollmentStore, p ProgressStore, c CourseFinder) *Handler {
	return &Handler{users: u, enrollments: e, progress: p, courses: c}
}

func (h *Handler) progressByCourse(ctx context.Context, userID uint) (map[string]courses.CourseProgress, error) {
	list, err := h.progress.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]courses.CourseProgress, len(list))
	for _, p := range list {
		out[p.CourseID] = p
	}
	return out, nil
}

// GetCurrentUser answers GET /user/data.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetUint("user_id")

	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respond.NotFound(c, "User not found")
			return
		}
		respond.Error(c, err)
		return
	}
	enrolled, err := h.enrollments.CoursesOf(ctx, userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	progress, err := h.progressByCourse(ctx, userID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	learning := LearningDTO{EnrolledCourses: len(enrolled)}
	for _, course := range enrolled {
		p := BuildProgressDTO(course, progress[course.ID])
		learning.CompletedLectures += len(p.CompletedLectures)
		if p.TotalLectures > 0 && p.Percent == 100 {
			learning.CompletedCourses++
		}
	}

	c.JSON(http.StatusOK, MeResponse{User: BuildUserDTO(user), Learning: learning})
}

func (h *Handler) EnrolledCourses(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetUint("user_id")

	enrolled, err := h.enrollments.CoursesOf(ctx, userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	progress, err := h.progressByCourse(ctx, userID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	out := make([]EnrolledCourseDTO, 0, len(enrolled))
	for _, course := range enrolled {
		out = append(out, BuildEnrolledCourseDTO(course, progress[course.ID]))
	}
	c.JSON(http.StatusOK, gin.H{"enrolled_courses": out})
}

type progressRequest struct {
	LectureID string `json:"lecture_id" binding:"required"`
}

// MarkLecture runs behind RequireEnrollment.
func (h *Handler) MarkLecture(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}

	ctx := c.Request.Context()
	courseID := c.Param("courseId")
	course, err := h.courses.FindByID(ctx, courseID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if _, ok := course.FindLecture(req.LectureID); !ok {
		respond.Fail(c, http.StatusNotFound, "lecture_not_found", "Lecture not found in this course")
		return
	}

	p, added, err := h.progress.MarkLectureCompleted(ctx, c.GetUint("user_id"), courseID, req.LectureID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": BuildProgressDTO(course, p), "added": added})
}

func (h *Handler) GetProgress(c *gin.Context) {
	ctx := c.Request.Context()
	courseID := c.Param("courseId")
	course, err := h.courses.FindByID(ctx, courseID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	p, err := h.progress.Get(ctx, c.GetUint("user_id"), courseID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": BuildProgressDTO(course, p)})
}

// Unenroll drops the enrollment and its progress. The purchase stays.
func (h *Handler) Unenroll(c *gin.Context) {
	removed, err := h.enrollments.Unenroll(c.Request.Context(), c.GetUint("user_id"), c.Param("courseId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	if !removed {
		respond.NotFound(c, "Enrollment not found")
		return
	}
	c.Status(http.StatusNoContent)
}
