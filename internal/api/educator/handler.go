package educator

import (
	"context"
	"errors"
	"net/http"

	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/middleware"
	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/respond"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"
	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type UserStore interface {
	FindByID(ctx context.Context, id uint) (users.User, error)
	SetRole(ctx context.Context, id uint, role string) error
}

type CourseStore interface {
	Create(ctx context.Context, c *courses.Course) error
	ListByEducator(ctx context.Context, educatorID uint) ([]courses.Course, error)
	SetPublished(ctx context.Context, id string, educatorID uint, publish bool) error
}

type StudentStore interface {
	StudentsOfEducator(ctx context.Context, educatorID uint) ([]repo.EnrolledStudent, error)
	CountForCourses(ctx context.Context, courseIDs []string) (map[string]int64, error)
}

type EarningsStore interface {
	EarningsForEducator(ctx context.Context, educatorID uint) (decimal.Decimal, error)
}

type Handler struct {
	users     UserStore
	courses   CourseStore
	students  StudentStore
	earnings  EarningsStore
	jwtSecret string
	log       logrus.FieldLogger
}

type Deps struct {
	Users     UserStore
	Courses   CourseStore
	Students  StudentStore
	Earnings  EarningsStore
	JWTSecret string
	Logger    logrus.FieldLogger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		users:     d.Users,
		courses:   d.Courses,
		students:  d.Students,
		earnings:  d.Earnings,
		jwtSecret: d.JWTSecret,
		log:       d.Logger,
	}
}

// UpdateRole promotes a student to educator and returns a token carrying
// the new role.
func (h *Handler) UpdateRole(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.users.FindByID(ctx, c.GetUint("user_id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respond.Unauthorized(c, "User not found")
			return
		}
		respond.Error(c, err)
		return
	}

	switch user.Role {
	case users.RoleEducator, users.RoleAdmin:
	case users.RoleStudent:
		if err := h.users.SetRole(ctx, user.ID, users.RoleEducator); err != nil {
			respond.Error(c, err)
			return
		}
		user.Role = users.RoleEducator
		h.log.WithField("user_id", user.ID).Info("user became educator")
	default:
		respond.Forbidden(c, "Role cannot be changed")
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, user.ID, user.Email, user.Role)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "internal_error", "Could not create token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "You can publish courses now", "role": user.Role, "token": token})
}

type lectureInput struct {
	Title           string `json:"title" binding:"required,max=200"`
	DurationMinutes int    `json:"duration_minutes" binding:"gte=0"`
	URL             string `json:"url" binding:"required,url"`
	IsPreviewFree   bool   `json:"is_preview_free"`
}

type chapterInput struct {
	Title    string         `json:"title" binding:"required,max=200"`
	Lectures []lectureInput `json:"lectures" binding:"dive"`
}

type createCourseRequest struct {
	Title        string         `json:"title" binding:"required,max=200"`
	Description  string         `json:"description" binding:"max=10000"`
	ThumbnailURL string         `json:"thumbnail_url" binding:"omitempty,url"`
	Price        string         `json:"price" binding:"required"`
	Discount     int            `json:"discount" binding:"gte=0,lte=100"`
	Publish      bool           `json:"publish"`
	Chapters     []chapterInput `json:"chapters" binding:"dive"`
}

func (r createCourseRequest) toCourse(educatorID uint) (courses.Course, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil || price.IsNegative() {
		return courses.Course{}, errors.New("price must be a non-negative amount")
	}
	if err := courses.ValidateDiscount(r.Discount); err != nil {
		return courses.Course{}, err
	}

	c := courses.Course{
		EducatorID:   educatorID,
		Title:        r.Title,
		Description:  r.Description,
		ThumbnailURL: r.ThumbnailURL,
		Price:        price.Round(2),
		Discount:     r.Discount,
		IsPublished:  r.Publish,
	}
	for i, ch := range r.Chapters {
		chapter := courses.Chapter{Title: ch.Title, SortIndex: i}
		for j, l := range ch.Lectures {
			chapter.Lectures = append(chapter.Lectures, courses.Lecture{
				Title:           l.Title,
				DurationMinutes: l.DurationMinutes,
				URL:             l.URL,
				IsPreviewFree:   l.IsPreviewFree,
				SortIndex:       j,
			})
		}
		c.Chapters = append(c.Chapters, chapter)
	}
	return c, nil
}

func (h *Handler) CreateCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}
	course, err := req.toCourse(c.GetUint("user_id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.courses.Create(c.Request.Context(), &course); err != nil {
		respond.Error(c, err)
		return
	}
	h.log.WithFields(logrus.Fields{"course_id": course.ID, "user_id": course.EducatorID}).Info("course created")
	c.JSON(http.StatusCreated, course)
}

func (h *Handler) ListCourses(c *gin.Context) {
	list, err := h.courses.ListByEducator(c.Request.Context(), c.GetUint("user_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": list})
}

type publishRequest struct {
	Publish *bool `json:"publish" binding:"required"`
}

func (h *Handler) SetPublished(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}
	if err := h.courses.SetPublished(c.Request.Context(), c.Param("id"), c.GetUint("user_id"), *req.Publish); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "is_published": *req.Publish})
}

func (h *Handler) EnrolledStudents(c *gin.Context) {
	list, err := h.students.StudentsOfEducator(c.Request.Context(), c.GetUint("user_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrolled_students": list})
}

type courseStats struct {
	CourseID    string `json:"course_id"`
	Title       string `json:"title"`
	IsPublished bool   `json:"is_published"`
	Enrollments int64  `json:"enrollments"`
}

func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	educatorID := c.GetUint("user_id")

	list, err := h.courses.ListByEducator(ctx, educatorID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	ids := make([]string, 0, len(list))
	for _, course := range list {
		ids = append(ids, course.ID)
	}
	counts, err := h.students.CountForCourses(ctx, ids)
	if err != nil {
		respond.Error(c, err)
		return
	}
	earnings, err := h.earnings.EarningsForEducator(ctx, educatorID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	var total int64
	stats := make([]courseStats, 0, len(list))
	for _, course := range list {
		n := counts[course.ID]
		total += n
		stats = append(stats, courseStats{
			CourseID:    course.ID,
			Title:       course.Title,
			IsPublished: course.IsPublished,
			Enrollments: n,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_earnings":    earnings,
		"total_courses":     len(list),
		"total_enrollments": total,
		"courses":           stats,
	})
}
