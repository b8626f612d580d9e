package courses

import (
	"context"
	"errors"
	"net/http"

	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/respond"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/access"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Catalog interface {
	ListPublished(ctx context.Context) ([]courses.Course, error)
	FindPublished(ctx context.Context, id string) (courses.Course, error)
}

type Handler struct {
	catalog Catalog
	gate    *access.Gate
}

func NewHandler(catalog Catalog, gate *access.Gate) *Handler {
	return &Handler{catalog: catalog, gate: gate}
}

type courseDTO struct {
	courses.Course
	FinalPrice   decimal.Decimal `json:"final_price"`
	LectureCount int             `json:"lecture_count"`
}

func toDTO(c courses.Course) courseDTO {
	return courseDTO{Course: c, FinalPrice: c.FinalPrice(), LectureCount: c.LectureCount()}
}

// List answers GET /course/all. Listings never carry lecture URLs.
func (h *Handler) List(c *gin.Context) {
	list, err := h.catalog.ListPublished(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	out := make([]courseDTO, 0, len(list))
	for _, course := range list {
		out = append(out, toDTO(access.StripAllURLs(course)))
	}
	c.JSON(http.StatusOK, gin.H{"courses": out})
}

// Get answers GET /course/:id with URLs only for lectures the caller may play.
func (h *Handler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	course, err := h.catalog.FindPublished(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respond.Fail(c, http.StatusNotFound, "course_not_found", "Course not found")
			return
		}
		respond.Error(c, err)
		return
	}

	view, enrolled, err := h.gate.CourseView(ctx, c.GetUint("user_id"), course)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": toDTO(view), "enrolled": enrolled})
}
