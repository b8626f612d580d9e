package middleware

import (
	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/respond"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/access"

	"github.com/gin-gonic/gin"
)

// RequireEnrollment lets the request through only when the caller is
// enrolled in the course named by the :courseId path parameter.
func RequireEnrollment(gate *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		enrolled, err := gate.IsEnrolled(c.Request.Context(), c.GetUint("user_id"), c.Param("courseId"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		if !enrolled {
			respond.Forbidden(c, "You are not enrolled in this course")
			return
		}
		c.Next()
	}
}
