package routes

import (
	"net/http"

	adminapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/admin"
	authapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/auth"
	coursesapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/courses"
	educatorapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/educator"
	purchaseapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/purchase"
	usersapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/users"
	webhooksapi "github.com/Pradumn88/lms-college-site-sub000/internal/api/webhooks"
	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/middleware"
	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/respond"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/access"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	JWTSecret string
	Gate      *access.Gate

	Auth     *authapi.Handler
	Google   *authapi.Google // nil when Google sign-in is not configured
	Courses  *coursesapi.Handler
	Purchase *purchaseapi.Handler
	Webhooks *webhooksapi.Handler
	Users    *usersapi.Handler
	Educator *educatorapi.Handler
	Admin    *adminapi.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	respond.UseJSONFieldNames()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider webhooks are verified against the raw body, so they skip sanitizing.
	r.POST("/webhooks/stripe", d.Webhooks.Stripe)
	r.POST("/webhooks/razorpay", d.Webhooks.Razorpay)

	public := r.Group("/api")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/auth/register", d.Auth.Register)
	public.POST("/auth/verify-otp", d.Auth.VerifyOTP)
	public.POST("/auth/resend-otp", d.Auth.ResendOTP)
	public.POST("/auth/login", d.Auth.Login)
	public.POST("/auth/forgot-password", d.Auth.ForgotPassword)
	public.POST("/auth/reset-password", d.Auth.ResetPassword)
	if d.Google != nil {
		public.GET("/auth/google", d.Google.Start)
		public.GET("/auth/google/callback", d.Google.Callback)
	}

	public.GET("/course/all", d.Courses.List)
	public.GET("/course/:id", middleware.OptionalAuth(d.JWTSecret), d.Courses.Get)

	// Authenticated
	auth := r.Group("/api")
	auth.Use(middleware.SanitizeAndCleanInputMiddleware(), middleware.AuthMiddleware(d.JWTSecret))

	auth.POST("/auth/change-password", d.Auth.ChangePassword)

	auth.POST("/purchase", d.Purchase.Preview)
	auth.POST("/purchase/stripe", d.Purchase.CheckoutStripe)
	auth.POST("/purchase/razorpay", d.Purchase.CheckoutRazorpay)
	auth.POST("/purchase/razorpay/verify", d.Purchase.VerifyRazorpay)
	auth.GET("/payment-history", d.Purchase.History)
	auth.POST("/payment-history/:purchaseId/refund", d.Purchase.RequestRefund)

	auth.GET("/user/data", d.Users.GetCurrentUser)
	auth.GET("/user/enrolled-courses", d.Users.EnrolledCourses)
	enrolled := auth.Group("/user/courses/:courseId")
	enrolled.Use(middleware.RequireEnrollment(d.Gate))
	enrolled.POST("/progress", d.Users.MarkLecture)
	enrolled.GET("/progress", d.Users.GetProgress)
	auth.DELETE("/user/courses/:courseId/enrollment", d.Users.Unenroll)

	auth.POST("/educator/update-role", d.Educator.UpdateRole)

	// Educators
	educator := auth.Group("/educator")
	educator.Use(middleware.RequireRole(users.RoleEducator, users.RoleAdmin))
	educator.POST("/courses", d.Educator.CreateCourse)
	educator.GET("/courses", d.Educator.ListCourses)
	educator.PATCH("/courses/:id/publish", d.Educator.SetPublished)
	educator.GET("/enrolled-students", d.Educator.EnrolledStudents)
	educator.GET("/dashboard", d.Educator.Dashboard)

	// Admin routes
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireRole(users.RoleAdmin))
	admin.GET("/students", d.Admin.ListStudents)
	admin.GET("/educators", d.Admin.ListEducators)
	admin.GET("/courses", d.Admin.ListCourses)
	admin.DELETE("/courses/:id", d.Admin.DeleteCourse)
	admin.GET("/transactions", d.Admin.ListTransactions)
	admin.GET("/stats", d.Admin.Stats)
	admin.GET("/refunds", d.Admin.ListRefunds)
	admin.PATCH("/refunds/:id", d.Admin.ResolveRefund)
}
