package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/respond"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"
	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type UserStore interface {
	ListByRole(ctx context.Context, role string) ([]users.User, error)
	CountByRole(ctx context.Context) (map[string]int64, error)
}

type CourseStore interface {
	ListAll(ctx context.Context) ([]courses.Course, error)
	Delete(ctx context.Context, id string) error
}

type TransactionStore interface {
	ListTransactions(ctx context.Context, status billing.Status, limit, offset int) ([]billing.HistoryRow, error)
	Revenue(ctx context.Context, since time.Time) (decimal.Decimal, error)
}

type RefundStore interface {
	List(ctx context.Context, status billing.RefundStatus) ([]billing.Refund, error)
	Resolve(ctx context.Context, id uint, status billing.RefundStatus) (billing.Refund, error)
}

type Handler struct {
	users        UserStore
	courses      CourseStore
	transactions TransactionStore
	refunds      RefundStore
	log          logrus.FieldLogger
	now          func() time.Time
}

func NewHandler(u UserStore, c CourseStore, t TransactionStore, r RefundStore, log logrus.FieldLogger) *Handler {
	return &Handler{users: u, courses: c, transactions: t, refunds: r, log: log, now: time.Now}
}

type AdminUser struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	AuthProvider string    `json:"auth_provider"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
}

type AdminStats struct {
	TotalUsers    int64            `json:"total_users"`
	UsersPerRole  map[string]int64 `json:"users_per_role"`
	TotalRevenue  decimal.Decimal  `json:"total_revenue"`
	RecentRevenue decimal.Decimal  `json:"recent_revenue"`
}

func (h *Handler) listRole(c *gin.Context, role string) {
	list, err := h.users.ListByRole(c.Request.Context(), role)
	if err != nil {
		respond.Error(c, err)
		return
	}
	out := make([]AdminUser, 0, len(list))
	for _, u := range list {
		out = append(out, AdminUser{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			Role:         u.Role,
			AuthProvider: u.AuthProvider,
			IsVerified:   u.IsVerified,
			CreatedAt:    u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (h *Handler) ListStudents(c *gin.Context)  { h.listRole(c, users.RoleStudent) }
func (h *Handler) ListEducators(c *gin.Context) { h.listRole(c, users.RoleEducator) }

func (h *Handler) ListCourses(c *gin.Context) {
	list, err := h.courses.ListAll(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": list})
}

// DeleteCourse refuses courses that any purchase references.
func (h *Handler) DeleteCourse(c *gin.Context) {
	id := c.Param("id")
	if err := h.courses.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			respond.Fail(c, http.StatusConflict, "course_has_purchases", "Course has purchases and cannot be deleted, unpublish it instead")
			return
		}
		respond.Error(c, err)
		return
	}
	h.log.WithFields(logrus.Fields{"course_id": id, "user_id": c.GetUint("user_id")}).Info("course deleted by admin")
	c.Status(http.StatusNoContent)
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) ListTransactions(c *gin.Context) {
	status := billing.Status(c.Query("status"))
	switch status {
	case "", billing.StatusPending, billing.StatusCompleted, billing.StatusFailed:
	default:
		respond.Fail(c, http.StatusBadRequest, "validation_error", "status must be one of: pending completed failed")
		return
	}
	limit, offset := pagination(c)

	rows, err := h.transactions.ListTransactions(c.Request.Context(), status, limit, offset)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": rows, "limit": limit, "offset": offset})
}

func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	perRole, err := h.users.CountByRole(ctx)
	if err != nil {
		respond.Error(c, err)
		return
	}
	total, err := h.transactions.Revenue(ctx, time.Time{})
	if err != nil {
		respond.Error(c, err)
		return
	}
	recent, err := h.transactions.Revenue(ctx, h.now().AddDate(0, 0, -30))
	if err != nil {
		respond.Error(c, err)
		return
	}

	stats := AdminStats{UsersPerRole: perRole, TotalRevenue: total, RecentRevenue: recent}
	for _, n := range perRole {
		stats.TotalUsers += n
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListRefunds(c *gin.Context) {
	list, err := h.refunds.List(c.Request.Context(), billing.RefundStatus(c.Query("status")))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refunds": list})
}

type resolveRefundRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

func (h *Handler) ResolveRefund(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respond.NotFound(c, "Refund not found")
		return
	}
	var req resolveRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Validation(c, err)
		return
	}

	refund, err := h.refunds.Resolve(c.Request.Context(), uint(id), billing.RefundStatus(req.Status))
	if err != nil {
		respond.Error(c, err)
		return
	}
	h.log.WithFields(logrus.Fields{
		"purchase_id": refund.PurchaseID,
		"refund_id":   refund.ID,
		"status":      refund.Status,
	}).Info("refund resolved")
	c.JSON(http.StatusOK, refund)
}
