package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/respond"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"
	"github.com/Pradumn88/lms-college-site-sub000/internal/infra/mailer"
	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/otp"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const weakPasswordMessage = "Password must be at least 8 characters long and contain both letters and numbers"

type UserStore interface {
	Create(ctx context.Context, u *users.User) error
	FindByID(ctx context.Context, id uint) (users.User, error)
	FindByEmail(ctx context.Context, email string) (users.User, error)
	MarkVerified(ctx context.Context, id uint) error
	SetPassword(ctx context.Context, id uint, hash string) error
}

type Handler struct {
	users     UserStore
	otp       *otp.Service
	mail      mailer.Sender
	jwtSecret string
	log       logrus.FieldLogger
}

func NewHandler(store UserStore, codes *otp.Service, mail mailer.Sender, jwtSecret string, log logrus.FieldLogger) *Handler {
	return &Handler{users: store, otp: codes, mail: mail, jwtSecret: jwtSecret, log: log}
}

// sendCode issues a fresh code for the purpose and mails it.
func (h *Handler) sendCode(ctx context.Context, purpose, email string) error {
	code, err := h.otp.Issue(ctx, purpose, email)
	if err != nil {
		return err
	}
	subject, body := mailer.OTPMessage(purpose, code, int(h.otp.TTL().Minutes()))
	return h.mail.Send(ctx, email, subject, body)
}

func (h *Handler) issueToken(c *gin.Context, user users.User, status int) {
	token, err := issueAppJWT(h.jwtSecret, user)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "internal_error", "Could not create token")
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}

func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=120"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Validation(c, err)
		return
	}
	if !isPasswordStrong(input.Password) {
		respond.Fail(c, http.StatusBadRequest, "validation_error", weakPasswordMessage)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "internal_error", "Failed to hash password")
		return
	}
	hash := string(hashed)

	user := users.User{
		Name:         input.Name,
		Email:        input.Email,
		Password:     &hash,
		AuthProvider: users.ProviderLocal,
		Role:         users.RoleStudent,
	}
	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			respond.Fail(c, http.StatusConflict, "email_taken", "Email is already registered")
			return
		}
		respond.Error(c, err)
		return
	}

	if err := h.sendCode(c.Request.Context(), otp.PurposeVerify, user.Email); err != nil {
		h.log.WithError(err).WithField("user_id", user.ID).Error("verification code not sent")
		respond.Fail(c, http.StatusInternalServerError, "email_failed", "Failed to send verification email, request a new code")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully. Check your email for the verification code."})
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
		OTP   string `json:"otp" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Validation(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			err = otp.ErrInvalidCode
		}
		respond.Error(c, err)
		return
	}
	if err := h.otp.Verify(ctx, otp.PurposeVerify, user.Email, input.OTP); err != nil {
		respond.Error(c, err)
		return
	}
	if err := h.users.MarkVerified(ctx, user.ID); err != nil {
		respond.Error(c, err)
		return
	}
	user.IsVerified = true

	h.issueToken(c, user, http.StatusOK)
}

type emailInput struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) ResendOTP(c *gin.Context) {
	var input emailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Validation(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respond.NotFound(c, "User not found")
			return
		}
		respond.Error(c, err)
		return
	}
	if user.IsVerified {
		respond.BadRequest(c, "User already verified")
		return
	}
	if err := h.sendCode(ctx, otp.PurposeVerify, user.Email); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification code resent"})
}

func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Validation(c, err)
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), input.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respond.Unauthorized(c, "Invalid credentials")
			return
		}
		respond.Error(c, err)
		return
	}
	if user.Password == nil || *user.Password == "" {
		respond.Unauthorized(c, "This account uses Google sign-in")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.Password)); err != nil {
		respond.Unauthorized(c, "Invalid credentials")
		return
	}
	if !user.IsVerified {
		respond.Forbidden(c, "Please verify your email before logging in")
		return
	}

	h.issueToken(c, user, http.StatusOK)
}

const resetSentMessage = "If your email exists, you'll receive a reset code."

func (h *Handler) ForgotPassword(c *gin.Context) {
	var input emailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Validation(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			h.log.WithError(err).Error("password reset lookup failed")
		}
		c.JSON(http.StatusOK, gin.H{"message": resetSentMessage})
		return
	}

	if err := h.sendCode(ctx, otp.PurposeReset, user.Email); err != nil && !errors.Is(err, otp.ErrCooldown) {
		h.log.WithError(err).WithField("user_id", user.ID).Error("reset code not sent")
	}
	c.JSON(http.StatusOK, gin.H{"message": resetSentMessage})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var input struct {
		Email       string `json:"email" binding:"required,email"`
		OTP         string `json:"otp" binding:"required,len=6"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Validation(c, err)
		return
	}
	if !isPasswordStrong(input.NewPassword) {
		respond.Fail(c, http.StatusBadRequest, "validation_error", weakPasswordMessage)
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			err = otp.ErrInvalidCode
		}
		respond.Error(c, err)
		return
	}
	if err := h.otp.Verify(ctx, otp.PurposeReset, user.Email, input.OTP); err != nil {
		respond.Error(c, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "internal_error", "Failed to hash password")
		return
	}
	if err := h.users.SetPassword(ctx, user.ID, string(hashed)); err != nil {
		respond.Error(c, err)
		return
	}
	// Receiving the code proves ownership of the mailbox.
	if !user.IsVerified {
		_ = h.users.MarkVerified(ctx, user.ID)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var input struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Validation(c, err)
		return
	}
	if !isPasswordStrong(input.NewPassword) {
		respond.Fail(c, http.StatusBadRequest, "validation_error", "New password must be at least 8 characters with letters and numbers")
		return
	}

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
	if user.Password == nil || *user.Password == "" {
		respond.BadRequest(c, "This account does not have a password. Sign in with Google or reset the password first.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.OldPassword)); err != nil {
		respond.Unauthorized(c, "Old password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "internal_error", "Failed to hash password")
		return
	}
	if err := h.users.SetPassword(ctx, user.ID, string(hashed)); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
