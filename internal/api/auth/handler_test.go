package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/config"
	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/middleware"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"
	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/otp"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const secret = "jwt-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type userStub struct {
	mu    sync.Mutex
	users map[string]users.User
}

func (s *userStub) Create(_ context.Context, u *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	if _, ok := s.users[u.Email]; ok {
		return repo.ErrConflict
	}
	u.ID = uint(len(s.users) + 1)
	s.users[u.Email] = *u
	return nil
}

func (s *userStub) FindByID(_ context.Context, id uint) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, repo.ErrNotFound
}

func (s *userStub) FindByEmail(_ context.Context, email string) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return users.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *userStub) modify(id uint, fn func(*users.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, u := range s.users {
		if u.ID == id {
			fn(&u)
			s.users[k] = u
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *userStub) MarkVerified(_ context.Context, id uint) error {
	return s.modify(id, func(u *users.User) { u.IsVerified = true })
}

func (s *userStub) SetPassword(_ context.Context, id uint, hash string) error {
	return s.modify(id, func(u *users.User) { u.Password = &hash })
}

type mailStub struct {
	mu   sync.Mutex
	last map[string]string
}

func (m *mailStub) Send(_ context.Context, to, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[to] = body
	return nil
}

var sixDigits = regexp.MustCompile(`\d{6}`)

func (m *mailStub) code(t *testing.T, to string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	code := sixDigits.FindString(m.last[to])
	if code == "" {
		t.Fatalf("no code mailed to %s", to)
	}
	return code
}

type env struct {
	mr     *miniredis.Miniredis
	store  *userStub
	mail   *mailStub
	router *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := &userStub{users: map[string]users.User{}}
	mail := &mailStub{last: map[string]string{}}
	h := NewHandler(store, otp.NewService(rdb, otp.Options{}), mail, secret, log)

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/verify-otp", h.VerifyOTP)
	r.POST("/auth/resend-otp", h.ResendOTP)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/forgot-password", h.ForgotPassword)
	r.POST("/auth/reset-password", h.ResetPassword)
	r.POST("/auth/change-password", middleware.AuthMiddleware(secret), h.ChangePassword)

	return &env{mr: mr, store: store, mail: mail, router: r}
}

func (e *env) post(t *testing.T, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	out := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func (e *env) registerVerified(t *testing.T, email, password string) string {
	t.Helper()
	if code, body := e.post(t, "/auth/register", gin.H{"name": "Ana", "email": email, "password": password}, ""); code != http.StatusCreated {
		t.Fatalf("register: %d %v", code, body)
	}
	code, body := e.post(t, "/auth/verify-otp", gin.H{"email": email, "otp": e.mail.code(t, email)}, "")
	if code != http.StatusOK {
		t.Fatalf("verify: %d %v", code, body)
	}
	token, _ := body["token"].(string)
	return token
}

func TestRegisterVerifyLogin(t *testing.T) {
	e := newEnv(t)

	if code, _ := e.post(t, "/auth/register", gin.H{"name": "Ana", "email": "ana@example.com", "password": "secret123"}, ""); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}

	if code, _ := e.post(t, "/auth/login", gin.H{"email": "ana@example.com", "password": "secret123"}, ""); code != http.StatusForbidden {
		t.Fatalf("unverified login: expected 403, got %d", code)
	}

	if code, body := e.post(t, "/auth/verify-otp", gin.H{"email": "ana@example.com", "otp": "000000"}, ""); code != http.StatusBadRequest || body["code"] != "invalid_code" {
		t.Fatalf("wrong code: expected 400, got %d", code)
	}

	code, body := e.post(t, "/auth/verify-otp", gin.H{"email": "ana@example.com", "otp": e.mail.code(t, "ana@example.com")}, "")
	if code != http.StatusOK || body["token"] == "" {
		t.Fatalf("verify: %d %v", code, body)
	}

	code, body = e.post(t, "/auth/login", gin.H{"email": "ana@example.com", "password": "secret123"}, "")
	if code != http.StatusOK || body["token"] == nil {
		t.Fatalf("login: %d %v", code, body)
	}
	if user, _ := body["user"].(map[string]interface{}); user["role"] != users.RoleStudent {
		t.Fatalf("new users are students, got %v", body["user"])
	}

	if code, _ := e.post(t, "/auth/login", gin.H{"email": "ana@example.com", "password": "wrong123"}, ""); code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", code)
	}
}

func TestRegisterRejectsWeakPasswordAndDuplicates(t *testing.T) {
	e := newEnv(t)

	if code, _ := e.post(t, "/auth/register", gin.H{"name": "Ana", "email": "ana@example.com", "password": "short"}, ""); code != http.StatusBadRequest {
		t.Fatalf("weak password: expected 400, got %d", code)
	}
	if code, _ := e.post(t, "/auth/register", gin.H{"name": "Ana", "email": "not-an-email", "password": "secret123"}, ""); code != http.StatusBadRequest {
		t.Fatalf("bad email: expected 400, got %d", code)
	}

	e.post(t, "/auth/register", gin.H{"name": "Ana", "email": "ana@example.com", "password": "secret123"}, "")
	if code, _ := e.post(t, "/auth/register", gin.H{"name": "Ana", "email": "ANA@example.com", "password": "secret123"}, ""); code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", code)
	}
}

func TestResendOTPCooldown(t *testing.T) {
	e := newEnv(t)
	e.post(t, "/auth/register", gin.H{"name": "Ana", "email": "ana@example.com", "password": "secret123"}, "")

	if code, _ := e.post(t, "/auth/resend-otp", gin.H{"email": "ana@example.com"}, ""); code != http.StatusTooManyRequests {
		t.Fatalf("expected cooldown 429, got %d", code)
	}

	e.mr.FastForward(2 * time.Minute)
	if code, _ := e.post(t, "/auth/resend-otp", gin.H{"email": "ana@example.com"}, ""); code != http.StatusOK {
		t.Fatalf("expected 200 after cooldown, got %d", code)
	}
	if code, _ := e.post(t, "/auth/resend-otp", gin.H{"email": "nobody@example.com"}, ""); code != http.StatusNotFound {
		t.Fatalf("unknown user: expected 404, got %d", code)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	e := newEnv(t)
	e.registerVerified(t, "ana@example.com", "secret123")

	if code, _ := e.post(t, "/auth/forgot-password", gin.H{"email": "nobody@example.com"}, ""); code != http.StatusOK {
		t.Fatalf("unknown email must not be revealed, got %d", code)
	}
	if code, _ := e.post(t, "/auth/forgot-password", gin.H{"email": "ana@example.com"}, ""); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	resetCode := e.mail.code(t, "ana@example.com")
	if code, _ := e.post(t, "/auth/reset-password", gin.H{"email": "ana@example.com", "otp": resetCode, "new_password": "another456"}, ""); code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", code)
	}
	if code, _ := e.post(t, "/auth/reset-password", gin.H{"email": "ana@example.com", "otp": resetCode, "new_password": "another789"}, ""); code != http.StatusBadRequest {
		t.Fatalf("reused code: expected 400, got %d", code)
	}
	if code, _ := e.post(t, "/auth/login", gin.H{"email": "ana@example.com", "password": "another456"}, ""); code != http.StatusOK {
		t.Fatalf("login with new password: expected 200, got %d", code)
	}
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	token := e.registerVerified(t, "ana@example.com", "secret123")

	if code, _ := e.post(t, "/auth/change-password", gin.H{"old_password": "secret123", "new_password": "changed123"}, ""); code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", code)
	}
	if code, _ := e.post(t, "/auth/change-password", gin.H{"old_password": "nope12345", "new_password": "changed123"}, token); code != http.StatusUnauthorized {
		t.Fatalf("wrong old password: expected 401, got %d", code)
	}
	if code, _ := e.post(t, "/auth/change-password", gin.H{"old_password": "secret123", "new_password": "changed123"}, token); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code, _ := e.post(t, "/auth/login", gin.H{"email": "ana@example.com", "password": "changed123"}, ""); code != http.StatusOK {
		t.Fatalf("login with changed password: expected 200, got %d", code)
	}
}

func TestGoogleStartSetsState(t *testing.T) {
	g := NewGoogle(config.GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/google/callback",
	}, false, nil, secret, logrus.New())

	r := gin.New()
	r.GET("/auth/google", g.Start)
	r.GET("/auth/google/callback", g.Callback)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, "https://accounts.google.com/") || !strings.Contains(loc, "client_id=client") {
		t.Fatalf("unexpected redirect %q", loc)
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), stateCookie+"=") {
		t.Fatal("state cookie must be set")
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=x&state=forged", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "real"})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("forged state: expected 400, got %d", w.Code)
	}
}
