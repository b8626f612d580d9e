package educator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/middleware"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"
	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const secret = "jwt-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type stub struct {
	roles   map[uint]string
	courses []courses.Course
}

func (s *stub) FindByID(_ context.Context, id uint) (users.User, error) {
	role, ok := s.roles[id]
	if !ok {
		return users.User{}, repo.ErrNotFound
	}
	return users.User{ID: id, Email: "u@example.com", Role: role}, nil
}

func (s *stub) SetRole(_ context.Context, id uint, role string) error {
	s.roles[id] = role
	return nil
}

func (s *stub) Create(_ context.Context, c *courses.Course) error {
	c.ID = "c" + string(rune('0'+len(s.courses)+1))
	s.courses = append(s.courses, *c)
	return nil
}

func (s *stub) ListByEducator(_ context.Context, educatorID uint) ([]courses.Course, error) {
	out := []courses.Course{}
	for _, c := range s.courses {
		if c.EducatorID == educatorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stub) SetPublished(_ context.Context, id string, educatorID uint, publish bool) error {
	for i, c := range s.courses {
		if c.ID == id && c.EducatorID == educatorID {
			s.courses[i].IsPublished = publish
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *stub) StudentsOfEducator(context.Context, uint) ([]repo.EnrolledStudent, error) {
	return []repo.EnrolledStudent{{StudentID: 3, CourseID: "c1"}}, nil
}

func (s *stub) CountForCourses(_ context.Context, ids []string) (map[string]int64, error) {
	out := map[string]int64{}
	for _, id := range ids {
		out[id] = 2
	}
	return out, nil
}

func (s *stub) EarningsForEducator(context.Context, uint) (decimal.Decimal, error) {
	return decimal.RequireFromString("180.50"), nil
}

func newRouter(s *stub) *gin.Engine {
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := NewHandler(Deps{Users: s, Courses: s, Students: s, Earnings: s, JWTSecret: secret, Logger: log})

	r := gin.New()
	r.POST("/educator/update-role", middleware.AuthMiddleware(secret), h.UpdateRole)
	g := r.Group("/educator", middleware.AuthMiddleware(secret), middleware.RequireRole(users.RoleEducator, users.RoleAdmin))
	g.POST("/courses", h.CreateCourse)
	g.GET("/courses", h.ListCourses)
	g.PATCH("/courses/:id/publish", h.SetPublished)
	g.GET("/enrolled-students", h.EnrolledStudents)
	g.GET("/dashboard", h.Dashboard)
	return r
}

func call(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	out := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func token(t *testing.T, id uint, role string) string {
	t.Helper()
	tok, err := middleware.IssueToken(secret, id, "u@example.com", role)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestUpdateRoleIssuesEducatorToken(t *testing.T) {
	s := &stub{roles: map[uint]string{5: users.RoleStudent}}
	r := newRouter(s)

	student := token(t, 5, users.RoleStudent)
	if code, _ := call(t, r, http.MethodGet, "/educator/courses", student, nil); code != http.StatusForbidden {
		t.Fatalf("student must not reach educator routes, got %d", code)
	}

	code, body := call(t, r, http.MethodPost, "/educator/update-role", student, nil)
	if code != http.StatusOK || body["role"] != users.RoleEducator || s.roles[5] != users.RoleEducator {
		t.Fatalf("unexpected promotion result %d %v", code, body)
	}

	fresh, _ := body["token"].(string)
	if code, _ := call(t, r, http.MethodGet, "/educator/courses", fresh, nil); code != http.StatusOK {
		t.Fatalf("new token must carry the educator role, got %d", code)
	}
}

func TestCreateCourseAndPublish(t *testing.T) {
	s := &stub{roles: map[uint]string{5: users.RoleEducator}}
	r := newRouter(s)
	edu := token(t, 5, users.RoleEducator)

	code, body := call(t, r, http.MethodPost, "/educator/courses", edu, gin.H{
		"title":    "Go in Practice",
		"price":    "49.999",
		"discount": 10,
		"chapters": []gin.H{{
			"title": "Basics",
			"lectures": []gin.H{
				{"title": "Intro", "url": "https://video/1", "is_preview_free": true},
				{"title": "Types", "url": "https://video/2", "duration_minutes": 12},
			},
		}},
	})
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %v", code, body)
	}
	created := s.courses[0]
	if created.EducatorID != 5 || !created.Price.Equal(decimal.RequireFromString("50")) || created.IsPublished {
		t.Fatalf("unexpected course %+v", created)
	}
	if len(created.Chapters) != 1 || created.Chapters[0].Lectures[1].SortIndex != 1 {
		t.Fatalf("chapters and lectures must keep their order, got %+v", created.Chapters)
	}

	if code, _ := call(t, r, http.MethodPatch, "/educator/courses/c1/publish", edu, gin.H{"publish": true}); code != http.StatusOK || !s.courses[0].IsPublished {
		t.Fatalf("publish: expected 200, got %d", code)
	}
	other := token(t, 6, users.RoleEducator)
	if code, _ := call(t, r, http.MethodPatch, "/educator/courses/c1/publish", other, gin.H{"publish": false}); code != http.StatusNotFound {
		t.Fatalf("foreign course: expected 404, got %d", code)
	}
	if code, _ := call(t, r, http.MethodPatch, "/educator/courses/c1/publish", edu, gin.H{}); code != http.StatusBadRequest {
		t.Fatalf("missing publish flag: expected 400, got %d", code)
	}
}

func TestCreateCourseValidation(t *testing.T) {
	r := newRouter(&stub{roles: map[uint]string{5: users.RoleEducator}})
	edu := token(t, 5, users.RoleEducator)

	cases := []gin.H{
		{"title": "x", "price": "-1"},
		{"title": "x", "price": "abc"},
		{"title": "x", "price": "10", "discount": 120},
		{"price": "10"},
		{"title": "x", "price": "10", "chapters": []gin.H{{"title": "c", "lectures": []gin.H{{"title": "l", "url": "not a url"}}}}},
	}
	for i, body := range cases {
		if code, _ := call(t, r, http.MethodPost, "/educator/courses", edu, body); code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, code)
		}
	}
}

func TestDashboard(t *testing.T) {
	s := &stub{
		roles: map[uint]string{5: users.RoleEducator},
		courses: []courses.Course{
			{ID: "c1", EducatorID: 5, Title: "A"},
			{ID: "c2", EducatorID: 5, Title: "B"},
			{ID: "c3", EducatorID: 9, Title: "C"},
		},
	}
	r := newRouter(s)

	code, body := call(t, r, http.MethodGet, "/educator/dashboard", token(t, 5, users.RoleEducator), nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["total_earnings"] != "180.5" || body["total_courses"] != float64(2) || body["total_enrollments"] != float64(4) {
		t.Fatalf("unexpected dashboard %v", body)
	}
}
