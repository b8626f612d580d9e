package access

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
)

type stubEnrollments struct {
	set   map[string]bool
	err   error
	calls int
}

func (s *stubEnrollments) IsEnrolled(_ context.Context, userID uint, courseID string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.set[key(userID, courseID)], nil
}

func key(userID uint, courseID string) string {
	return fmt.Sprintf("%d:%s", userID, courseID)
}

func sampleCourse() courses.Course {
	return courses.Course{
		ID:    "c101",
		Title: "Go",
		Chapters: []courses.Chapter{{
			ID: "ch1",
			Lectures: []courses.Lecture{
				{ID: "l1", URL: "https://video/1", IsPreviewFree: true},
				{ID: "l2", URL: "https://video/2"},
			},
		}},
	}
}

func TestLectureState(t *testing.T) {
	free := courses.Lecture{IsPreviewFree: true}
	paid := courses.Lecture{}

	if LectureState(true, paid) != AccessEnrolled {
		t.Fatal("enrolled viewer must see enrolled state")
	}
	if LectureState(false, free) != AccessPreview {
		t.Fatal("preview lecture must be accessible as preview")
	}
	if LectureState(false, paid) != AccessLocked {
		t.Fatal("paid lecture must be locked for non-enrolled viewer")
	}
}

func TestGateAnonymousNeverEnrolled(t *testing.T) {
	store := &stubEnrollments{set: map[string]bool{}}
	g := NewGate(store)

	ok, err := g.IsEnrolled(context.Background(), 0, "c101")
	if err != nil || ok {
		t.Fatalf("expected false,nil got %v,%v", ok, err)
	}
	if store.calls != 0 {
		t.Fatal("anonymous lookups must not hit storage")
	}
}

func TestGateIsLectureAccessible(t *testing.T) {
	store := &stubEnrollments{set: map[string]bool{key(1, "c101"): true}}
	g := NewGate(store)
	ctx := context.Background()
	paid := courses.Lecture{ID: "l2"}

	if ok, _ := g.IsLectureAccessible(ctx, 1, "c101", paid); !ok {
		t.Fatal("enrolled user must access paid lecture")
	}
	if ok, _ := g.IsLectureAccessible(ctx, 2, "c101", paid); ok {
		t.Fatal("other user must not access paid lecture")
	}
	if ok, _ := g.IsLectureAccessible(ctx, 2, "c101", courses.Lecture{IsPreviewFree: true}); !ok {
		t.Fatal("preview lecture must be accessible to everyone")
	}
}

func TestCourseViewStripsLockedURLs(t *testing.T) {
	store := &stubEnrollments{set: map[string]bool{key(1, "c101"): true}}
	g := NewGate(store)
	course := sampleCourse()

	view, enrolled, err := g.CourseView(context.Background(), 2, course)
	if err != nil {
		t.Fatal(err)
	}
	if enrolled {
		t.Fatal("user 2 is not enrolled")
	}
	lectures := view.Chapters[0].Lectures
	if lectures[0].URL == "" {
		t.Fatal("preview lecture url must be kept")
	}
	if lectures[1].URL != "" {
		t.Fatal("locked lecture url must be stripped")
	}
	if course.Chapters[0].Lectures[1].URL == "" {
		t.Fatal("original course must not be modified")
	}

	view, enrolled, _ = g.CourseView(context.Background(), 1, course)
	if !enrolled || view.Chapters[0].Lectures[1].URL == "" {
		t.Fatal("enrolled user must see every url")
	}
}

func TestCourseViewPropagatesStorageError(t *testing.T) {
	boom := errors.New("db down")
	g := NewGate(&stubEnrollments{err: boom})
	if _, _, err := g.CourseView(context.Background(), 1, sampleCourse()); !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestStripAllURLs(t *testing.T) {
	out := StripAllURLs(sampleCourse())
	for _, l := range out.Chapters[0].Lectures {
		if l.URL != "" {
			t.Fatalf("lecture %s kept its url", l.ID)
		}
	}
}
