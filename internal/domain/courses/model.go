package courses

import (
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Course struct {
	ID string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	EducatorID uint        `gorm:"not null;index" json:"educator_id"`
	Educator   *users.User `gorm:"constraint:OnDelete:RESTRICT;" json:"educator,omitempty"`

	Title        string `gorm:"not null" json:"title"`
	Slug         string `gorm:"uniqueIndex:idx_courses_slug" json:"slug"`
	Description  string `gorm:"type:text" json:"description"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	Price    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	Discount int             `gorm:"not null;default:0" json:"discount"` // percent, 0..100

	IsPublished bool `gorm:"not null;default:false;index" json:"is_published"`

	Chapters []Chapter `gorm:"constraint:OnDelete:CASCADE;" json:"chapters,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Chapter struct {
	ID        string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CourseID  string    `gorm:"type:uuid;not null;index:idx_chapters_course_sort,priority:1" json:"course_id"`
	SortIndex int       `gorm:"not null;default:0;index:idx_chapters_course_sort,priority:2" json:"sort_index"`
	Title     string    `gorm:"not null" json:"title"`
	Lectures  []Lecture `gorm:"constraint:OnDelete:CASCADE;" json:"lectures,omitempty"`
}

type Lecture struct {
	ID              string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ChapterID       string `gorm:"type:uuid;not null;index:idx_lectures_chapter_sort,priority:1" json:"chapter_id"`
	SortIndex       int    `gorm:"not null;default:0;index:idx_lectures_chapter_sort,priority:2" json:"sort_index"`
	Title           string `gorm:"not null" json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
	URL             string `json:"url,omitempty"`
	IsPreviewFree   bool   `gorm:"not null;default:false" json:"is_preview_free"`
}

// Enrollment is the single row backing both "courses of a user" and
// "students of a course".
type Enrollment struct {
	UserID    uint        `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CourseID  string      `gorm:"type:uuid;primaryKey;index" json:"course_id"`
	User      *users.User `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Course    *Course     `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time   `json:"created_at"`
}

type CourseProgress struct {
	ID                uint                        `gorm:"primaryKey" json:"id"`
	UserID            uint                        `gorm:"not null;uniqueIndex:idx_progress_user_course,priority:1" json:"user_id"`
	CourseID          string                      `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_course,priority:2" json:"course_id"`
	CompletedLectures datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"completed_lectures"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

// MarkCompleted adds lectureID to the completed set. Returns false when it was
// already there.
func (p *CourseProgress) MarkCompleted(lectureID string) bool {
	for _, id := range p.CompletedLectures {
		if id == lectureID {
			return false
		}
	}
	p.CompletedLectures = append(p.CompletedLectures, lectureID)
	return true
}

// FindLecture looks a lecture up across all chapters.
func (c Course) FindLecture(lectureID string) (Lecture, bool) {
	for _, ch := range c.Chapters {
		for _, l := range ch.Lectures {
			if l.ID == lectureID {
				return l, true
			}
		}
	}
	return Lecture{}, false
}

func (c Course) LectureCount() int {
	n := 0
	for _, ch := range c.Chapters {
		n += len(ch.Lectures)
	}
	return n
}
