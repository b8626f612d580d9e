package repo

import (
	"context"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"

	"gorm.io/gorm"
)

type EnrollmentRepo struct {
	db *gorm.DB
}

func NewEnrollmentRepo(db *gorm.DB) *EnrollmentRepo {
	return &EnrollmentRepo{db: db}
}

func (r *EnrollmentRepo) IsEnrolled(ctx context.Context, userID uint, courseID string) (bool, error) {
	if !validID(courseID) {
		return false, nil
	}
	var n int64
	err := r.db.WithContext(ctx).
		Model(&courses.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&n).Error
	return n > 0, err
}

// CoursesOf lists the user's enrolled courses, newest enrollment first.
func (r *EnrollmentRepo) CoursesOf(ctx context.Context, userID uint) ([]courses.Course, error) {
	list := []courses.Course{}
	err := r.db.WithContext(ctx).
		Joins("JOIN enrollments e ON e.course_id = courses.id").
		Where("e.user_id = ?", userID).
		Preload("Chapters", orderBySort).
		Preload("Chapters.Lectures", orderBySort).
		Order("e.created_at DESC").
		Find(&list).Error
	return list, err
}

// Unenroll removes the enrollment and its progress together. Purchases are
// not touched. removed is false when the user was not enrolled.
func (r *EnrollmentRepo) Unenroll(ctx context.Context, userID uint, courseID string) (bool, error) {
	if !validID(courseID) {
		return false, nil
	}
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&courses.Enrollment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&courses.CourseProgress{}).Error
	})
	return removed, err
}

type EnrolledStudent struct {
	StudentID   uint      `json:"student_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	ImageURL    string    `json:"image_url,omitempty"`
	CourseID    string    `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

func (r *EnrollmentRepo) StudentsOfEducator(ctx context.Context, educatorID uint) ([]EnrolledStudent, error) {
	rows := []EnrolledStudent{}
	err := r.db.WithContext(ctx).
		Table("enrollments AS e").
		Select(`u.id AS student_id, u.name, u.email, u.image_url,
			c.id AS course_id, c.title AS course_title, e.created_at AS enrolled_at`).
		Joins("JOIN courses c ON c.id = e.course_id").
		Joins("JOIN users u ON u.id = e.user_id").
		Where("c.educator_id = ?", educatorID).
		Order("e.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *EnrollmentRepo) CountForCourses(ctx context.Context, courseIDs []string) (map[string]int64, error) {
	out := map[string]int64{}
	if len(courseIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		CourseID string
		N        int64
	}
	err := r.db.WithContext(ctx).
		Model(&courses.Enrollment{}).
		Select("course_id, COUNT(*) AS n").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CourseID] = row.N
	}
	return out, nil
}
