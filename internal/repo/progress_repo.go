package repo

import (
	"context"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepo struct {
	db *gorm.DB
}

func NewProgressRepo(db *gorm.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

func (r *ProgressRepo) Get(ctx context.Context, userID uint, courseID string) (courses.CourseProgress, error) {
	var p courses.CourseProgress
	err := r.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&p).Error
	if err != nil {
		return courses.CourseProgress{}, notFound(err)
	}
	return p, nil
}

func (r *ProgressRepo) ListForUser(ctx context.Context, userID uint) ([]courses.CourseProgress, error) {
	list := []courses.CourseProgress{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&list).Error
	return list, err
}

// MarkLectureCompleted creates the progress row on first use and adds the
// lecture to its completed set under a row lock.
func (r *ProgressRepo) MarkLectureCompleted(ctx context.Context, userID uint, courseID, lectureID string) (courses.CourseProgress, bool, error) {
	var (
		p     courses.CourseProgress
		added bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := courses.CourseProgress{
			UserID:            userID,
			CourseID:          courseID,
			CompletedLectures: datatypes.JSONSlice[string]{},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			First(&p).Error; err != nil {
			return err
		}
		if added = p.MarkCompleted(lectureID); !added {
			return nil
		}
		return tx.Model(&p).Update("completed_lectures", p.CompletedLectures).Error
	})
	return p, added, err
}
