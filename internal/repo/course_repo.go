package repo

import (
	"context"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"

	"gorm.io/gorm"
)

func orderBySort(db *gorm.DB) *gorm.DB {
	return db.Order("sort_index ASC")
}

type CourseRepo struct {
	db *gorm.DB
}

func NewCourseRepo(db *gorm.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

func (r *CourseRepo) withContent(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Chapters", orderBySort).
		Preload("Chapters.Lectures", orderBySort).
		Preload("Educator")
}

func (r *CourseRepo) FindPublished(ctx context.Context, id string) (courses.Course, error) {
	if !validID(id) {
		return courses.Course{}, ErrNotFound
	}
	var c courses.Course
	if err := r.withContent(ctx).Where("id = ? AND is_published = ?", id, true).First(&c).Error; err != nil {
		return courses.Course{}, notFound(err)
	}
	return c, nil
}

// FindByID loads a course with its content regardless of publish state.
func (r *CourseRepo) FindByID(ctx context.Context, id string) (courses.Course, error) {
	if !validID(id) {
		return courses.Course{}, ErrNotFound
	}
	var c courses.Course
	if err := r.withContent(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return courses.Course{}, notFound(err)
	}
	return c, nil
}

// FindOwned loads a course of any publish state that belongs to educatorID.
func (r *CourseRepo) FindOwned(ctx context.Context, id string, educatorID uint) (courses.Course, error) {
	if !validID(id) {
		return courses.Course{}, ErrNotFound
	}
	var c courses.Course
	if err := r.withContent(ctx).Where("id = ? AND educator_id = ?", id, educatorID).First(&c).Error; err != nil {
		return courses.Course{}, notFound(err)
	}
	return c, nil
}

func (r *CourseRepo) ListPublished(ctx context.Context) ([]courses.Course, error) {
	list := []courses.Course{}
	err := r.withContent(ctx).Where("is_published = ?", true).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *CourseRepo) ListByEducator(ctx context.Context, educatorID uint) ([]courses.Course, error) {
	list := []courses.Course{}
	err := r.db.WithContext(ctx).Where("educator_id = ?", educatorID).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *CourseRepo) ListAll(ctx context.Context) ([]courses.Course, error) {
	list := []courses.Course{}
	err := r.db.WithContext(ctx).Preload("Educator").Order("created_at DESC").Find(&list).Error
	return list, err
}

// Create inserts the course with its chapters and lectures and assigns a slug.
func (r *CourseRepo) Create(ctx context.Context, c *courses.Course) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		_, err := courses.EnsureSlug(tx, c)
		return err
	})
}

func (r *CourseRepo) SetPublished(ctx context.Context, id string, educatorID uint, publish bool) error {
	if !validID(id) {
		return ErrNotFound
	}
	res := r.db.WithContext(ctx).
		Model(&courses.Course{}).
		Where("id = ? AND educator_id = ?", id, educatorID).
		Update("is_published", publish)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a course that no purchase references. Purchases are the
// payment record and are never deleted, so such a course is ErrConflict.
func (r *CourseRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Table("purchases").Where("course_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		if err := tx.Where("course_id = ?", id).Delete(&courses.CourseProgress{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&courses.Course{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
