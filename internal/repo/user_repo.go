package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"

	"gorm.io/gorm"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a user. A taken email is ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *users.User) error {
	u.Email = normalizeEmail(u.Email)
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (users.User, error) {
	var u users.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	return u, notFound(err)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (users.User, error) {
	var u users.User
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	return u, notFound(err)
}

func (r *UserRepo) update(ctx context.Context, id uint, cols map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&users.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) MarkVerified(ctx context.Context, id uint) error {
	return r.update(ctx, id, map[string]interface{}{"is_verified": true})
}

// SetPassword stores an already hashed password.
func (r *UserRepo) SetPassword(ctx context.Context, id uint, hash string) error {
	return r.update(ctx, id, map[string]interface{}{"password": hash})
}

func (r *UserRepo) SetRole(ctx context.Context, id uint, role string) error {
	return r.update(ctx, id, map[string]interface{}{"role": role})
}

func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]users.User, error) {
	list := []users.User{}
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *UserRepo) CountByRole(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Role string
		N    int64
	}
	err := r.db.WithContext(ctx).
		Model(&users.User{}).
		Select("role, COUNT(*) AS n").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[string]int64{}
	for _, row := range rows {
		out[row.Role] = row.N
	}
	return out, nil
}

type GoogleIdentity struct {
	Sub     string
	Email   string
	Name    string
	Picture string
}

// FindOrCreateGoogle resolves a Google identity: by subject first, then by
// email (linking the subject), else a new verified student.
func (r *UserRepo) FindOrCreateGoogle(ctx context.Context, id GoogleIdentity) (users.User, error) {
	var user users.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("google_sub = ?", id.Sub).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		sub := id.Sub
		err = tx.Where("email = ?", normalizeEmail(id.Email)).First(&user).Error
		switch {
		case err == nil:
			if user.GoogleSub != nil {
				return nil
			}
			user.GoogleSub = &sub
			user.IsVerified = true
			return tx.Model(&user).Updates(map[string]interface{}{
				"google_sub":  sub,
				"is_verified": true,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = users.User{
				Name:         id.Name,
				Email:        normalizeEmail(id.Email),
				AuthProvider: users.ProviderGoogle,
				GoogleSub:    &sub,
				Role:         users.RoleStudent,
				IsVerified:   true,
				ImageURL:     id.Picture,
			}
			return tx.Create(&user).Error
		default:
			return err
		}
	})
	return user, err
}
