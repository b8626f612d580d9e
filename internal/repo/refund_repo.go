package repo

import (
	"context"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RefundRepo struct {
	db *gorm.DB
}

func NewRefundRepo(db *gorm.DB) *RefundRepo {
	return &RefundRepo{db: db}
}

// Request opens a refund for a completed purchase owned by userID. A second
// request for the same purchase is ErrConflict.
func (r *RefundRepo) Request(ctx context.Context, userID uint, purchaseID, reason string) (billing.Refund, error) {
	if !validID(purchaseID) {
		return billing.Refund{}, ErrNotFound
	}
	var refund billing.Refund
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p billing.Purchase
		if err := tx.Where("id = ? AND user_id = ?", purchaseID, userID).First(&p).Error; err != nil {
			return notFound(err)
		}
		if p.Status != billing.StatusCompleted {
			return ErrConflict
		}

		refund = billing.Refund{
			PurchaseID: p.ID,
			UserID:     userID,
			Reason:     reason,
			Status:     billing.RefundRequested,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&refund)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
	return refund, err
}

func (r *RefundRepo) List(ctx context.Context, status billing.RefundStatus) ([]billing.Refund, error) {
	q := r.db.WithContext(ctx).Preload("Purchase").Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	list := []billing.Refund{}
	err := q.Find(&list).Error
	return list, err
}

// Resolve moves a requested refund to approved or rejected once.
func (r *RefundRepo) Resolve(ctx context.Context, id uint, status billing.RefundStatus) (billing.Refund, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&billing.Refund{}).
		Where("id = ? AND status = ?", id, billing.RefundRequested).
		Updates(map[string]interface{}{"status": status, "resolved_at": now, "updated_at": now})
	if res.Error != nil {
		return billing.Refund{}, res.Error
	}

	var refund billing.Refund
	if err := r.db.WithContext(ctx).First(&refund, id).Error; err != nil {
		return billing.Refund{}, notFound(err)
	}
	if res.RowsAffected == 0 {
		return refund, ErrConflict
	}
	return refund, nil
}
