package repo

import (
	"context"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/courses"
	"github.com/Pradumn88/lms-college-site-sub000/internal/services/notify"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepo struct {
	db *gorm.DB
}

func NewPurchaseRepo(db *gorm.DB) *PurchaseRepo {
	return &PurchaseRepo{db: db}
}

func (r *PurchaseRepo) Create(ctx context.Context, p *billing.Purchase) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PurchaseRepo) FindByID(ctx context.Context, id string) (billing.Purchase, error) {
	if !validID(id) {
		return billing.Purchase{}, ErrNotFound
	}
	var p billing.Purchase
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return billing.Purchase{}, notFound(err)
	}
	return p, nil
}

// keepFirst sets each column only when it is still NULL.
func keepFirst(cols map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(cols))
	for col, v := range cols {
		out[col] = gorm.Expr("COALESCE("+col+", ?)", v)
	}
	return out
}

func (r *PurchaseRepo) AttachCheckout(ctx context.Context, id string, refs billing.ProviderRefs) error {
	cols := refs.CheckoutColumns()
	if len(cols) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&billing.Purchase{}).
		Where("id = ?", id).
		Updates(keepFirst(cols))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PurchaseRepo) transition(tx *gorm.DB, id string, to billing.Status, refs billing.ProviderRefs, at time.Time) (bool, error) {
	updates := keepFirst(refs.CheckoutColumns())
	for col, v := range keepFirst(refs.ConfirmationColumns()) {
		updates[col] = v
	}
	updates["status"] = to
	updates["updated_at"] = at
	switch to {
	case billing.StatusCompleted:
		updates["completed_at"] = at
	case billing.StatusFailed:
		updates["failed_at"] = at
	}

	res := tx.Model(&billing.Purchase{}).
		Where("id = ? AND status = ?", id, billing.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CompleteAndEnroll runs the pending -> completed update and the enrollment
// insert in one transaction. The status condition makes concurrent callers
// race safely: only one sees a changed row.
func (r *PurchaseRepo) CompleteAndEnroll(ctx context.Context, id string, refs billing.ProviderRefs, at time.Time) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := r.transition(tx, id, billing.StatusCompleted, refs, at)
		if err != nil || !ok {
			return err
		}

		var p billing.Purchase
		if err := tx.Select("user_id", "course_id").First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		enrollment := courses.Enrollment{UserID: p.UserID, CourseID: p.CourseID, CreatedAt: at}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (r *PurchaseRepo) MarkFailed(ctx context.Context, id string, refs billing.ProviderRefs, at time.Time) (bool, error) {
	return r.transition(r.db.WithContext(ctx), id, billing.StatusFailed, refs, at)
}

func (r *PurchaseRepo) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]billing.Purchase, error) {
	var list []billing.Purchase
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", billing.StatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *PurchaseRepo) historyQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("purchases AS p").
		Select(`p.id AS purchase_id, p.user_id, u.email AS user_email, p.course_id, c.title AS course_title,
			p.amount::text AS amount, p.currency, p.status, p.payment_method,
			r.status AS refund_status, p.created_at, p.completed_at`).
		Joins("JOIN courses c ON c.id = p.course_id").
		Joins("JOIN users u ON u.id = p.user_id").
		Joins("LEFT JOIN refunds r ON r.purchase_id = p.id").
		Order("p.created_at DESC")
}

func (r *PurchaseRepo) HistoryForUser(ctx context.Context, userID uint) ([]billing.HistoryRow, error) {
	rows := []billing.HistoryRow{}
	err := r.historyQuery(ctx).Where("p.user_id = ?", userID).Scan(&rows).Error
	return rows, err
}

func (r *PurchaseRepo) ListTransactions(ctx context.Context, status billing.Status, limit, offset int) ([]billing.HistoryRow, error) {
	q := r.historyQuery(ctx)
	if status != "" {
		q = q.Where("p.status = ?", status)
	}
	rows := []billing.HistoryRow{}
	err := q.Limit(limit).Offset(offset).Scan(&rows).Error
	return rows, err
}

// EarningsForEducator sums completed purchases of the educator's courses.
func (r *PurchaseRepo) EarningsForEducator(ctx context.Context, educatorID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Table("purchases AS p").
		Select("COALESCE(SUM(p.amount), 0)").
		Joins("JOIN courses c ON c.id = p.course_id").
		Where("c.educator_id = ? AND p.status = ?", educatorID, billing.StatusCompleted).
		Row().Scan(&total)
	return total, err
}

// Revenue sums completed purchases completed at or after since; the zero
// time sums everything.
func (r *PurchaseRepo) Revenue(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	q := r.db.WithContext(ctx).
		Model(&billing.Purchase{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", billing.StatusCompleted)
	if !since.IsZero() {
		q = q.Where("completed_at >= ?", since)
	}
	err := q.Row().Scan(&total)
	return total, err
}

// ReceiptFor loads what the enrollment receipt mail needs.
func (r *PurchaseRepo) ReceiptFor(ctx context.Context, purchaseID string) (notify.Receipt, error) {
	var row notify.Receipt
	err := r.db.WithContext(ctx).
		Table("purchases AS p").
		Select("p.id AS purchase_id, u.email, c.title AS course_title, p.amount::text AS amount, p.currency").
		Joins("JOIN users u ON u.id = p.user_id").
		Joins("JOIN courses c ON c.id = p.course_id").
		Where("p.id = ?", purchaseID).
		Take(&row).Error
	if err != nil {
		return notify.Receipt{}, notFound(err)
	}
	return row, nil
}
