package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/billing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	purchaseID = "6f1c2a7e-1b8a-4d4f-9a57-0c6c1c7f3a10"
	courseUUID = "0b9e7a52-8d7c-4f5e-a1a3-2f4d6c8e9b01"
)

// guardedUpdate matches the pending-only status update.
const guardedUpdate = `UPDATE "purchases" SET .* WHERE \(?id = \$\d+ AND status = \$\d+\)?`

func newMockRepo(t *testing.T) (*PurchaseRepo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	if err != nil {
		t.Fatal(err)
	}
	return NewPurchaseRepo(db), mock
}

func TestCompleteAndEnrollGuardsOnPendingAndEnrollsOnce(t *testing.T) {
	r, mock := newMockRepo(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(guardedUpdate).
		WithArgs(sqlmock.AnyArg(), "pay_1", "completed", sqlmock.AnyArg(), purchaseID, "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM "purchases"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "course_id"}).AddRow(7, courseUUID))
	mock.ExpectExec(`INSERT INTO "enrollments" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := r.CompleteAndEnroll(context.Background(), purchaseID, billing.ProviderRefs{RazorpayPaymentID: "pay_1"}, at)
	if err != nil {
		t.Fatalf("CompleteAndEnroll returned error: %v", err)
	}
	if !changed {
		t.Fatal("a pending purchase must report a change")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCompleteAndEnrollKeepsFirstProviderRef(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`"razorpay_payment_id"=COALESCE\(razorpay_payment_id, \$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if _, err := r.CompleteAndEnroll(context.Background(), purchaseID, billing.ProviderRefs{RazorpayPaymentID: "pay_1"}, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCompleteAndEnrollSkipsEnrollmentWhenNotPending(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(guardedUpdate).
		WithArgs(sqlmock.AnyArg(), "completed", sqlmock.AnyArg(), purchaseID, "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	changed, err := r.CompleteAndEnroll(context.Background(), purchaseID, billing.ProviderRefs{}, time.Now())
	if err != nil {
		t.Fatalf("a lost race is not an error, got %v", err)
	}
	if changed {
		t.Fatal("no row moved, so nothing changed")
	}
	// Any enrollment insert would be an unexpected statement.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCompleteAndEnrollRollsBackOnInsertFailure(t *testing.T) {
	r, mock := newMockRepo(t)
	boom := errors.New("deadlock detected")

	mock.ExpectBegin()
	mock.ExpectExec(guardedUpdate).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM "purchases"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "course_id"}).AddRow(7, courseUUID))
	mock.ExpectExec(`INSERT INTO "enrollments"`).WillReturnError(boom)
	mock.ExpectRollback()

	changed, err := r.CompleteAndEnroll(context.Background(), purchaseID, billing.ProviderRefs{}, time.Now())
	if !errors.Is(err, boom) {
		t.Fatalf("expected insert error, got %v", err)
	}
	if changed {
		t.Fatal("a rolled back transaction must not report a change")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMarkFailedGuardsOnPending(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(guardedUpdate).
		WithArgs(sqlmock.AnyArg(), "failed", sqlmock.AnyArg(), purchaseID, "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(guardedUpdate).
		WithArgs(sqlmock.AnyArg(), "failed", sqlmock.AnyArg(), purchaseID, "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := r.MarkFailed(context.Background(), purchaseID, billing.ProviderRefs{}, time.Now())
	if err != nil || !changed {
		t.Fatalf("first failure: changed=%v err=%v", changed, err)
	}
	changed, err = r.MarkFailed(context.Background(), purchaseID, billing.ProviderRefs{}, time.Now())
	if err != nil || changed {
		t.Fatalf("terminal purchase: changed=%v err=%v", changed, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
