package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gym-course-enrollment/internal/model"
)

// PaymentRepo provides access to the `payments` table. Payment rows
// are immutable audit records; the only update this repository allows
// is attaching the created domain records (member/enrollment ids) or
// raising the reconciliation flag, and both happen inside the same
// transaction that inserted the row.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts a payment row within an existing transaction. The
// UNIQUE key on razorpay_payment_id is the idempotency barrier: a
// second callback for the same payment id maps to
// ErrDuplicatePayment, which callers treat as already committed.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p model.Payment) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (kind, member_id, enrollment_id, razorpay_payment_id, razorpay_order_id, amount_minor, currency, status, needs_reconciliation)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		p.Kind, nullableID(p.MemberID), nullableID(p.EnrollmentID),
		p.RazorpayPaymentID, p.RazorpayOrderID, p.AmountMinor, p.Currency,
		p.Status, p.NeedsReconciliation)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicatePayment
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// AttachMemberTx records which member a membership payment created.
func (r *PaymentRepo) AttachMemberTx(ctx context.Context, tx *sql.Tx, paymentID, memberID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE payments SET member_id=? WHERE id=?", memberID, paymentID)
	return err
}

// AttachEnrollmentTx records which enrollment a course payment bought.
func (r *PaymentRepo) AttachEnrollmentTx(ctx context.Context, tx *sql.Tx, paymentID, enrollmentID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE payments SET enrollment_id=? WHERE id=?", enrollmentID, paymentID)
	return err
}

// FlagReconciliationTx marks a captured payment whose domain records
// were withheld by a failed commit-time invariant. Operators query
// on this flag to refund or manually place the purchase.
func (r *PaymentRepo) FlagReconciliationTx(ctx context.Context, tx *sql.Tx, paymentID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE payments SET needs_reconciliation=1 WHERE id=?", paymentID)
	return err
}

// GetByPaymentID loads a payment by the external payment id.
func (r *PaymentRepo) GetByPaymentID(ctx context.Context, razorpayPaymentID string) (model.Payment, error) {
	var (
		p            model.Payment
		memberID     sql.NullInt64
		enrollmentID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, kind, member_id, enrollment_id, razorpay_payment_id, razorpay_order_id, amount_minor, currency, status, needs_reconciliation, paid_at
		   FROM payments WHERE razorpay_payment_id=? LIMIT 1`, razorpayPaymentID).
		Scan(&p.ID, &p.Kind, &memberID, &enrollmentID, &p.RazorpayPaymentID, &p.RazorpayOrderID,
			&p.AmountMinor, &p.Currency, &p.Status, &p.NeedsReconciliation, &p.PaidAt)
	if err != nil {
		return model.Payment{}, err
	}
	if memberID.Valid {
		v := uint64(memberID.Int64)
		p.MemberID = &v
	}
	if enrollmentID.Valid {
		v := uint64(enrollmentID.Int64)
		p.EnrollmentID = &v
	}
	return p, nil
}

func nullableID(v *uint64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
