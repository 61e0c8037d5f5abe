package repository

import (
	"context"
	"database/sql"
	"time"
)

// EnrollmentRepo provides access to the `course_enrollments` table.
// Enrollment rows are created only inside the commit transaction,
// after the payment signature has been verified and the capacity
// counter has been claimed.
type EnrollmentRepo struct {
	db *sql.DB
}

// NewEnrollmentRepo returns an EnrollmentRepo bound to the database.
func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{db: db} }

// ExistsActiveTx reports whether the member already holds an active,
// non-expired enrollment for the course, within the transaction.
// This is the commit-time re-check of the one-active-enrollment
// invariant; the same query runs outside a transaction at intent
// time via ExistsActive.
func (r *EnrollmentRepo) ExistsActiveTx(ctx context.Context, tx *sql.Tx, memberID, courseID uint64) (bool, error) {
	return existsActive(ctx, tx, memberID, courseID)
}

// ExistsActive is the intent-time variant of ExistsActiveTx.
func (r *EnrollmentRepo) ExistsActive(ctx context.Context, memberID, courseID uint64) (bool, error) {
	return existsActive(ctx, r.db, memberID, courseID)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func existsActive(ctx context.Context, q querier, memberID, courseID uint64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM course_enrollments
		  WHERE member_id=? AND course_id=? AND is_active=1 AND end_date >= CURDATE() LIMIT 1`,
		memberID, courseID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx inserts an enrollment within an existing transaction and
// returns the new id. The caller has already defaulted the end date.
func (r *EnrollmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, memberID, courseID uint64, startDate, endDate time.Time) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO course_enrollments (member_id, course_id, start_date, end_date, is_active) VALUES (?,?,?,?,1)",
		memberID, courseID, startDate, endDate)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// EnrollmentDetail joins an enrollment with its course for the
// member-facing listing.
type EnrollmentDetail struct {
	ID          uint64    `json:"id"`
	CourseID    uint64    `json:"course_id"`
	CourseName  string    `json:"course_name"`
	PriceMinor  int64     `json:"price_minor"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsActive    bool      `json:"is_active"`
	EnrolledAt  time.Time `json:"enrolled_at"`
	CourseAlive bool      `json:"course_is_active"`
}

// ListByMember returns the member's enrollments, newest first.
func (r *EnrollmentRepo) ListByMember(ctx context.Context, memberID uint64) ([]EnrollmentDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.course_id, c.name, c.price_minor, e.start_date, e.end_date, e.is_active, e.enrolled_at, c.is_active
		   FROM course_enrollments e
		   JOIN courses c ON c.id = e.course_id
		  WHERE e.member_id = ?
		  ORDER BY e.enrolled_at DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]EnrollmentDetail, 0)
	for rows.Next() {
		var d EnrollmentDetail
		if err := rows.Scan(&d.ID, &d.CourseID, &d.CourseName, &d.PriceMinor,
			&d.StartDate, &d.EndDate, &d.IsActive, &d.EnrolledAt, &d.CourseAlive); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// CountCurrent returns the number of active, non-expired enrollments
// for a course. Used by reconciliation tooling to audit the counter
// against the ground truth; model.CourseEnrollment.IsCurrent is the
// in-memory equivalent of this predicate.
func (r *EnrollmentRepo) CountCurrent(ctx context.Context, courseID uint64) (uint32, error) {
	var n uint32
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM course_enrollments WHERE course_id=? AND is_active=1 AND end_date >= CURDATE()",
		courseID).Scan(&n)
	return n, err
}
