// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// enrollment lifecycle and handlers to distinguish between different
// failure scenarios. ErrCourseFull and ErrAlreadyEnrolled are the
// business-invariant violations that can surface inside the commit
// transaction after a payment has already been captured; callers must
// treat them as the reconciliation path, never as silent failures.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrEmailExists is returned when a user insert collides with an
// existing email. During the registration commit this means the
// account was taken while the payment was in flight.
var ErrEmailExists = errors.New("email already exists")

// ErrCourseNotFound is returned when a course id does not resolve to
// an active course.
var ErrCourseNotFound = errors.New("course not found")

// ErrMemberNotFound is returned when a user has no member profile.
var ErrMemberNotFound = errors.New("member not found")

// ErrCourseFull is returned by the guarded capacity increment when
// the course has no free places left. Handlers translate this into a
// specific capacity-exceeded message.
var ErrCourseFull = errors.New("course is full")

// ErrAlreadyEnrolled is returned when the member already holds an
// active, non-expired enrollment for the course.
var ErrAlreadyEnrolled = errors.New("already enrolled in course")

// ErrDuplicatePayment is returned when a payment insert collides with
// the unique external payment id. This is the idempotency success
// path for repeated provider callbacks, not a failure.
var ErrDuplicatePayment = errors.New("payment already recorded")

// mysqlDuplicateEntry is the server error number MySQL raises when a
// UNIQUE key is violated.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL duplicate-key
// violation. The uniqueness constraints on users.email and
// payments.razorpay_payment_id are the concurrency-safe barriers the
// commit path relies on.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
