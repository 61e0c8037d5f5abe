package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/gym-course-enrollment/internal/model"
)

// Committer owns the two all-or-nothing units that materialize
// domain records after a payment has been verified. Every durable
// effect of a verified payment happens inside a single transaction
// here and nowhere else: payment record, user/member creation,
// enrollment creation and the capacity counter all commit or roll
// back together, so a crash mid-commit can never leave a
// half-committed state visible.
//
// The payment row is always inserted first. Its UNIQUE external
// payment id makes the insert the de-duplication gate: a concurrent
// or repeated callback for the same payment loses the uniqueness
// race, is reported as already committed and performs no further
// writes.
type Committer struct {
	db          *sql.DB
	users       *UserRepo
	members     *MemberRepo
	plans       *PlanRepo
	courses     *CourseRepo
	enrollments *EnrollmentRepo
	payments    *PaymentRepo
}

// NewCommitter wires a Committer over the shared repositories.
func NewCommitter(db *sql.DB, users *UserRepo, members *MemberRepo, plans *PlanRepo, courses *CourseRepo, enrollments *EnrollmentRepo, payments *PaymentRepo) *Committer {
	return &Committer{db: db, users: users, members: members, plans: plans, courses: courses, enrollments: enrollments, payments: payments}
}

// RegistrationCommit carries everything the registration commit
// needs. The password arrives already hashed; plan price and name
// come from server-held data, never from the request.
type RegistrationCommit struct {
	Email              string
	PasswordHash       string
	FirstName          string
	LastName           string
	Phone              string
	AlternativeContact string
	Address            string
	DateOfBirth        *time.Time
	PlanName           string
	PlanPriceMinor     int64
	PaymentID          string
	OrderID            string
	AmountMinor        int64
	Currency           string
}

// EnrollmentCommit carries everything the enrollment commit needs.
// EndDate may be nil, in which case it defaults to StartDate plus
// thirty days.
type EnrollmentCommit struct {
	MemberID    uint64
	CourseID    uint64
	StartDate   time.Time
	EndDate     *time.Time
	PaymentID   string
	OrderID     string
	AmountMinor int64
	Currency    string
}

// CommitResult reports what a commit attempt did. Exactly one of
// three shapes comes back on a nil error:
//   - AlreadyCommitted: this payment id was committed earlier; no
//     new writes happened.
//   - Violation set (with Reconciled true): the payment was recorded
//     and flagged for reconciliation but the domain records were
//     withheld because a business invariant failed at commit time.
//   - neither: the full commit succeeded and the ids are populated.
type CommitResult struct {
	AlreadyCommitted bool
	Reconciled       bool
	Violation        error
	UserID           uint64
	MemberID         uint64
	EnrollmentID     uint64
	PaymentRowID     uint64
}

// CommitRegistration materializes a verified membership payment:
// payment record, user, plan resolution and member profile in one
// transaction. A duplicate email discovered here (the account was
// taken while the payment was in flight) keeps the payment record,
// flags it for reconciliation and withholds the user and member.
func (c *Committer) CommitRegistration(ctx context.Context, rc RegistrationCommit) (CommitResult, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return CommitResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	payRowID, err := c.payments.CreateTx(ctx, tx, model.Payment{
		Kind:              model.PaymentKindMembership,
		RazorpayPaymentID: rc.PaymentID,
		RazorpayOrderID:   rc.OrderID,
		AmountMinor:       rc.AmountMinor,
		Currency:          rc.Currency,
		Status:            model.PaymentStatusCompleted,
	})
	if err == ErrDuplicatePayment {
		return CommitResult{AlreadyCommitted: true}, nil
	}
	if err != nil {
		return CommitResult{}, err
	}

	userID, err := c.users.CreateTx(ctx, tx, rc.Email, rc.PasswordHash, rc.FirstName, rc.LastName, "MEMBER")
	if err == ErrEmailExists {
		// money moved; keep the payment, withhold the account
		if ferr := c.payments.FlagReconciliationTx(ctx, tx, payRowID); ferr != nil {
			return CommitResult{}, ferr
		}
		if cerr := tx.Commit(); cerr != nil {
			return CommitResult{}, cerr
		}
		committed = true
		return CommitResult{Reconciled: true, Violation: ErrEmailExists, PaymentRowID: payRowID}, nil
	}
	if err != nil {
		return CommitResult{}, err
	}

	plan, err := c.plans.GetOrCreateTx(ctx, tx, rc.PlanName, rc.PlanPriceMinor, rc.PlanName+" membership plan")
	if err != nil {
		return CommitResult{}, err
	}

	memberID, err := c.members.CreateTx(ctx, tx, userID, plan.ID,
		rc.Phone, rc.AlternativeContact, rc.Address, rc.DateOfBirth, time.Now().UTC())
	if err != nil {
		return CommitResult{}, err
	}
	if err := c.payments.AttachMemberTx(ctx, tx, payRowID, memberID); err != nil {
		return CommitResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return CommitResult{}, err
	}
	committed = true
	return CommitResult{UserID: userID, MemberID: memberID, PaymentRowID: payRowID}, nil
}

// CommitEnrollment materializes a verified course payment: payment
// record, invariant re-checks, capacity claim and enrollment row in
// one transaction. The capacity re-check happens inside the guarded
// increment, so two concurrent commits for the last place resolve
// with exactly one enrollment. The loser keeps its payment record,
// flagged for reconciliation.
func (c *Committer) CommitEnrollment(ctx context.Context, ec EnrollmentCommit) (CommitResult, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return CommitResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	memberID := ec.MemberID
	payRowID, err := c.payments.CreateTx(ctx, tx, model.Payment{
		Kind:              model.PaymentKindCourse,
		MemberID:          &memberID,
		RazorpayPaymentID: ec.PaymentID,
		RazorpayOrderID:   ec.OrderID,
		AmountMinor:       ec.AmountMinor,
		Currency:          ec.Currency,
		Status:            model.PaymentStatusCompleted,
	})
	if err == ErrDuplicatePayment {
		return CommitResult{AlreadyCommitted: true}, nil
	}
	if err != nil {
		return CommitResult{}, err
	}

	reconcile := func(violation error) (CommitResult, error) {
		if ferr := c.payments.FlagReconciliationTx(ctx, tx, payRowID); ferr != nil {
			return CommitResult{}, ferr
		}
		if cerr := tx.Commit(); cerr != nil {
			return CommitResult{}, cerr
		}
		committed = true
		return CommitResult{Reconciled: true, Violation: violation, MemberID: memberID, PaymentRowID: payRowID}, nil
	}

	exists, err := c.enrollments.ExistsActiveTx(ctx, tx, ec.MemberID, ec.CourseID)
	if err != nil {
		return CommitResult{}, err
	}
	if exists {
		return reconcile(ErrAlreadyEnrolled)
	}

	if err := c.courses.IncrementEnrollmentTx(ctx, tx, ec.CourseID); err != nil {
		if err == ErrCourseFull {
			return reconcile(ErrCourseFull)
		}
		return CommitResult{}, err
	}

	endDate := model.DefaultEndDate(ec.StartDate)
	if ec.EndDate != nil {
		endDate = *ec.EndDate
	}
	enrollmentID, err := c.enrollments.CreateTx(ctx, tx, ec.MemberID, ec.CourseID, ec.StartDate, endDate)
	if err != nil {
		return CommitResult{}, err
	}
	if err := c.payments.AttachEnrollmentTx(ctx, tx, payRowID, enrollmentID); err != nil {
		return CommitResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return CommitResult{}, err
	}
	committed = true
	return CommitResult{MemberID: memberID, EnrollmentID: enrollmentID, PaymentRowID: payRowID}, nil
}
