package lifecycle

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/gym-course-enrollment/internal/gateway"
	"github.com/iliyamo/gym-course-enrollment/internal/model"
	"github.com/iliyamo/gym-course-enrollment/internal/queue"
	"github.com/iliyamo/gym-course-enrollment/internal/repository"
	"github.com/iliyamo/gym-course-enrollment/internal/staging"
)

// BeginEnrollment captures a course enrollment intent for an
// existing member. The synchronous preconditions run here, each with
// its own specific failure: active membership, course availability,
// no duplicate active enrollment. The amount is the course price as
// stored server-side; the commit transaction re-checks everything
// because time passes while the user is on the hosted checkout.
func (w *Workflow) BeginEnrollment(ctx context.Context, sessionID string, member model.Member, course model.Course) (Checkout, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if !member.HasActiveMembership(today) {
		return Checkout{}, ErrMembershipInactive
	}
	if !course.IsAvailable() {
		return Checkout{}, ErrCourseUnavailable
	}
	exists, err := w.Enrolled.ExistsActive(ctx, member.ID, course.ID)
	if err != nil {
		return Checkout{}, err
	}
	if exists {
		return Checkout{}, repository.ErrAlreadyEnrolled
	}

	order, err := w.Gateway.CreateOrder(ctx, course.PriceMinor, w.Currency,
		gateway.NewReceipt("course_"+courseSlug(course.Name)),
		map[string]string{
			"kind":    staging.KindCourseEnrollment,
			"subject": course.Name,
		})
	if err != nil {
		return Checkout{}, err
	}

	intent := staging.PendingIntent{
		Kind:        staging.KindCourseEnrollment,
		State:       string(StateAwaitingCallback),
		OrderID:     order.ID,
		AmountMinor: course.PriceMinor,
		Currency:    w.Currency,
		Enrollment: &staging.EnrollmentData{
			MemberID:   member.ID,
			CourseID:   course.ID,
			CourseName: course.Name,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := w.Staging.Put(ctx, sessionID, intent); err != nil {
		return Checkout{}, err
	}

	return Checkout{
		OrderID:     order.ID,
		AmountMinor: course.PriceMinor,
		Currency:    w.Currency,
		KeyID:       w.Gateway.KeyID(),
	}, nil
}

// CompleteEnrollment handles the provider callback for an enrollment
// intent. Like CompleteRegistration it always maps to a terminal
// Outcome: Abandoned when the session expired, Rejected on a bad
// signature or a commit-time invariant failure, Committed otherwise.
// A repeated callback for an already-committed payment id is a
// success no-op; the capacity counter is never incremented twice.
func (w *Workflow) CompleteEnrollment(ctx context.Context, sessionID, paymentID, orderID, signature string) (Outcome, error) {
	intent, err := w.Staging.Get(ctx, sessionID, staging.KindCourseEnrollment)
	if errors.Is(err, staging.ErrNotFound) {
		return Outcome{State: StateAbandoned,
			Message: "session expired, please start enrollment again"}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	if orderID != intent.OrderID || !w.Gateway.VerifySignature(orderID, paymentID, signature) {
		log.Printf("enrollment: signature verification failed for order %s", orderID)
		return Outcome{State: StateRejected,
			Message: "payment verification failed, please try again"}, nil
	}

	enr := intent.Enrollment
	startDate := time.Now().UTC().Truncate(24 * time.Hour)
	endDate := model.DefaultEndDate(startDate)

	res, err := w.Commits.CommitEnrollment(ctx, repository.EnrollmentCommit{
		MemberID:    enr.MemberID,
		CourseID:    enr.CourseID,
		StartDate:   startDate,
		EndDate:     &endDate,
		PaymentID:   paymentID,
		OrderID:     orderID,
		AmountMinor: intent.AmountMinor,
		Currency:    intent.Currency,
	})
	if err != nil {
		return Outcome{}, err
	}

	_ = w.Staging.Clear(ctx, sessionID, staging.KindCourseEnrollment)

	switch {
	case res.AlreadyCommitted:
		return Outcome{State: StateCommitted, AlreadyCommitted: true,
			Message: "enrollment already completed"}, nil
	case res.Reconciled:
		w.publishReconciliation(ctx, queue.ReconciliationRequiredEvent{
			Kind:        staging.KindCourseEnrollment,
			Reason:      res.Violation.Error(),
			PaymentID:   paymentID,
			OrderID:     orderID,
			MemberID:    enr.MemberID,
			CourseID:    enr.CourseID,
			AmountMinor: intent.AmountMinor,
			Currency:    intent.Currency,
			OccurredAt:  time.Now().UTC().Format(time.RFC3339),
		})
		return Outcome{State: StateRejected, Reconciled: true, MemberID: enr.MemberID,
			Message: reconciliationMessage(res.Violation)}, nil
	default:
		if w.Events != nil {
			_ = w.Events.EnrollmentConfirmed(ctx, queue.EnrollmentConfirmedEvent{
				EnrollmentID: res.EnrollmentID,
				MemberID:     res.MemberID,
				CourseID:     enr.CourseID,
				CourseName:   enr.CourseName,
				StartDate:    startDate.Format("2006-01-02"),
				EndDate:      endDate.Format("2006-01-02"),
				AmountMinor:  intent.AmountMinor,
				Currency:     intent.Currency,
				PaymentID:    paymentID,
				CommittedAt:  time.Now().UTC().Format(time.RFC3339),
			})
		}
		return Outcome{State: StateCommitted,
			Message:  "enrollment successful, access valid for 30 days",
			MemberID: res.MemberID, EnrollmentID: res.EnrollmentID}, nil
	}
}

// reconciliationMessage picks the specific user-facing explanation
// for a payment that was captured while the commit invariant failed.
// These must never collapse into a generic error: money has moved.
func reconciliationMessage(violation error) string {
	switch {
	case errors.Is(violation, repository.ErrCourseFull):
		return "payment received but the course filled up; our team will contact you about a refund or a seat"
	case errors.Is(violation, repository.ErrAlreadyEnrolled):
		return "payment received but you are already enrolled; contact support for a refund"
	default:
		return "payment received but the enrollment could not be completed; contact support"
	}
}

func courseSlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}
