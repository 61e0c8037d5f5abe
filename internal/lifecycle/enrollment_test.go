package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/gym-course-enrollment/internal/gateway"
	"github.com/iliyamo/gym-course-enrollment/internal/model"
	"github.com/iliyamo/gym-course-enrollment/internal/repository"
	"github.com/iliyamo/gym-course-enrollment/internal/staging"
)

func activeMember() model.Member {
	end := time.Now().UTC().Add(20 * 24 * time.Hour)
	return model.Member{
		ID:                     7,
		UserID:                 3,
		PlanID:                 1,
		Phone:                  "9876543210",
		MembershipPurchaseDate: time.Now().UTC().Add(-10 * 24 * time.Hour),
		MembershipEndDate:      &end,
		IsActive:               true,
	}
}

func openCourse() model.Course {
	return model.Course{
		ID:                5,
		Name:              "Morning Yoga",
		PriceMinor:        150000,
		Capacity:          10,
		CurrentEnrollment: 4,
		IsActive:          true,
	}
}

func TestBeginEnrollment(t *testing.T) {
	ctx := context.Background()

	t.Run("stages intent at the course price", func(t *testing.T) {
		w, stager, gw, _, _ := testWorkflow()
		chk, err := w.BeginEnrollment(ctx, "sess", activeMember(), openCourse())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if chk.AmountMinor != 150000 || chk.Currency != "INR" {
			t.Fatalf("unexpected checkout: %+v", chk)
		}
		if len(gw.orders) != 1 || gw.orders[0].AmountMinor != 150000 {
			t.Fatalf("unexpected order calls: %+v", gw.orders)
		}
		intent, err := stager.Get(ctx, "sess", staging.KindCourseEnrollment)
		if err != nil {
			t.Fatalf("intent not staged: %v", err)
		}
		if intent.Enrollment == nil || intent.Enrollment.MemberID != 7 || intent.Enrollment.CourseID != 5 {
			t.Fatalf("unexpected intent: %+v", intent)
		}
	})

	t.Run("lapsed membership", func(t *testing.T) {
		w, _, gw, _, _ := testWorkflow()
		member := activeMember()
		past := time.Now().UTC().Add(-24 * time.Hour)
		member.MembershipEndDate = &past
		if _, err := w.BeginEnrollment(ctx, "sess", member, openCourse()); !errors.Is(err, ErrMembershipInactive) {
			t.Fatalf("expected ErrMembershipInactive, got %v", err)
		}
		if len(gw.orders) != 0 {
			t.Fatal("no order may be created for a lapsed membership")
		}
	})

	t.Run("full course", func(t *testing.T) {
		w, _, _, _, _ := testWorkflow()
		course := openCourse()
		course.CurrentEnrollment = course.Capacity
		if _, err := w.BeginEnrollment(ctx, "sess", activeMember(), course); !errors.Is(err, ErrCourseUnavailable) {
			t.Fatalf("expected ErrCourseUnavailable, got %v", err)
		}
	})

	t.Run("inactive course", func(t *testing.T) {
		w, _, _, _, _ := testWorkflow()
		course := openCourse()
		course.IsActive = false
		if _, err := w.BeginEnrollment(ctx, "sess", activeMember(), course); !errors.Is(err, ErrCourseUnavailable) {
			t.Fatalf("expected ErrCourseUnavailable, got %v", err)
		}
	})

	t.Run("already enrolled", func(t *testing.T) {
		w, _, _, _, _ := testWorkflow()
		w.Enrolled = &fakeEnrolled{exists: true}
		if _, err := w.BeginEnrollment(ctx, "sess", activeMember(), openCourse()); !errors.Is(err, repository.ErrAlreadyEnrolled) {
			t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
		}
	})
}

func TestCompleteEnrollment(t *testing.T) {
	ctx := context.Background()

	begin := func(t *testing.T, w *Workflow, sessionID string) Checkout {
		t.Helper()
		chk, err := w.BeginEnrollment(ctx, sessionID, activeMember(), openCourse())
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		return chk
	}
	sign := func(orderID, paymentID string) string {
		return gateway.SignPayload(orderID, paymentID, testSecret)
	}

	t.Run("commit grants thirty days of access", func(t *testing.T) {
		w, stager, _, committer, events := testWorkflow()
		chk := begin(t, w, "sess")

		out, err := w.CompleteEnrollment(ctx, "sess", "pay_1", chk.OrderID, sign(chk.OrderID, "pay_1"))
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if out.State != StateCommitted || out.EnrollmentID == 0 {
			t.Fatalf("unexpected outcome: %+v", out)
		}
		ec := committer.lastEnrollment
		if ec.MemberID != 7 || ec.CourseID != 5 {
			t.Fatalf("unexpected commit input: %+v", ec)
		}
		if ec.EndDate == nil || !ec.EndDate.Equal(ec.StartDate.Add(model.EnrollmentDuration)) {
			t.Fatalf("end date must be start + 30 days, got %+v", ec)
		}
		if committer.current != 1 {
			t.Fatalf("expected one occupied seat, got %d", committer.current)
		}
		if _, err := stager.Get(ctx, "sess", staging.KindCourseEnrollment); !errors.Is(err, staging.ErrNotFound) {
			t.Fatal("intent must be cleared after commit")
		}
		if len(events.confirmed) != 1 || events.confirmed[0].CourseName != "Morning Yoga" {
			t.Fatalf("expected enrollment confirmed event, got %+v", events.confirmed)
		}
	})

	t.Run("expired session abandons", func(t *testing.T) {
		w, _, _, committer, _ := testWorkflow()
		out, err := w.CompleteEnrollment(ctx, "sess", "pay_1", "order_x", "sig")
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if out.State != StateAbandoned || len(committer.payments) != 0 {
			t.Fatalf("expected abandoned with no mutation, got %+v", out)
		}
	})

	t.Run("invalid signature keeps the intent", func(t *testing.T) {
		w, stager, _, committer, _ := testWorkflow()
		chk := begin(t, w, "sess")
		out, err := w.CompleteEnrollment(ctx, "sess", "pay_1", chk.OrderID, "deadbeef")
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if out.State != StateRejected || len(committer.payments) != 0 {
			t.Fatalf("expected rejection with no mutation, got %+v", out)
		}
		if _, err := stager.Get(ctx, "sess", staging.KindCourseEnrollment); err != nil {
			t.Fatalf("intent must survive a rejected signature: %v", err)
		}
	})

	t.Run("duplicate callback does not grab a second seat", func(t *testing.T) {
		w, _, _, committer, _ := testWorkflow()
		chk := begin(t, w, "sess")
		sig := sign(chk.OrderID, "pay_1")

		first, err := w.CompleteEnrollment(ctx, "sess", "pay_1", chk.OrderID, sig)
		if err != nil || first.State != StateCommitted {
			t.Fatalf("first callback: %+v, %v", first, err)
		}
		begin(t, w, "sess")
		second, err := w.CompleteEnrollment(ctx, "sess", "pay_1", chk.OrderID, sig)
		if err != nil {
			t.Fatalf("second callback: %v", err)
		}
		if second.State != StateCommitted || !second.AlreadyCommitted {
			t.Fatalf("expected already-committed success, got %+v", second)
		}
		if committer.current != 1 {
			t.Fatalf("seat counter incremented twice: %d", committer.current)
		}
	})

	t.Run("last seat race reconciles the loser", func(t *testing.T) {
		w, _, _, committer, events := testWorkflow()
		committer.capacity = 1

		chkA := begin(t, w, "alice")
		chkB := begin(t, w, "bob")

		winner, err := w.CompleteEnrollment(ctx, "alice", "pay_a", chkA.OrderID, sign(chkA.OrderID, "pay_a"))
		if err != nil || winner.State != StateCommitted {
			t.Fatalf("winner: %+v, %v", winner, err)
		}
		loser, err := w.CompleteEnrollment(ctx, "bob", "pay_b", chkB.OrderID, sign(chkB.OrderID, "pay_b"))
		if err != nil {
			t.Fatalf("loser: %v", err)
		}
		if loser.State != StateRejected || !loser.Reconciled {
			t.Fatalf("expected reconciled rejection, got %+v", loser)
		}
		if committer.current != 1 {
			t.Fatalf("expected exactly one occupied seat, got %d", committer.current)
		}
		// the loser's money moved, so the payment row stays and an
		// operator event goes out
		if !committer.payments["pay_b"] {
			t.Fatal("the captured payment must still be recorded")
		}
		if len(events.reconciliations) != 1 || events.reconciliations[0].PaymentID != "pay_b" {
			t.Fatalf("expected reconciliation event, got %+v", events.reconciliations)
		}
		if events.reconciliations[0].Reason != repository.ErrCourseFull.Error() {
			t.Fatalf("unexpected reason: %q", events.reconciliations[0].Reason)
		}
	})

	t.Run("duplicate enrollment at commit reconciles", func(t *testing.T) {
		w, _, _, committer, _ := testWorkflow()
		chk := begin(t, w, "sess")
		committer.activeEnrolled = true

		out, err := w.CompleteEnrollment(ctx, "sess", "pay_1", chk.OrderID, sign(chk.OrderID, "pay_1"))
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if out.State != StateRejected || !out.Reconciled {
			t.Fatalf("expected reconciled rejection, got %+v", out)
		}
		if committer.current != 0 {
			t.Fatal("no seat may be taken for a duplicate enrollment")
		}
	})
}
