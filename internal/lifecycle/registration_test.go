package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/gym-course-enrollment/internal/gateway"
	"github.com/iliyamo/gym-course-enrollment/internal/staging"
	"github.com/iliyamo/gym-course-enrollment/internal/utils"
)

func validForm() RegistrationForm {
	return RegistrationForm{
		Email:          "jane@example.com",
		Password:       "s3cret-pass",
		FirstName:      "Jane",
		LastName:       "Doe",
		Phone:          "9876543210",
		MembershipType: "Basic",
	}
}

func TestBeginRegistration(t *testing.T) {
	ctx := context.Background()

	t.Run("basic plan charges 50000 paise", func(t *testing.T) {
		w, stager, gw, _, _ := testWorkflow()
		chk, err := w.BeginRegistration(ctx, "sess", validForm())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if chk.AmountMinor != 50000 || chk.Currency != "INR" {
			t.Fatalf("unexpected checkout: %+v", chk)
		}
		if chk.OrderID == "" || chk.KeyID != "rzp_test_key" {
			t.Fatalf("unexpected checkout: %+v", chk)
		}
		if len(gw.orders) != 1 || gw.orders[0].AmountMinor != 50000 {
			t.Fatalf("unexpected order calls: %+v", gw.orders)
		}
		intent, err := stager.Get(ctx, "sess", staging.KindRegistration)
		if err != nil {
			t.Fatalf("intent not staged: %v", err)
		}
		if intent.OrderID != chk.OrderID || intent.AmountMinor != 50000 {
			t.Fatalf("unexpected intent: %+v", intent)
		}
		if intent.State != string(StateAwaitingCallback) {
			t.Fatalf("expected awaiting_callback, got %s", intent.State)
		}
	})

	t.Run("unknown plan falls back to basic", func(t *testing.T) {
		w, stager, _, _, _ := testWorkflow()
		form := validForm()
		form.MembershipType = "Platinum"
		if _, err := w.BeginRegistration(ctx, "sess", form); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		intent, _ := stager.Get(ctx, "sess", staging.KindRegistration)
		if intent.Registration.MembershipType != "Basic" || intent.AmountMinor != 50000 {
			t.Fatalf("unexpected intent: %+v", intent)
		}
	})

	t.Run("missing field is a validation error", func(t *testing.T) {
		w, _, gw, _, _ := testWorkflow()
		form := validForm()
		form.Phone = ""
		_, err := w.BeginRegistration(ctx, "sess", form)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != "phone" {
			t.Fatalf("expected phone validation error, got %v", err)
		}
		if len(gw.orders) != 0 {
			t.Fatal("no order may be created for invalid input")
		}
	})

	t.Run("bad date of birth is a validation error", func(t *testing.T) {
		w, _, _, _, _ := testWorkflow()
		form := validForm()
		form.DateOfBirth = "31-12-1990"
		_, err := w.BeginRegistration(ctx, "sess", form)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != "date_of_birth" {
			t.Fatalf("expected date_of_birth validation error, got %v", err)
		}
	})

	t.Run("taken email short-circuits", func(t *testing.T) {
		w, _, gw, _, _ := testWorkflow()
		w.Emails = &fakeEmails{taken: true}
		if _, err := w.BeginRegistration(ctx, "sess", validForm()); !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
		if len(gw.orders) != 0 {
			t.Fatal("no order may be created for a taken email")
		}
	})

	t.Run("gateway failure aborts before staging", func(t *testing.T) {
		w, stager, gw, _, _ := testWorkflow()
		gw.failCreate = true
		_, err := w.BeginRegistration(ctx, "sess", validForm())
		var gwErr *gateway.Error
		if !errors.As(err, &gwErr) {
			t.Fatalf("expected gateway error, got %v", err)
		}
		if _, err := stager.Get(ctx, "sess", staging.KindRegistration); !errors.Is(err, staging.ErrNotFound) {
			t.Fatal("nothing may be staged when order creation fails")
		}
	})
}

func TestCompleteRegistration(t *testing.T) {
	ctx := context.Background()

	begin := func(t *testing.T, w *Workflow) Checkout {
		t.Helper()
		chk, err := w.BeginRegistration(ctx, "sess", validForm())
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		return chk
	}
	sign := func(orderID, paymentID string) string {
		return gateway.SignPayload(orderID, paymentID, testSecret)
	}

	t.Run("commit after valid signature", func(t *testing.T) {
		w, stager, _, committer, events := testWorkflow()
		chk := begin(t, w)

		out, err := w.CompleteRegistration(ctx, "sess", "pay_1", chk.OrderID, sign(chk.OrderID, "pay_1"))
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if out.State != StateCommitted || out.UserID == 0 || out.MemberID == 0 {
			t.Fatalf("unexpected outcome: %+v", out)
		}
		rc := committer.lastRegistration
		if rc.PlanName != "Basic" || rc.AmountMinor != 50000 {
			t.Fatalf("unexpected commit input: %+v", rc)
		}
		if rc.PasswordHash == "" || rc.PasswordHash == "s3cret-pass" {
			t.Fatal("password must be hashed before commit")
		}
		if !utils.VerifyPassword(rc.PasswordHash, "s3cret-pass") {
			t.Fatal("hash must verify against the original password")
		}
		if _, err := stager.Get(ctx, "sess", staging.KindRegistration); !errors.Is(err, staging.ErrNotFound) {
			t.Fatal("intent must be cleared after commit")
		}
		if len(events.registered) != 1 || events.registered[0].PlanName != "Basic" {
			t.Fatalf("expected member registered event, got %+v", events.registered)
		}
	})

	t.Run("expired session abandons with no mutation", func(t *testing.T) {
		w, _, _, committer, _ := testWorkflow()
		out, err := w.CompleteRegistration(ctx, "sess", "pay_1", "order_x", "sig")
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if out.State != StateAbandoned {
			t.Fatalf("expected abandoned, got %+v", out)
		}
		if len(committer.payments) != 0 {
			t.Fatal("no payment may be recorded for an expired session")
		}
	})

	t.Run("invalid signature rejects with no mutation", func(t *testing.T) {
		w, stager, _, committer, _ := testWorkflow()
		chk := begin(t, w)

		out, err := w.CompleteRegistration(ctx, "sess", "pay_1", chk.OrderID, "deadbeef")
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if out.State != StateRejected {
			t.Fatalf("expected rejected, got %+v", out)
		}
		if len(committer.payments) != 0 {
			t.Fatal("no records may be created on an invalid signature")
		}
		// intent survives so the user can retry the payment
		if _, err := stager.Get(ctx, "sess", staging.KindRegistration); err != nil {
			t.Fatalf("intent must survive a rejected signature: %v", err)
		}
	})

	t.Run("mismatched order id rejects", func(t *testing.T) {
		w, _, _, committer, _ := testWorkflow()
		begin(t, w)
		out, err := w.CompleteRegistration(ctx, "sess", "pay_1", "order_other", sign("order_other", "pay_1"))
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if out.State != StateRejected || len(committer.payments) != 0 {
			t.Fatalf("expected rejection with no mutation, got %+v", out)
		}
	})

	t.Run("repeated callback is an idempotent success", func(t *testing.T) {
		w, _, _, _, events := testWorkflow()
		chk := begin(t, w)
		sig := sign(chk.OrderID, "pay_1")

		first, err := w.CompleteRegistration(ctx, "sess", "pay_1", chk.OrderID, sig)
		if err != nil || first.State != StateCommitted {
			t.Fatalf("first callback: %+v, %v", first, err)
		}
		// provider retries: restage to simulate the intent still being
		// present, then replay the same payment id
		if _, err := w.BeginRegistration(ctx, "sess", validForm()); err != nil {
			t.Fatalf("restage: %v", err)
		}
		second, err := w.CompleteRegistration(ctx, "sess", "pay_1", chk.OrderID, sig)
		if err != nil {
			t.Fatalf("second callback: %v", err)
		}
		if second.State != StateCommitted || !second.AlreadyCommitted {
			t.Fatalf("expected already-committed success, got %+v", second)
		}
		if len(events.registered) != 1 {
			t.Fatalf("expected exactly one registered event, got %d", len(events.registered))
		}
	})

	t.Run("email taken at commit reconciles the payment", func(t *testing.T) {
		w, _, _, committer, events := testWorkflow()
		committer.emails["jane@example.com"] = true
		chk := begin(t, w)

		out, err := w.CompleteRegistration(ctx, "sess", "pay_9", chk.OrderID, sign(chk.OrderID, "pay_9"))
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if out.State != StateRejected || !out.Reconciled {
			t.Fatalf("expected reconciled rejection, got %+v", out)
		}
		if !committer.payments["pay_9"] {
			t.Fatal("the captured payment must still be recorded")
		}
		if len(events.reconciliations) != 1 || events.reconciliations[0].PaymentID != "pay_9" {
			t.Fatalf("expected reconciliation event, got %+v", events.reconciliations)
		}
	})
}
