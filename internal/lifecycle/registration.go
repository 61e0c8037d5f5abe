package lifecycle

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/gym-course-enrollment/internal/gateway"
	"github.com/iliyamo/gym-course-enrollment/internal/queue"
	"github.com/iliyamo/gym-course-enrollment/internal/repository"
	"github.com/iliyamo/gym-course-enrollment/internal/staging"
	"github.com/iliyamo/gym-course-enrollment/internal/utils"
)

// RegistrationForm is the untrusted input of a registration intent.
type RegistrationForm struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Phone              string `json:"phone"`
	AlternativeContact string `json:"alternative_contact"`
	DateOfBirth        string `json:"date_of_birth"`
	Address            string `json:"address"`
	MembershipType     string `json:"membership_type"`
}

// validate checks required fields and formats. It mutates nothing.
func (f *RegistrationForm) validate() error {
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	required := []struct{ field, value string }{
		{"email", f.Email},
		{"password", f.Password},
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
		{"phone", f.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Reason: "required"}
		}
	}
	if !strings.Contains(f.Email, "@") {
		return &ValidationError{Field: "email", Reason: "invalid email address"}
	}
	if f.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", f.DateOfBirth); err != nil {
			return &ValidationError{Field: "date_of_birth", Reason: "must be YYYY-MM-DD"}
		}
	}
	return nil
}

// planFor resolves the membership type to a known plan, defaulting
// to Basic for unknown values, and returns the plan name and its
// price in rupees.
func planFor(membershipType string) (string, int64) {
	if price, ok := planPrices[membershipType]; ok {
		return membershipType, price
	}
	return defaultPlan, planPrices[defaultPlan]
}

// BeginRegistration captures a registration intent: validates the
// form, resolves the plan price server-side, creates the payment
// order and stages the pending intent under the checkout session.
// On success the flow is in AwaitingCallback and the returned
// Checkout is handed to the hosted payment UI.
func (w *Workflow) BeginRegistration(ctx context.Context, sessionID string, form RegistrationForm) (Checkout, error) {
	if err := form.validate(); err != nil {
		return Checkout{}, err
	}
	taken, err := w.Emails.EmailTaken(ctx, form.Email)
	if err != nil {
		return Checkout{}, err
	}
	if taken {
		return Checkout{}, ErrEmailTaken
	}

	planName, priceRupees := planFor(form.MembershipType)
	form.MembershipType = planName
	amountMinor := gateway.MinorUnits(priceRupees)

	order, err := w.Gateway.CreateOrder(ctx, amountMinor, w.Currency,
		gateway.NewReceipt("membership_"+strings.ToLower(planName)),
		map[string]string{
			"kind":    staging.KindRegistration,
			"subject": planName + " membership",
		})
	if err != nil {
		return Checkout{}, err
	}

	reg := staging.RegistrationData(form)
	intent := staging.PendingIntent{
		Kind:         staging.KindRegistration,
		State:        string(StateAwaitingCallback),
		OrderID:      order.ID,
		AmountMinor:  amountMinor,
		Currency:     w.Currency,
		Registration: &reg,
		CreatedAt:    time.Now().UTC(),
	}
	if err := w.Staging.Put(ctx, sessionID, intent); err != nil {
		return Checkout{}, err
	}

	return Checkout{
		OrderID:     order.ID,
		AmountMinor: amountMinor,
		Currency:    w.Currency,
		KeyID:       w.Gateway.KeyID(),
	}, nil
}

// CompleteRegistration handles the provider callback for a
// registration intent: re-reads the staged intent, verifies the
// signature and runs the atomic commit. It always returns a terminal
// Outcome on a nil error; a non-nil error is an internal failure the
// handler reports as such.
func (w *Workflow) CompleteRegistration(ctx context.Context, sessionID, paymentID, orderID, signature string) (Outcome, error) {
	intent, err := w.Staging.Get(ctx, sessionID, staging.KindRegistration)
	if errors.Is(err, staging.ErrNotFound) {
		return Outcome{State: StateAbandoned,
			Message: "session expired or invalid, please start registration again"}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	if orderID != intent.OrderID || !w.Gateway.VerifySignature(orderID, paymentID, signature) {
		// staged intent is kept so the user can retry the payment
		log.Printf("registration: signature verification failed for order %s", orderID)
		return Outcome{State: StateRejected,
			Message: "payment verification failed, please try again"}, nil
	}

	reg := intent.Registration
	hash, err := utils.HashPassword(reg.Password, w.BcryptCost)
	if err != nil {
		return Outcome{}, err
	}
	var dob *time.Time
	if reg.DateOfBirth != "" {
		if d, perr := time.Parse("2006-01-02", reg.DateOfBirth); perr == nil {
			dob = &d
		}
	}

	res, err := w.Commits.CommitRegistration(ctx, repository.RegistrationCommit{
		Email:              reg.Email,
		PasswordHash:       hash,
		FirstName:          reg.FirstName,
		LastName:           reg.LastName,
		Phone:              reg.Phone,
		AlternativeContact: reg.AlternativeContact,
		Address:            reg.Address,
		DateOfBirth:        dob,
		PlanName:           reg.MembershipType,
		PlanPriceMinor:     intent.AmountMinor,
		PaymentID:          paymentID,
		OrderID:            orderID,
		AmountMinor:        intent.AmountMinor,
		Currency:           intent.Currency,
	})
	if err != nil {
		return Outcome{}, err
	}

	_ = w.Staging.Clear(ctx, sessionID, staging.KindRegistration)

	switch {
	case res.AlreadyCommitted:
		return Outcome{State: StateCommitted, AlreadyCommitted: true,
			Message: "registration already completed"}, nil
	case res.Reconciled:
		w.publishReconciliation(ctx, queue.ReconciliationRequiredEvent{
			Kind:        staging.KindRegistration,
			Reason:      res.Violation.Error(),
			PaymentID:   paymentID,
			OrderID:     orderID,
			AmountMinor: intent.AmountMinor,
			Currency:    intent.Currency,
			OccurredAt:  time.Now().UTC().Format(time.RFC3339),
		})
		return Outcome{State: StateRejected, Reconciled: true,
			Message: "payment received but the email address is already registered; contact support for a refund"}, nil
	default:
		if w.Events != nil {
			_ = w.Events.MemberRegistered(ctx, queue.MemberRegisteredEvent{
				UserID:      res.UserID,
				MemberID:    res.MemberID,
				Email:       reg.Email,
				FirstName:   reg.FirstName,
				PlanName:    reg.MembershipType,
				AmountMinor: intent.AmountMinor,
				Currency:    intent.Currency,
				PaymentID:   paymentID,
				CommittedAt: time.Now().UTC().Format(time.RFC3339),
			})
		}
		return Outcome{State: StateCommitted,
			Message: "registration successful, welcome to the gym",
			UserID:  res.UserID, MemberID: res.MemberID}, nil
	}
}

func (w *Workflow) publishReconciliation(ctx context.Context, e queue.ReconciliationRequiredEvent) {
	if w.Events == nil {
		return
	}
	if err := w.Events.ReconciliationRequired(ctx, e); err != nil {
		log.Printf("lifecycle: reconciliation event publish failed for payment %s: %v", e.PaymentID, err)
	}
}
