package lifecycle

import (
	"context"
	"errors"

	"github.com/iliyamo/gym-course-enrollment/internal/gateway"
	"github.com/iliyamo/gym-course-enrollment/internal/queue"
	"github.com/iliyamo/gym-course-enrollment/internal/repository"
	"github.com/iliyamo/gym-course-enrollment/internal/staging"
)

// Membership plan prices in whole rupees. The price a user pays is
// always resolved from this server-held table (or from the course
// row), never from request parameters, so a tampered client cannot
// change what is charged.
var planPrices = map[string]int64{
	"Basic":   500,
	"Premium": 1000,
}

// defaultPlan is used when the requested membership type is unknown.
const defaultPlan = "Basic"

// ErrMembershipInactive short-circuits an enrollment intent when the
// member's membership has lapsed.
var ErrMembershipInactive = errors.New("membership not active")

// ErrCourseUnavailable short-circuits an enrollment intent when the
// course is full or inactive.
var ErrCourseUnavailable = errors.New("course not available")

// ErrEmailTaken short-circuits a registration intent when the email
// is already registered, before any money moves.
var ErrEmailTaken = errors.New("email already registered")

// ValidationError reports a bad or missing form field. It recovers
// locally: the handler re-shows the field-specific message and no
// state is mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }

// Stager is the staging-store surface the workflow needs.
type Stager interface {
	Put(ctx context.Context, sessionID string, intent staging.PendingIntent) error
	Get(ctx context.Context, sessionID, kind string) (staging.PendingIntent, error)
	Clear(ctx context.Context, sessionID, kind string) error
}

// PaymentGateway is the provider boundary: create an order before
// checkout, verify the signed callback after.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (gateway.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// Committer is the atomic-commit surface. The concrete
// implementation lives in the repository package; workflows depend
// on this interface so they can be exercised with fakes.
type Committer interface {
	CommitRegistration(ctx context.Context, rc repository.RegistrationCommit) (repository.CommitResult, error)
	CommitEnrollment(ctx context.Context, ec repository.EnrollmentCommit) (repository.CommitResult, error)
}

// EnrollmentPreflight answers the intent-time duplicate-enrollment
// check. The commit transaction re-checks it authoritatively.
type EnrollmentPreflight interface {
	ExistsActive(ctx context.Context, memberID, courseID uint64) (bool, error)
}

// EmailPreflight answers the intent-time email-taken check. The
// UNIQUE key on users.email remains the authoritative barrier.
type EmailPreflight interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
}

// EventPublisher fans workflow outcomes out to the broker. Publish
// failures are logged and ignored: events are best-effort, the
// database is the source of truth.
type EventPublisher interface {
	MemberRegistered(ctx context.Context, e queue.MemberRegisteredEvent) error
	EnrollmentConfirmed(ctx context.Context, e queue.EnrollmentConfirmedEvent) error
	ReconciliationRequired(ctx context.Context, e queue.ReconciliationRequiredEvent) error
}

// Workflow orchestrates the purchase state machine for both intent
// kinds. It owns no storage itself; state between the checkout
// redirect and the callback lives in the staging store.
type Workflow struct {
	Staging    Stager
	Gateway    PaymentGateway
	Commits    Committer
	Enrolled   EnrollmentPreflight
	Emails     EmailPreflight
	Events     EventPublisher
	Currency   string
	BcryptCost int
}

// Checkout is what the client needs to open the hosted checkout UI.
// Returning it moves the flow into AwaitingCallback.
type Checkout struct {
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	KeyID       string `json:"key_id"`
}

// Outcome is the terminal result of a callback. State is always one
// of Committed, Rejected or Abandoned; Message is the specific
// user-facing explanation required for every terminal failure.
type Outcome struct {
	State            State
	AlreadyCommitted bool
	Reconciled       bool
	Message          string
	UserID           uint64
	MemberID         uint64
	EnrollmentID     uint64
}
