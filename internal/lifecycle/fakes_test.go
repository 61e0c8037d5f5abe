package lifecycle

import (
	"context"
	"strconv"

	"github.com/iliyamo/gym-course-enrollment/internal/gateway"
	"github.com/iliyamo/gym-course-enrollment/internal/queue"
	"github.com/iliyamo/gym-course-enrollment/internal/repository"
	"github.com/iliyamo/gym-course-enrollment/internal/staging"
)

const testSecret = "test_secret"

// fakeStager keeps intents in a map keyed by session and kind.
type fakeStager struct {
	items map[string]staging.PendingIntent
}

func newFakeStager() *fakeStager {
	return &fakeStager{items: map[string]staging.PendingIntent{}}
}

func (f *fakeStager) key(sessionID, kind string) string { return sessionID + "/" + kind }

func (f *fakeStager) Put(_ context.Context, sessionID string, intent staging.PendingIntent) error {
	f.items[f.key(sessionID, intent.Kind)] = intent
	return nil
}

func (f *fakeStager) Get(_ context.Context, sessionID, kind string) (staging.PendingIntent, error) {
	intent, ok := f.items[f.key(sessionID, kind)]
	if !ok {
		return staging.PendingIntent{}, staging.ErrNotFound
	}
	return intent, nil
}

func (f *fakeStager) Clear(_ context.Context, sessionID, kind string) error {
	delete(f.items, f.key(sessionID, kind))
	return nil
}

// orderCall records what was sent to the provider.
type orderCall struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// fakeGateway issues sequential order ids and verifies signatures
// with the real HMAC scheme under testSecret.
type fakeGateway struct {
	orders     []orderCall
	failCreate bool
	seq        int
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (gateway.Order, error) {
	if f.failCreate {
		return gateway.Order{}, &gateway.Error{StatusCode: 502, Message: "provider unavailable"}
	}
	f.seq++
	f.orders = append(f.orders, orderCall{AmountMinor: amountMinor, Currency: currency, Receipt: receipt, Notes: notes})
	return gateway.Order{ID: "order_" + strconv.Itoa(f.seq), AmountMinor: amountMinor, Currency: currency, Receipt: receipt}, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == gateway.SignPayload(orderID, paymentID, testSecret)
}

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

// fakeCommitter emulates the database constraints in memory: the
// unique payment id, the unique email, the duplicate-enrollment
// check and the guarded capacity counter.
type fakeCommitter struct {
	payments       map[string]bool
	emails         map[string]bool
	activeEnrolled bool
	capacity       int
	current        int

	nextUserID       uint64
	nextMemberID     uint64
	nextEnrollmentID uint64

	lastRegistration repository.RegistrationCommit
	lastEnrollment   repository.EnrollmentCommit
}

func newFakeCommitter() *fakeCommitter {
	return &fakeCommitter{
		payments: map[string]bool{},
		emails:   map[string]bool{},
		capacity: 10,
	}
}

func (f *fakeCommitter) CommitRegistration(_ context.Context, rc repository.RegistrationCommit) (repository.CommitResult, error) {
	if f.payments[rc.PaymentID] {
		return repository.CommitResult{AlreadyCommitted: true}, nil
	}
	f.payments[rc.PaymentID] = true
	if f.emails[rc.Email] {
		return repository.CommitResult{Reconciled: true, Violation: repository.ErrEmailExists}, nil
	}
	f.emails[rc.Email] = true
	f.lastRegistration = rc
	f.nextUserID++
	f.nextMemberID++
	return repository.CommitResult{UserID: f.nextUserID, MemberID: f.nextMemberID}, nil
}

func (f *fakeCommitter) CommitEnrollment(_ context.Context, ec repository.EnrollmentCommit) (repository.CommitResult, error) {
	if f.payments[ec.PaymentID] {
		return repository.CommitResult{AlreadyCommitted: true}, nil
	}
	f.payments[ec.PaymentID] = true
	if f.activeEnrolled {
		return repository.CommitResult{Reconciled: true, Violation: repository.ErrAlreadyEnrolled, MemberID: ec.MemberID}, nil
	}
	if f.current >= f.capacity {
		return repository.CommitResult{Reconciled: true, Violation: repository.ErrCourseFull, MemberID: ec.MemberID}, nil
	}
	f.current++
	f.lastEnrollment = ec
	f.nextEnrollmentID++
	return repository.CommitResult{MemberID: ec.MemberID, EnrollmentID: f.nextEnrollmentID}, nil
}

// fakeEvents records published events.
type fakeEvents struct {
	registered      []queue.MemberRegisteredEvent
	confirmed       []queue.EnrollmentConfirmedEvent
	reconciliations []queue.ReconciliationRequiredEvent
}

func (f *fakeEvents) MemberRegistered(_ context.Context, e queue.MemberRegisteredEvent) error {
	f.registered = append(f.registered, e)
	return nil
}

func (f *fakeEvents) EnrollmentConfirmed(_ context.Context, e queue.EnrollmentConfirmedEvent) error {
	f.confirmed = append(f.confirmed, e)
	return nil
}

func (f *fakeEvents) ReconciliationRequired(_ context.Context, e queue.ReconciliationRequiredEvent) error {
	f.reconciliations = append(f.reconciliations, e)
	return nil
}

// fakeEmails answers the intent-time email check.
type fakeEmails struct{ taken bool }

func (f *fakeEmails) EmailTaken(_ context.Context, _ string) (bool, error) { return f.taken, nil }

// fakeEnrolled answers the intent-time duplicate-enrollment check.
type fakeEnrolled struct{ exists bool }

func (f *fakeEnrolled) ExistsActive(_ context.Context, _, _ uint64) (bool, error) {
	return f.exists, nil
}

// testWorkflow assembles a workflow over fresh fakes.
func testWorkflow() (*Workflow, *fakeStager, *fakeGateway, *fakeCommitter, *fakeEvents) {
	stager := newFakeStager()
	gw := &fakeGateway{}
	committer := newFakeCommitter()
	events := &fakeEvents{}
	w := &Workflow{
		Staging:    stager,
		Gateway:    gw,
		Commits:    committer,
		Enrolled:   &fakeEnrolled{},
		Emails:     &fakeEmails{},
		Events:     events,
		Currency:   "INR",
		BcryptCost: 4, // bcrypt.MinCost keeps the tests fast
	}
	return w, stager, gw, committer, events
}
