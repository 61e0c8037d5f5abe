// Package queue defines message payloads exchanged over the message broker.
package queue

// MemberRegisteredEvent is published when a paid registration commit
// succeeds. Downstream consumers use it for welcome mail, CRM sync
// and analytics without querying the primary database.
type MemberRegisteredEvent struct {
	UserID      uint64 `json:"user_id"`
	MemberID    uint64 `json:"member_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	PlanName    string `json:"plan_name"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	PaymentID   string `json:"payment_id"`
	CommittedAt string `json:"committed_at"`
}

// EnrollmentConfirmedEvent is published when a course enrollment
// commit succeeds.
type EnrollmentConfirmedEvent struct {
	EnrollmentID uint64 `json:"enrollment_id"`
	MemberID     uint64 `json:"member_id"`
	CourseID     uint64 `json:"course_id"`
	CourseName   string `json:"course_name"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	AmountMinor  int64  `json:"amount_minor"`
	Currency     string `json:"currency"`
	PaymentID    string `json:"payment_id"`
	CommittedAt  string `json:"committed_at"`
}

// ReconciliationRequiredEvent is published when a payment was
// captured by the provider but the commit withheld the domain
// records (course filled up, duplicate enrollment, email taken).
// Operators consume this queue to refund or manually place the
// purchase; the payment row carries the needs_reconciliation flag as
// the durable marker.
type ReconciliationRequiredEvent struct {
	Kind        string `json:"kind"`
	Reason      string `json:"reason"`
	PaymentID   string `json:"payment_id"`
	OrderID     string `json:"order_id"`
	MemberID    uint64 `json:"member_id,omitempty"`
	CourseID    uint64 `json:"course_id,omitempty"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	OccurredAt  string `json:"occurred_at"`
}

// Queue names. Declared durable by both publisher and consumer.
const (
	EnrollmentConfirmedQueue    = "enrollment.confirmed"
	MemberRegisteredQueue       = "member.registered"
	ReconciliationRequiredQueue = "payment.reconciliation"
)
