package model

import "time"

// Payment kinds distinguish what a payment purchased.
const (
    PaymentKindMembership = "membership"
    PaymentKindCourse     = "course"
)

// Payment statuses mirror the provider-side payment life.  Records
// are written only with StatusCompleted by this service; the other
// values exist for admin tooling and refunds.
const (
    PaymentStatusPending   = "pending"
    PaymentStatusCompleted = "completed"
    PaymentStatusFailed    = "failed"
    PaymentStatusRefunded  = "refunded"
)

// Payment is the immutable audit record written by a commit.  The
// external payment id carries a UNIQUE key which doubles as the
// idempotency barrier for repeated provider callbacks.  A completed
// payment with NeedsReconciliation set and no member/enrollment
// reference is the "money captured but seat unavailable" case that
// operators must resolve manually.
//
// Fields:
//  ID                   – primary key identifier.
//  Kind                 – membership or course payment.
//  MemberID             – member credited (nullable for reconciliation rows).
//  EnrollmentID         – enrollment purchased (nullable; course kind only).
//  RazorpayPaymentID    – unique external payment identifier.
//  RazorpayOrderID      – external order the payment settled.
//  AmountMinor          – captured amount in minor currency units.
//  Currency             – ISO currency code of the captured amount.
//  Status               – payment status enum.
//  NeedsReconciliation  – payment captured but domain records withheld.
//  PaidAt               – timestamp the payment was recorded.
type Payment struct {
    ID                  uint64    // payments.id
    Kind                string    // payments.kind
    MemberID            *uint64   // payments.member_id (nullable)
    EnrollmentID        *uint64   // payments.enrollment_id (nullable)
    RazorpayPaymentID   string    // payments.razorpay_payment_id
    RazorpayOrderID     string    // payments.razorpay_order_id
    AmountMinor         int64     // payments.amount_minor
    Currency            string    // payments.currency
    Status              string    // payments.status
    NeedsReconciliation bool      // payments.needs_reconciliation
    PaidAt              time.Time // payments.paid_at
}
