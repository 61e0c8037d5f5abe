package model

import "time"

// MembershipPlan represents a row in the `membership_plans` table.
// Plans are seeded once (Basic, Premium) and looked up by name when
// a registration payment is committed; a missing plan is created on
// the fly with the configured price so the commit never fails on a
// missing seed row.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique plan name (e.g. Basic, Premium).
//  PriceMinor  – plan price in minor currency units (paise).
//  Description – free-form plan description.
//  IsActive    – whether the plan can still be purchased.
type MembershipPlan struct {
    ID          uint64 // membership_plans.id
    Name        string // membership_plans.name
    PriceMinor  int64  // membership_plans.price_minor
    Description string // membership_plans.description
    IsActive    bool   // membership_plans.is_active
}

// Member holds the gym profile attached one-to-one to a user.  A
// member row is created exactly once per user by the registration
// commit.  Membership validity is a date window; admin renewals move
// MembershipEndDate forward (outside the scope of this service's
// write paths).
//
// Fields:
//  ID                     – primary key identifier.
//  UserID                 – owning user (unique).
//  PlanID                 – purchased membership plan.
//  Phone                  – contact phone number.
//  AlternativeContact     – optional secondary contact.
//  DateOfBirth            – optional date of birth.
//  Address                – optional postal address.
//  MembershipPurchaseDate – date the membership was purchased.
//  MembershipEndDate      – date the membership lapses (nullable,
//                           null means no expiry has been set).
//  IsActive               – whether the membership is active.
type Member struct {
    ID                     uint64     // members.id
    UserID                 uint64     // members.user_id
    PlanID                 uint64     // members.plan_id
    Phone                  string     // members.phone
    AlternativeContact     string     // members.alternative_contact
    DateOfBirth            *time.Time // members.date_of_birth (nullable)
    Address                string     // members.address
    MembershipPurchaseDate time.Time  // members.membership_purchase_date
    MembershipEndDate      *time.Time // members.membership_end_date (nullable)
    IsActive               bool       // members.is_active
}

// HasActiveMembership reports whether the member may purchase
// courses: the membership flag must be on and the end date, when
// set, must not have passed as of the given day.
func (m Member) HasActiveMembership(today time.Time) bool {
    if !m.IsActive {
        return false
    }
    if m.MembershipEndDate == nil {
        return true
    }
    return !m.MembershipEndDate.Before(today)
}
