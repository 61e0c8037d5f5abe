package model

import "time"

// Course represents a purchasable training course as stored in the
// `courses` table.  Capacity is a fixed ceiling set by the studio;
// CurrentEnrollment is a derived counter equal to the number of
// active, non-expired enrollments.  The counter is mutated only by
// the enrollment commit transaction, never recomputed inline.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – course name shown in the catalog.
//  TrainerID         – trainer running the course (managed by admin
//                      tooling, carried here for catalog joins).
//  PriceMinor        – course price in minor currency units (paise).
//  Capacity          – maximum number of concurrent enrollments.
//  CurrentEnrollment – count of active, non-expired enrollments.
//  IsActive          – whether the course accepts new enrollments.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Course struct {
    ID                uint64    // courses.id
    Name              string    // courses.name
    TrainerID         uint64    // courses.trainer_id
    PriceMinor        int64     // courses.price_minor
    Capacity          uint32    // courses.capacity
    CurrentEnrollment uint32    // courses.current_enrollment
    IsActive          bool      // courses.is_active
    CreatedAt         time.Time // courses.created_at
    UpdatedAt         time.Time // courses.updated_at
}

// IsAvailable reports whether the course can accept one more
// enrollment.  This is the synchronous precondition checked at
// intent time; the commit transaction re-checks it atomically.
func (c Course) IsAvailable() bool {
    return c.IsActive && c.CurrentEnrollment < c.Capacity
}
