package model

import "time"

// EnrollmentDuration is the default validity window of a course
// enrollment when no explicit end date is supplied at commit time.
const EnrollmentDuration = 30 * 24 * time.Hour

// CourseEnrollment links a member to a course for a bounded access
// window.  Rows are created only by the enrollment commit
// transaction after the payment signature has been verified.  At
// most one active, non-expired enrollment may exist per
// (member, course) pair.
//
// Fields:
//  ID         – primary key identifier.
//  MemberID   – enrolled member.
//  CourseID   – purchased course.
//  StartDate  – first day of access.
//  EndDate    – last day of access (defaults to StartDate + 30 days).
//  IsActive   – whether the enrollment is active.
//  EnrolledAt – timestamp the enrollment was committed.
type CourseEnrollment struct {
    ID         uint64    // course_enrollments.id
    MemberID   uint64    // course_enrollments.member_id
    CourseID   uint64    // course_enrollments.course_id
    StartDate  time.Time // course_enrollments.start_date
    EndDate    time.Time // course_enrollments.end_date
    IsActive   bool      // course_enrollments.is_active
    EnrolledAt time.Time // course_enrollments.enrolled_at
}

// DefaultEndDate returns the end date used when the caller did not
// supply one: exactly thirty days after the start date.
func DefaultEndDate(start time.Time) time.Time {
    return start.Add(EnrollmentDuration)
}

// IsCurrent reports whether the enrollment grants access on the
// given day.  Expired or deactivated enrollments do not count
// toward the course capacity counter.
func (e CourseEnrollment) IsCurrent(today time.Time) bool {
    return e.IsActive && !e.EndDate.Before(today)
}
