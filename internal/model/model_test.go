package model

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCourseIsAvailable(t *testing.T) {
	cases := []struct {
		name   string
		course Course
		want   bool
	}{
		{"open", Course{IsActive: true, Capacity: 10, CurrentEnrollment: 4}, true},
		{"last place", Course{IsActive: true, Capacity: 10, CurrentEnrollment: 9}, true},
		{"full", Course{IsActive: true, Capacity: 10, CurrentEnrollment: 10}, false},
		{"inactive", Course{IsActive: false, Capacity: 10, CurrentEnrollment: 0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.course.IsAvailable(); got != tc.want {
				t.Fatalf("IsAvailable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHasActiveMembership(t *testing.T) {
	today := day("2026-08-01")
	end := day("2026-08-15")
	past := day("2026-07-31")

	cases := []struct {
		name   string
		member Member
		want   bool
	}{
		{"active with future end", Member{IsActive: true, MembershipEndDate: &end}, true},
		{"active ends today", Member{IsActive: true, MembershipEndDate: &today}, true},
		{"active but lapsed", Member{IsActive: true, MembershipEndDate: &past}, false},
		{"active without end date", Member{IsActive: true}, true},
		{"deactivated", Member{IsActive: false, MembershipEndDate: &end}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.member.HasActiveMembership(today); got != tc.want {
				t.Fatalf("HasActiveMembership() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDefaultEndDate(t *testing.T) {
	start := day("2026-08-01")
	if got, want := DefaultEndDate(start), day("2026-08-31"); !got.Equal(want) {
		t.Fatalf("DefaultEndDate() = %v, want %v", got, want)
	}
}

func TestEnrollmentIsCurrent(t *testing.T) {
	today := day("2026-08-01")
	e := CourseEnrollment{IsActive: true, StartDate: day("2026-07-10"), EndDate: day("2026-08-09")}
	if !e.IsCurrent(today) {
		t.Fatal("enrollment inside its window must be current")
	}
	e.EndDate = day("2026-07-31")
	if e.IsCurrent(today) {
		t.Fatal("expired enrollment must not be current")
	}
	e.EndDate = day("2026-08-09")
	e.IsActive = false
	if e.IsCurrent(today) {
		t.Fatal("deactivated enrollment must not be current")
	}
}
