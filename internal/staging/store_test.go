package staging

import (
	"context"
	"errors"
	"testing"
	"time"
)

// memoryKV is an in-process KV used to exercise the store without a
// Redis server.  TTLs are recorded but not enforced.
type memoryKV struct {
	data map[string]string
}

func newMemoryKV() *memoryKV { return &memoryKV{data: map[string]string{}} }

func (m *memoryKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemoryKV(), 30*time.Minute)

	intent := PendingIntent{
		Kind:        KindCourseEnrollment,
		State:       "order_created",
		OrderID:     "order_abc",
		AmountMinor: 120000,
		Currency:    "INR",
		Enrollment:  &EnrollmentData{MemberID: 7, CourseID: 3, CourseName: "Yoga"},
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Put(ctx, "sess-1", intent); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, "sess-1", KindCourseEnrollment)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OrderID != "order_abc" || got.AmountMinor != 120000 {
		t.Fatalf("unexpected intent: %+v", got)
	}
	if got.Enrollment == nil || got.Enrollment.CourseID != 3 {
		t.Fatalf("enrollment data lost: %+v", got.Enrollment)
	}
	if got.Registration != nil {
		t.Fatal("registration data must be empty for an enrollment intent")
	}
}

func TestStoreAbsence(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemoryKV(), 30*time.Minute)

	if _, err := s.Get(ctx, "sess-unknown", KindRegistration); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// kinds are isolated per session
	intent := PendingIntent{Kind: KindRegistration, AmountMinor: 50000, Currency: "INR",
		Registration: &RegistrationData{Email: "a@b.c", MembershipType: "Basic"}}
	if err := s.Put(ctx, "sess-2", intent); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Get(ctx, "sess-2", KindCourseEnrollment); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other kind, got %v", err)
	}
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemoryKV(), 30*time.Minute)

	intent := PendingIntent{Kind: KindRegistration, AmountMinor: 50000, Currency: "INR"}
	if err := s.Put(ctx, "sess-3", intent); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Clear(ctx, "sess-3", KindRegistration); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.Get(ctx, "sess-3", KindRegistration); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
	// clearing twice is fine
	if err := s.Clear(ctx, "sess-3", KindRegistration); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
