// Package staging holds pending purchase intents between the moment a
// user expresses intent and the moment the payment callback commits
// (or abandons) the flow.  Intents are keyed by the caller's checkout
// session and an intent kind, serialized as JSON and stored in Redis
// with a TTL equal to the checkout session lifetime.  An absent intent
// means the session expired; that is a recoverable user-facing
// condition, never a crash.
package staging

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Kinds of pending intent.  The kind tag makes the payload a proper
// sum type: exactly one of the data sub-structs is populated.
const (
	KindRegistration     = "registration"
	KindCourseEnrollment = "course_enrollment"
)

// ErrNotFound is returned when no intent exists for the session and
// kind.  Callers translate it into a "session expired" message and
// send the user back to the start of the flow.
var ErrNotFound = errors.New("pending intent not found")

// RegistrationData carries the registration form fields captured at
// intent time.  The password travels through staging only for the
// lifetime of the checkout session and is hashed before any durable
// write.
type RegistrationData struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Phone              string `json:"phone"`
	AlternativeContact string `json:"alternative_contact,omitempty"`
	DateOfBirth        string `json:"date_of_birth,omitempty"`
	Address            string `json:"address,omitempty"`
	MembershipType     string `json:"membership_type"`
}

// EnrollmentData identifies an existing member buying access to a
// course.  Only ids are staged; prices are re-read server-side so a
// tampered client can never change what is charged.
type EnrollmentData struct {
	MemberID   uint64 `json:"member_id"`
	CourseID   uint64 `json:"course_id"`
	CourseName string `json:"course_name"`
}

// PendingIntent is the staged record of a purchase awaiting payment
// confirmation.  AmountMinor is computed from server-held prices at
// intent time and is the only amount ever sent to the payment
// provider.  State tracks the workflow position for diagnostics.
type PendingIntent struct {
	Kind         string            `json:"kind"`
	State        string            `json:"state"`
	OrderID      string            `json:"order_id,omitempty"`
	AmountMinor  int64             `json:"amount_minor"`
	Currency     string            `json:"currency"`
	Registration *RegistrationData `json:"registration,omitempty"`
	Enrollment   *EnrollmentData   `json:"enrollment,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// KV is the minimal key/value contract the store needs from its
// backing session mechanism.  Get reports presence explicitly so a
// missing key is not conflated with a transport failure.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Del(ctx context.Context, key string) error
}

// Store persists pending intents in a KV with a fixed TTL.
type Store struct {
	kv  KV
	ttl time.Duration
}

// NewStore returns a Store writing through the given KV.  ttl bounds
// how long an intent survives without a callback; after that the flow
// terminates as abandoned.
func NewStore(kv KV, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

func stagingKey(sessionID, kind string) string {
	return "staging:" + sessionID + ":" + kind
}

// Put stores the intent for the session, replacing any previous
// intent of the same kind.
func (s *Store) Put(ctx context.Context, sessionID string, intent PendingIntent) error {
	raw, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, stagingKey(sessionID, intent.Kind), string(raw), s.ttl)
}

// Get loads the intent staged for the session and kind.  It returns
// ErrNotFound when the session has expired or no intent was staged.
func (s *Store) Get(ctx context.Context, sessionID, kind string) (PendingIntent, error) {
	raw, ok, err := s.kv.Get(ctx, stagingKey(sessionID, kind))
	if err != nil {
		return PendingIntent{}, err
	}
	if !ok {
		return PendingIntent{}, ErrNotFound
	}
	var intent PendingIntent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		return PendingIntent{}, err
	}
	return intent, nil
}

// Clear removes the intent after a successful or definitively failed
// commit attempt.  Clearing an absent intent is not an error.
func (s *Store) Clear(ctx context.Context, sessionID, kind string) error {
	return s.kv.Del(ctx, stagingKey(sessionID, kind))
}

// redisKV adapts a go-redis client to the KV contract.
type redisKV struct {
	client *redis.Client
}

// NewRedisKV wraps a Redis client as the staging backend.
func NewRedisKV(client *redis.Client) KV {
	return &redisKV{client: client}
}

func (r *redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *redisKV) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
