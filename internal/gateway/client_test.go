package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateOrder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/orders" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			user, pass, ok := r.BasicAuth()
			if !ok || user != "key_id" || pass != "secret" {
				t.Fatal("expected basic auth with key id and secret")
			}
			var req struct {
				Amount         int64             `json:"amount"`
				Currency       string            `json:"currency"`
				Receipt        string            `json:"receipt"`
				PaymentCapture int               `json:"payment_capture"`
				Notes          map[string]string `json:"notes"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			if req.Amount != 50000 || req.Currency != "INR" {
				t.Fatalf("unexpected order body: %+v", req)
			}
			if req.PaymentCapture != 1 {
				t.Fatal("expected auto capture")
			}
			if req.Notes["kind"] != "registration" {
				t.Fatalf("expected correlation notes, got %v", req.Notes)
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":       "order_test_1",
				"amount":   req.Amount,
				"currency": req.Currency,
				"receipt":  req.Receipt,
			})
		}))
		defer srv.Close()

		c := NewClient("key_id", "secret", srv.URL, srv.Client())
		ord, err := c.CreateOrder(context.Background(), 50000, "INR", "membership_basic_x", map[string]string{"kind": "registration"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ord.ID != "order_test_1" || ord.AmountMinor != 50000 || ord.Currency != "INR" {
			t.Fatalf("unexpected order: %+v", ord)
		}
	})

	t.Run("provider rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"description":"amount exceeds maximum"}}`))
		}))
		defer srv.Close()

		c := NewClient("key_id", "secret", srv.URL, srv.Client())
		_, err := c.CreateOrder(context.Background(), 50000, "INR", "r", nil)
		gwErr, ok := err.(*Error)
		if !ok {
			t.Fatalf("expected *Error, got %T", err)
		}
		if gwErr.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", gwErr.StatusCode)
		}
		if !strings.Contains(gwErr.Message, "amount exceeds maximum") {
			t.Fatalf("expected provider description, got %q", gwErr.Message)
		}
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		c := NewClient("key_id", "secret", "http://localhost:0", nil)
		if _, err := c.CreateOrder(context.Background(), 0, "INR", "r", nil); err == nil {
			t.Fatal("expected error for zero amount")
		}
	})
}

func TestNewReceipt(t *testing.T) {
	a := NewReceipt("course_yoga")
	b := NewReceipt("course_yoga")
	if !strings.HasPrefix(a, "course_yoga_") {
		t.Fatalf("unexpected receipt %q", a)
	}
	if a == b {
		t.Fatal("receipts must be unique")
	}
}
