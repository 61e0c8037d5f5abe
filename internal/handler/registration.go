package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-course-enrollment/internal/config"
	"github.com/iliyamo/gym-course-enrollment/internal/gateway"
	"github.com/iliyamo/gym-course-enrollment/internal/lifecycle"
)

// RegistrationHandler exposes the paid member registration flow: the
// intent endpoint stages the form and returns checkout parameters,
// the callback endpoint completes or rejects the purchase.
type RegistrationHandler struct {
	Cfg      config.Config
	Workflow *lifecycle.Workflow
}

func NewRegistrationHandler(cfg config.Config, w *lifecycle.Workflow) *RegistrationHandler {
	return &RegistrationHandler{Cfg: cfg, Workflow: w}
}

// Register captures a registration intent.  Nothing is written to the
// database here; the staged form lives in Redis until the payment
// callback arrives or the checkout TTL runs out.
func (h *RegistrationHandler) Register(c echo.Context) error {
	var form lifecycle.RegistrationForm
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	sessionID, err := checkoutSession(c, time.Duration(h.Cfg.CheckoutTTLMin)*time.Minute)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session setup failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	chk, err := h.Workflow.BeginRegistration(ctx, sessionID, form)
	if err != nil {
		return registrationIntentError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"checkout": chk})
}

// Callback handles the payment provider redirect for a registration
// intent.  The provider posts form-encoded fields; a terminal outcome
// always comes back as JSON with the specific user-facing message.
func (h *RegistrationHandler) Callback(c echo.Context) error {
	paymentID := c.FormValue("razorpay_payment_id")
	orderID := c.FormValue("razorpay_order_id")
	signature := c.FormValue("razorpay_signature")
	if paymentID == "" || orderID == "" || signature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing payment parameters"})
	}

	sessionID, ok := existingCheckoutSession(c)
	if !ok {
		return c.JSON(http.StatusGone, echo.Map{
			"state":   string(lifecycle.StateAbandoned),
			"message": "session expired or invalid, please start registration again",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	out, err := h.Workflow.CompleteRegistration(ctx, sessionID, paymentID, orderID, signature)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration commit failed"})
	}
	return writeOutcome(c, out, echo.Map{
		"user_id":   out.UserID,
		"member_id": out.MemberID,
	})
}

// registrationIntentError maps intent-time failures to responses.
func registrationIntentError(c echo.Context, err error) error {
	var verr *lifecycle.ValidationError
	var gwErr *gateway.Error
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, lifecycle.ErrEmailTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	case errors.As(err, &gwErr):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable, please try again"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not start registration"})
	}
}

// writeOutcome renders a terminal workflow outcome.  Committed maps
// to 200, Rejected to 402 when money moved and reconciliation is
// pending, otherwise 400, and Abandoned to 410.
func writeOutcome(c echo.Context, out lifecycle.Outcome, extra echo.Map) error {
	body := echo.Map{
		"state":   string(out.State),
		"message": out.Message,
	}
	switch out.State {
	case lifecycle.StateCommitted:
		for k, v := range extra {
			body[k] = v
		}
		body["already_completed"] = out.AlreadyCommitted
		return c.JSON(http.StatusOK, body)
	case lifecycle.StateAbandoned:
		return c.JSON(http.StatusGone, body)
	default:
		if out.Reconciled {
			return c.JSON(http.StatusPaymentRequired, body)
		}
		return c.JSON(http.StatusBadRequest, body)
	}
}
