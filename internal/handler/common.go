package handler // handler defines http handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-course-enrollment/internal/utils"
)

// checkoutCookie names the cookie that keys staged purchase intents.
// It is issued when an intent is captured and read back on the
// payment callback.
const checkoutCookie = "checkout_session"

// currentUserID extracts the user_id set by the JWT middleware.
// Numeric JWT claims decode as float64, so every plausible shape is
// accepted.
func currentUserID(c echo.Context) (uint64, bool) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, true
	case int:
		return uint64(t), true
	case int64:
		return uint64(t), true
	case float64:
		return uint64(t), true
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// checkoutSession returns the checkout session identifier for this
// client, issuing a fresh cookie when none is present. The ttl bounds
// both the cookie and the staged intent it keys.
func checkoutSession(c echo.Context, ttl time.Duration) (string, error) {
	if ck, err := c.Cookie(checkoutCookie); err == nil && ck.Value != "" {
		return ck.Value, nil
	}
	id, err := utils.NewCheckoutSession()
	if err != nil {
		return "", err
	}
	c.SetCookie(&http.Cookie{
		Name:     checkoutCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// existingCheckoutSession reads the checkout cookie without issuing a
// new one. Callbacks for a client that never started a checkout have
// no session to resolve.
func existingCheckoutSession(c echo.Context) (string, bool) {
	ck, err := c.Cookie(checkoutCookie)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
