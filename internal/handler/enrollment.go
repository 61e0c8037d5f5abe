package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-course-enrollment/internal/config"
	"github.com/iliyamo/gym-course-enrollment/internal/gateway"
	"github.com/iliyamo/gym-course-enrollment/internal/lifecycle"
	"github.com/iliyamo/gym-course-enrollment/internal/repository"
)

// EnrollmentHandler exposes the course enrollment purchase flow for
// authenticated members, plus the member's own enrollment listing.
type EnrollmentHandler struct {
	Cfg         config.Config
	Workflow    *lifecycle.Workflow
	Members     *repository.MemberRepo
	Courses     *repository.CourseRepo
	Enrollments *repository.EnrollmentRepo
}

func NewEnrollmentHandler(cfg config.Config, w *lifecycle.Workflow, m *repository.MemberRepo, c *repository.CourseRepo, e *repository.EnrollmentRepo) *EnrollmentHandler {
	return &EnrollmentHandler{Cfg: cfg, Workflow: w, Members: m, Courses: c, Enrollments: e}
}

// Enroll captures an enrollment intent for the course in the path.
// The member profile and the course row are loaded fresh so the
// workflow preconditions run against current data.
func (h *EnrollmentHandler) Enroll(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || courseID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	member, err := h.Members.GetByUserID(ctx, uid)
	if errors.Is(err, repository.ErrMemberNotFound) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no member profile, complete registration first"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load member failed"})
	}
	course, err := h.Courses.GetActive(ctx, courseID)
	if errors.Is(err, repository.ErrCourseNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load course failed"})
	}

	sessionID, err := checkoutSession(c, time.Duration(h.Cfg.CheckoutTTLMin)*time.Minute)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session setup failed"})
	}

	chk, err := h.Workflow.BeginEnrollment(ctx, sessionID, member, course)
	if err != nil {
		return enrollmentIntentError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"checkout": chk, "course": echo.Map{
		"id":   course.ID,
		"name": course.Name,
	}})
}

// Callback handles the payment provider redirect for an enrollment
// intent.
func (h *EnrollmentHandler) Callback(c echo.Context) error {
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
			"message": "session expired, please start enrollment again",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	out, err := h.Workflow.CompleteEnrollment(ctx, sessionID, paymentID, orderID, signature)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "enrollment commit failed"})
	}
	return writeOutcome(c, out, echo.Map{
		"member_id":     out.MemberID,
		"enrollment_id": out.EnrollmentID,
	})
}

// MyEnrollments lists the authenticated member's enrollments with
// their course details, newest first.
func (h *EnrollmentHandler) MyEnrollments(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	member, err := h.Members.GetByUserID(ctx, uid)
	if errors.Is(err, repository.ErrMemberNotFound) {
		return c.JSON(http.StatusOK, echo.Map{"enrollments": []repository.EnrollmentDetail{}})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load member failed"})
	}

	items, err := h.Enrollments.ListByMember(ctx, member.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list enrollments failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"enrollments": items})
}

// enrollmentIntentError maps intent-time failures to responses.  Each
// precondition has its own message so the client can tell a lapsed
// membership from a full course.
func enrollmentIntentError(c echo.Context, err error) error {
	var gwErr *gateway.Error
	switch {
	case errors.Is(err, lifecycle.ErrMembershipInactive):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "membership not active, renew before enrolling"})
	case errors.Is(err, lifecycle.ErrCourseUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "course is full or no longer offered"})
	case errors.Is(err, repository.ErrAlreadyEnrolled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already enrolled in this course"})
	case errors.As(err, &gwErr):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable, please try again"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not start enrollment"})
	}
}
