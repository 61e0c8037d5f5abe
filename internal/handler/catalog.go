package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-course-enrollment/internal/model"
	"github.com/iliyamo/gym-course-enrollment/internal/repository"
)

// CatalogHandler serves the public browse surface: active courses and
// purchasable membership plans.  These routes sit behind the response
// cache middleware; prices shown here are informational, the workflow
// always re-reads them server-side at intent time.
type CatalogHandler struct {
	Courses *repository.CourseRepo
	Plans   *repository.PlanRepo
}

func NewCatalogHandler(c *repository.CourseRepo, p *repository.PlanRepo) *CatalogHandler {
	return &CatalogHandler{Courses: c, Plans: p}
}

type coursePart struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
	Capacity   uint32 `json:"capacity"`
	SpotsLeft  uint32 `json:"spots_left"`
	Available  bool   `json:"available"`
}

func toCoursePart(c model.Course) coursePart {
	var left uint32
	if c.Capacity > c.CurrentEnrollment {
		left = c.Capacity - c.CurrentEnrollment
	}
	return coursePart{
		ID:         c.ID,
		Name:       c.Name,
		PriceMinor: c.PriceMinor,
		Capacity:   c.Capacity,
		SpotsLeft:  left,
		Available:  c.IsAvailable(),
	}
}

// ListCourses returns all active courses.
func (h *CatalogHandler) ListCourses(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	courses, err := h.Courses.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list courses failed"})
	}
	out := make([]coursePart, 0, len(courses))
	for _, course := range courses {
		out = append(out, toCoursePart(course))
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": out})
}

// GetCourse returns a single active course by id.
func (h *CatalogHandler) GetCourse(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	course, err := h.Courses.GetActive(ctx, id)
	if errors.Is(err, repository.ErrCourseNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load course failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"course": toCoursePart(course)})
}

// ListPlans returns the purchasable membership plans.
func (h *CatalogHandler) ListPlans(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plans, err := h.Plans.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list plans failed"})
	}
	type planPart struct {
		ID          uint64 `json:"id"`
		Name        string `json:"name"`
		PriceMinor  int64  `json:"price_minor"`
		Description string `json:"description"`
	}
	out := make([]planPart, 0, len(plans))
	for _, p := range plans {
		out = append(out, planPart{ID: p.ID, Name: p.Name, PriceMinor: p.PriceMinor, Description: p.Description})
	}
	return c.JSON(http.StatusOK, echo.Map{"plans": out})
}
