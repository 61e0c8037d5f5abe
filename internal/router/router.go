package router // route registration for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-course-enrollment/internal/handler"
	"github.com/iliyamo/gym-course-enrollment/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication and no
// other dependencies.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the auth endpoints.  Login, refresh and logout
// live under /v1/auth without middleware; /v1/me requires a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// logout works with either a bearer token or a refresh_token body
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("MEMBER", "ADMIN"))
	auth.GET("/me", a.Me)
}

// RegisterCatalog wires the public browse endpoints behind the
// response cache.
func RegisterCatalog(e *echo.Echo, cat *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/courses", cat.ListCourses, cache)
	e.GET("/v1/courses/:id", cat.GetCourse, cache)
	e.GET("/v1/plans", cat.ListPlans, cache)
}

// RegisterPurchase wires the payment workflows.  Registration and its
// callback are public (the user has no account yet); enrollment
// requires a MEMBER token.  The rate limiter covers every route that
// creates provider orders or processes callbacks.
func RegisterPurchase(e *echo.Echo, reg *handler.RegistrationHandler, enr *handler.EnrollmentHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	e.POST("/v1/register", reg.Register, limiter)
	e.POST("/v1/payments/registration/callback", reg.Callback, limiter)
	e.POST("/v1/payments/enrollment/callback", enr.Callback, limiter)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("MEMBER", "ADMIN"))
	auth.POST("/courses/:id/enroll", enr.Enroll, limiter)
	auth.GET("/my-enrollments", enr.MyEnrollments)
}
