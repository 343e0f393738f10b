package routes

import (
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Health    *handlers.HealthHandler
	Requests  *handlers.RequestHandler
	Donations *handlers.DonationHandler
	Analytics *handlers.AnalyticsHandler
}

// Setup registers every route. limiterStorage may be nil, in which case rate
// limit counters live in memory.
func Setup(app *fiber.App, cfg *config.Config, limiterStorage fiber.Storage, gatherer prometheus.Gatherer, h Handlers) {
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Use(middleware.RateLimit("api", cfg.RateLimitPerMinute, limiterStorage))

	api.Get("/health", h.Health.Check)

	// Auth: stricter per-IP limit
	auth := api.Group("/auth")
	auth.Use(middleware.RateLimit("auth", cfg.AuthRateLimitPerMinute, limiterStorage))
	auth.Post("/signup", h.Auth.Signup)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/logout", h.Auth.Logout)
	auth.Get("/me", middleware.JWTProtected(cfg), middleware.Authenticated(), h.Auth.Me)

	jwt := middleware.JWTProtected(cfg)
	anyRole := middleware.Authenticated()
	applicant := middleware.RequireRoles(models.RoleApplicant)
	donor := middleware.RequireRoles(models.RoleDonor)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	requests := api.Group("/requests", jwt)
	requests.Post("/", applicant, h.Requests.Submit)
	requests.Get("/", anyRole, h.Requests.List)
	requests.Get("/search", anyRole, h.Requests.Search)
	requests.Get("/:id", anyRole, h.Requests.Get)
	requests.Get("/:id/documents/:kind", middleware.RequireRoles(models.RoleAdmin, models.RoleApplicant), h.Requests.Document)

	donations := api.Group("/donations", jwt, donor)
	donations.Post("/", h.Donations.Pledge)
	donations.Get("/mine", h.Donations.Mine)

	api.Get("/donor/analytics", jwt, donor, h.Analytics.DonorSummary)

	admin := api.Group("/admin", jwt, adminOnly)
	admin.Get("/requests", h.Requests.List)
	admin.Patch("/requests/:id/status", h.Requests.Transition)
	admin.Get("/requests/:id/donations", h.Donations.ForRequest)
	admin.Get("/analytics", h.Analytics.AdminSummary)
}
