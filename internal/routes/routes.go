package routes

import (
	"github.com/mhutchens/waypoint/internal/auth"
	"github.com/mhutchens/waypoint/internal/handlers"
	"github.com/mhutchens/waypoint/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	tokenService *auth.TokenService,
	accounts auth.AccountFetcher,
) {
	loginLimit := middleware.RateLimitByIP(middleware.DefaultLoginRateLimit())
	emailLimit := middleware.RateLimitByIP(middleware.DefaultEmailRateLimit())

	// Public routes - no authentication required
	router.With(emailLimit).Post("/auth/register", authHandler.Register)
	router.With(loginLimit).Post("/auth/login", authHandler.Login)
	router.With(loginLimit).Post("/auth/refresh", authHandler.Refresh)
	router.With(loginLimit).Post("/auth/logout", authHandler.Logout)
	router.With(emailLimit).Post("/auth/resend-verification", authHandler.ResendVerification)
	router.With(emailLimit).Post("/auth/forgot-password", authHandler.ForgotPassword)
	router.With(loginLimit).Post("/auth/reset-password/{token}", authHandler.ResetPassword)

	// Emailed link target; GET so mail clients can open it directly.
	router.With(loginLimit).Get("/verify-email/{token}", authHandler.VerifyEmail)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenService))

		r.Get("/auth/session", authHandler.Session)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(accounts))
			r.Post("/admin/accounts/{id}/unlock", adminHandler.UnlockAccount)
			r.Post("/admin/accounts/{id}/deactivate", adminHandler.DeactivateAccount)
			r.Post("/admin/accounts/{id}/reactivate", adminHandler.ReactivateAccount)
			r.Delete("/admin/accounts/{id}", adminHandler.DeleteAccount)
		})
	})
}
