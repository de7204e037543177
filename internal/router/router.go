package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"tubebrief-backend/internal/handlers"
	"tubebrief-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	summaryHandler *handlers.SummaryHandler,
	toolsHandler *handlers.ToolsHandler,
	adminHandler *handlers.AdminHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Get("/validate-invitation", authHandler.ValidateInvitation)
			r.Post("/accept-invitation", authHandler.AcceptInvitation)

			// Logout and password change require auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
				r.Put("/password", authHandler.ChangePassword)
			})
		})

		// ──── Summary Routes ────
		r.Route("/summaries", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", summaryHandler.Create)
			r.Get("/", summaryHandler.List)
			r.Get("/{id}", summaryHandler.Get)
			r.Delete("/{id}", summaryHandler.Delete)
			r.Post("/{id}/regenerate", summaryHandler.Regenerate)
			r.Post("/{id}/transcript", summaryHandler.RefreshTranscript)
			r.Post("/{id}/screenshots", summaryHandler.AddScreenshot)
		})

		// ──── Tool Routes ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/preview-frame", toolsHandler.PreviewFrame)
			r.Post("/extract-terms", toolsHandler.ExtractTerms)
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(jwtAuth.RequireAdmin)
			r.Get("/users", adminHandler.ListUsers)
			r.Post("/users", adminHandler.CreateUser)
			r.Post("/users/invite", adminHandler.InviteUser)
			r.Put("/users/{id}/admin", adminHandler.SetUserAdmin)
			r.Delete("/users/{id}", adminHandler.DeleteUser)
			r.Get("/summaries", adminHandler.ListAllSummaries)
		})
	})

	return r
}
