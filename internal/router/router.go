package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"attendance-backend/internal/handlers"
	"attendance-backend/internal/middleware"
)

func New(
	sessionHandler *handlers.SessionHandler,
	reconcileHandler *handlers.ReconcileHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Reconcile is expensive; cap operator-triggered runs per IP.
	reconcileLimiter := middleware.NewRateLimiter(6, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1/tenants/{tenantID}", func(r chi.Router) {

		// ──── Session Lifecycle ────
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/check-in", sessionHandler.CheckIn)
			r.Get("/{id}", sessionHandler.Get)
			r.Post("/{id}/heartbeat", sessionHandler.Heartbeat)
			r.Post("/{id}/check-out", sessionHandler.CheckOut)
		})

		// ──── Reconcile (operator-triggered) ────
		r.Group(func(r chi.Router) {
			r.Use(reconcileLimiter.Middleware)
			r.Post("/reconcile", reconcileHandler.Run)
		})
	})

	return r
}
