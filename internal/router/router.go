// Package router sets up all HTTP routes and middleware chains for the
// NEWagro storefront. It organizes routes into public, auth, and admin
// groups with appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"newagro/internal/handlers"
	"newagro/internal/middleware"
	"newagro/internal/session"
	"newagro/internal/store"
	"newagro/web"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, users *store.UserStore, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Embedded static assets (compiled CSS).
	staticRoot, _ := fs.Sub(web.StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))))

	// Credential endpoints are throttled to slow down stuffing attempts.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Auth routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF)

		r.Get("/login", auth.LoginPage)
		r.With(loginLimiter.Middleware).Post("/login", auth.LoginSubmit)
		r.With(loginLimiter.Middleware).Post("/registrar", auth.RegisterSubmit)
		r.Post("/logout", auth.Logout)
	})

	// Admin routes — require authentication and CSRF protection.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.CSRF)
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireAdmin(users))

		// 2FA — requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Get("/2fa/setup", auth.TwoFASetupPage)
			r.Post("/2fa/setup", auth.TwoFAVerifySubmit)
			r.Get("/2fa/verify", auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", auth.TwoFAVerifySubmit)
		})

		// 2FA-verified admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Require2FA)

			r.Get("/", redirectTo("/admin/produtos"))

			r.Route("/produtos", func(r chi.Router) {
				r.Get("/", admin.ProductsList)
				r.Get("/novo", admin.NewForm)
				r.Post("/", admin.Create)
				r.Get("/{id}", admin.EditForm)
				r.Post("/{id}", admin.Update)
				r.Post("/{id}/excluir", admin.Delete)
				r.Post("/{id}/imagens", admin.UploadImages)
				r.Post("/{id}/imagens/excluir", admin.DeleteImage)
			})
		})
	})

	// Public storefront.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF)

		r.Get("/", public.Home)
		r.Get("/servicos", public.Services)
		r.Get("/produto/{id}", public.ProductDetail)
	})

	r.NotFound(public.NotFound)

	return r
}

// redirectTo returns a handler that issues a see-other redirect.
func redirectTo(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
