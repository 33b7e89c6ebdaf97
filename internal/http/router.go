package http

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/payland/gateway/internal/auth"
	"github.com/payland/gateway/internal/http/handlers"
	"github.com/payland/gateway/internal/middleware"
	"github.com/payland/gateway/internal/session"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	authHandler *handlers.AuthHandler,
	contactsHandler *handlers.ContactsHandler,
	usersHandler *handlers.UsersHandler,
	dashboardHandler *handlers.DashboardHandler,
	cookies *auth.CookieService,
	sessions *session.Manager,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", handlers.HandleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)

		r.Route("/signup", func(r chi.Router) {
			r.Post("/start", authHandler.HandleSignupStart)
			r.Post("/verify", authHandler.HandleSignupVerify)
			r.Post("/back", authHandler.HandleSignupBack)
		})

		r.Route("/reset", func(r chi.Router) {
			r.Post("/start", authHandler.HandleResetStart)
			r.Post("/verify", authHandler.HandleResetVerify)
			r.Post("/complete", authHandler.HandleResetComplete)
		})
	})

	// Protected routes (require valid session cookie)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cookies, sessions))

		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/me", authHandler.HandleMe)
		r.Post("/shell/sidebar", authHandler.HandleSidebar)

		r.Get("/dashboard/stats", dashboardHandler.HandleStats)
		r.Get("/notifications", dashboardHandler.HandleNotifications)
		r.Get("/search", dashboardHandler.HandleSearch)

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", contactsHandler.HandleList)
			r.Post("/", contactsHandler.HandleCreate)
			r.Get("/export", contactsHandler.HandleExport)
			r.Put("/{id}", contactsHandler.HandleUpdate)
			r.Delete("/{id}", contactsHandler.HandleDelete)
			r.Post("/{id}/save", contactsHandler.HandleToggleSave)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", usersHandler.HandleList)
			r.Post("/", usersHandler.HandleCreate)
			r.Get("/{id}", usersHandler.HandleGet)
			r.Put("/{id}", usersHandler.HandleUpdate)
			r.Delete("/{id}", usersHandler.HandleDelete)
		})
	})

	return r
}
