package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/taskmaster-platform/auth-service/internal/api/auth"
	"github.com/taskmaster-platform/auth-service/internal/api/user"
)

// Config contains the dependencies needed for the router setup.
type Config struct {
	AuthHandler    auth.Handler
	UserHandler    user.Handler
	AuthMiddleware *auth.Middleware
	AllowedOrigins []string
}

// SetupRouter wires the API surface. Server-wide middleware (request id,
// logging, recoverer, timeouts) are applied before mounting this router in
// main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public credential lifecycle.
		r.Group(func(r chi.Router) {
			r.Post("/auth/signup", cfg.AuthHandler.Register)
			r.Get("/auth/verify", cfg.AuthHandler.Verify)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/logout", cfg.AuthHandler.Logout)
		})

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthMiddleware.Authenticate)

			r.Get("/auth/current-user", cfg.AuthHandler.GetCurrentUser)
			r.Put("/user/profile", cfg.UserHandler.UpdateProfile)

			// Directory administration.
			r.Group(func(r chi.Router) {
				r.Use(cfg.AuthMiddleware.RequireAdmin)

				r.Get("/admin/users", cfg.UserHandler.GetAllUsers)
				r.Post("/admin/users", cfg.UserHandler.CreateUser)
				r.Get("/admin/users/{userID}", cfg.UserHandler.GetUserByID)
				r.Put("/admin/users/{userID}", cfg.UserHandler.UpdateUser)
				r.Delete("/admin/users/{userID}", cfg.UserHandler.DeleteUser)
			})
		})
	})

	return r
}
