package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"user-service/internal/config"
	"user-service/internal/handler"
	"user-service/internal/middleware"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	roleHandler *handler.RoleHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", handler.Health)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", authHandler.Register)
			auth.Post("/login", authHandler.Login)
			auth.Post("/refresh", authHandler.Refresh)
			auth.With(authMiddleware.RequireAuth).Post("/logout", authHandler.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
			auth.With(authMiddleware.RequireAuth).Post("/change-password", authHandler.ChangePassword)
		})

		api.With(authMiddleware.RequireAuth, authMiddleware.RequireAdmin).Get("/roles", roleHandler.List)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireAdmin).Post("/roles", roleHandler.Create)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireAdmin).Post("/users/{userID}/roles/{roleID}", roleHandler.Assign)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireAdmin).Delete("/users/{userID}/roles/{roleID}", roleHandler.Remove)
	})

	return r
}
