package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-online-store/internal/config"
	"go-online-store/internal/handler"
	"go-online-store/internal/middleware"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Pages    *handler.PageHandler
	Products *handler.ProductHandler
	Catalog  *handler.ProductHandler
	Category *handler.CategoryHandler
	User     *handler.UserHandler
	Audit    *handler.AuditHandler
	Stream   *handler.AuditStreamHandler
	Docs     *handler.DocsHandler
	// Health reports whether the backing store is reachable. Nil skips the check.
	Health func(ctx context.Context) error
}

// New mounts every route. Permission checks for resource endpoints happen in
// the handlers through their gates; the middleware here only establishes who
// the caller is.
func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if h.Health != nil {
			if err := h.Health(req.Context()); err != nil {
				slog.Warn("health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get(cfg.DocsRoute, h.Docs.OpenAPI)
	r.Get(cfg.SwaggerRoute, h.Docs.SwaggerUI)

	r.Route("/user", func(pages chi.Router) {
		pages.Use(middleware.Timeout(cfg.RequestTimeout))
		pages.Use(authMiddleware.Authenticate)

		pages.Get("/home/", h.Pages.Home)
		pages.Get("/login/", h.Pages.LoginForm)
		pages.Post("/login/", h.Pages.Login)
		pages.Get("/register/", h.Pages.RegisterForm)
		pages.Post("/register/", h.Pages.Register)
		pages.Post("/logout/", h.Pages.Logout)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(authMiddleware.Authenticate)

		// The event stream outlives REQUEST_TIMEOUT, so it sits outside the
		// buffered timeout group.
		api.With(authMiddleware.RequireStaff, middleware.StreamingTimeout(cfg.StreamMaxDuration, cfg.StreamIdleTimeout)).
			Get("/audit/stream", h.Stream.Stream)

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(cfg.RequestTimeout))

			api.Route("/auth", func(auth chi.Router) {
				auth.Post("/login", h.Auth.Login)
				auth.Post("/register", h.Auth.Register)
				auth.Post("/refresh", h.Auth.Refresh)
				auth.Post("/logout", h.Auth.Logout)
				auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
			})

			api.Route("/products", func(products chi.Router) {
				products.Get("/", h.Products.List)
				products.Post("/", h.Products.Create)
				products.Get("/{id}", h.Products.Get)
				products.Put("/{id}", h.Products.Update)
				products.Patch("/{id}", h.Products.Update)
				products.Delete("/{id}", h.Products.Destroy)
			})

			api.Route("/catalog/products", func(catalog chi.Router) {
				catalog.Get("/", h.Catalog.List)
				catalog.Post("/", h.Catalog.Create)
				catalog.Get("/{id}", h.Catalog.Get)
			})

			api.Get("/categories", h.Category.List)
			api.Post("/categories", h.Category.Create)

			api.Route("/users", func(users chi.Router) {
				users.Get("/", h.User.List)
				users.Post("/", h.User.Create)
				users.Get("/{id}", h.User.Get)
				users.Put("/{id}", h.User.Update)
				users.Patch("/{id}", h.User.Update)
				users.Delete("/{id}", h.User.Destroy)
				users.Get("/{id}/username", h.User.Username)
			})

			api.With(authMiddleware.RequireStaff).Get("/audit", h.Audit.List)
		})
	})

	return r
}
