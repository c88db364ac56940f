package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/stocklane/inventory-management/internal/auth"
	"github.com/stocklane/inventory-management/internal/product"
	"github.com/stocklane/inventory-management/internal/role"
	"github.com/stocklane/inventory-management/internal/transport/middleware"
	"github.com/stocklane/inventory-management/internal/transport/swagger"
	"github.com/stocklane/inventory-management/internal/user"
)

// Permission names guarding the admin and inventory routes. These match the
// seeded permission catalogue.
const (
	PermManageUsers    = "manage_users"
	PermViewUsers      = "view_users"
	PermViewProducts   = "view_products"
	PermAddProducts    = "add_products"
	PermEditProducts   = "edit_products"
	PermDeleteProducts = "delete_products"
	PermManageStock    = "manage_stock"
	PermViewReports    = "view_reports"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, userHandler *user.Handler, roleHandler *role.Handler, productHandler *product.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes (no bearer token required)
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/register", authHandler.Register)
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/logout", authHandler.Logout)
			sr.Post("/reset-password/request", authHandler.RequestPasswordReset)
			sr.Post("/reset-password/complete", authHandler.CompletePasswordReset)
		})

		// OAuth sign-in flow
		r.Route("/oauth/{provider}", func(sr chi.Router) {
			sr.Get("/login", authHandler.OAuthRedirect)
			sr.Get("/callback", authHandler.OAuthCallback)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			// Current user
			pr.Get("/users/me", userHandler.GetCurrentUser)
			pr.Put("/users/me/password", authHandler.ChangePassword)

			// User administration
			pr.Route("/users", func(ur chi.Router) {
				ur.With(middleware.RequirePermissions(PermViewUsers)).Get("/", userHandler.ListUsers)
				ur.With(middleware.RequirePermissions(PermViewUsers)).Get("/{id}", userHandler.GetUser)

				ur.Group(func(mr chi.Router) {
					mr.Use(middleware.RequirePermissions(PermManageUsers))
					mr.Post("/", userHandler.CreateUser)
					mr.Put("/{id}", userHandler.UpdateUser)
					mr.Delete("/{id}", userHandler.DeleteUser)
				})
			})

			// Role and permission administration
			pr.Group(func(mr chi.Router) {
				mr.Use(middleware.RequirePermissions(PermManageUsers))
				mr.Get("/roles", roleHandler.ListRoles)
				mr.Get("/roles/{id}", roleHandler.GetRole)
				mr.Put("/roles/{id}/permissions", roleHandler.UpdateRolePermissions)
				mr.Get("/permissions", roleHandler.ListPermissions)
			})

			// Product catalogue
			pr.Route("/products", func(cr chi.Router) {
				cr.With(middleware.RequirePermissions(PermViewProducts)).Get("/", productHandler.ListProducts)
				cr.With(middleware.RequirePermissions(PermViewProducts)).Get("/{id}", productHandler.GetProduct)
				cr.With(middleware.RequirePermissions(PermAddProducts)).Post("/", productHandler.CreateProduct)
				cr.With(middleware.RequirePermissions(PermEditProducts)).Put("/{id}", productHandler.UpdateProduct)
				cr.With(middleware.RequirePermissions(PermDeleteProducts)).Delete("/{id}", productHandler.DeleteProduct)
				cr.With(middleware.RequirePermissions(PermManageStock)).Post("/{id}/stock", productHandler.AdjustStock)
			})

			// Inventory reports
			pr.Group(func(rr chi.Router) {
				rr.Use(middleware.RequirePermissions(PermViewReports))
				rr.Get("/reports/low-stock", productHandler.LowStockReport)
				rr.Get("/reports/inventory-value", productHandler.InventoryValueReport)
			})
		})
	})
}
