package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Registry     *storefront.Registry
	Catalog      *catalog.Store
	Checkout     *checkout.Service
	Accounts     AccountAPI
	SecureCookie bool
	Options      Options
}

// NewRouter wires every storefront route behind the shared middleware stack.
func NewRouter(d Deps) http.Handler {
	opts := d.Options
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = 1 << 20
	}
	if opts.Log == nil {
		opts.Log = logger.Discard()
	}

	authHandler := NewAuthHandler(d.Registry, opts)
	productHandler := NewProductHandler(d.Catalog, opts)
	cartHandler := NewCartHandler(d.Catalog, opts)
	checkoutHandler := NewCheckoutHandler(d.Checkout, opts)
	accountHandler := NewAccountHandler(d.Accounts, opts)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(opts.Log))
	r.Use(middleware.Timeout(opts.Timeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(d.Registry, d.SecureCookie, opts.Log))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/categories", productHandler.Categories)
			r.Get("/newest", productHandler.Newest)
			r.Get("/{product_id}", productHandler.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(RequireCatalogManager)
				r.Post("/", productHandler.CreateProduct)
				r.Put("/{product_id}", productHandler.UpdateProduct)
				r.Delete("/{product_id}", productHandler.DeleteProduct)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Delete("/", cartHandler.ClearCart)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/quote", checkoutHandler.Quote)
			r.Get("/options", checkoutHandler.Options)
			r.Post("/", checkoutHandler.PlaceOrder)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole())

			r.Get("/orders", accountHandler.ListOrders)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", accountHandler.GetProfile)
				r.Put("/", accountHandler.UpdateProfile)
				r.Get("/addresses", accountHandler.ListAddresses)
				r.Post("/addresses", accountHandler.AddAddress)
				r.Delete("/addresses/{address_id}", accountHandler.DeleteAddress)
				r.Get("/payments", accountHandler.ListPayments)
				r.Post("/payments", accountHandler.AddPayment)
				r.Delete("/payments/{payment_id}", accountHandler.DeletePayment)
			})
		})

		r.With(RequireRole(domain.RoleAdmin)).Get("/admin/dashboard", accountHandler.AdminDashboard)
		r.With(RequireRole(domain.RoleSuperAdmin)).Get("/superadmin/dashboard", accountHandler.SuperAdminDashboard)

		r.Route("/users/{user_id}", func(r chi.Router) {
			r.Use(RequireRole(domain.RoleSuperAdmin))
			r.Put("/role", accountHandler.UpdateRole)
			r.Delete("/", accountHandler.DeleteUser)
			r.Get("/orders", accountHandler.UserOrders)
		})
	})

	return r
}
