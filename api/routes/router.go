package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baladyapp/balady-backend/api/controllers"
	"github.com/baladyapp/balady-backend/api/middleware"
	"github.com/baladyapp/balady-backend/internal/addresses"
	"github.com/baladyapp/balady-backend/internal/cart"
	"github.com/baladyapp/balady-backend/internal/identity"
	"github.com/baladyapp/balady-backend/internal/orders"
	"github.com/baladyapp/balady-backend/internal/products"
	"github.com/baladyapp/balady-backend/internal/rbac"
	"github.com/baladyapp/balady-backend/internal/reviews"
	"github.com/baladyapp/balady-backend/internal/users"
	"github.com/baladyapp/balady-backend/internal/wishlist"
	"github.com/baladyapp/balady-backend/pkg/config"
	"github.com/baladyapp/balady-backend/pkg/db"
	"github.com/baladyapp/balady-backend/pkg/enums"
	"github.com/baladyapp/balady-backend/pkg/logger"
	"github.com/baladyapp/balady-backend/pkg/metrics"
	"github.com/baladyapp/balady-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	HTTPMetrics *metrics.HTTPMetrics

	Users     users.Service
	Products  products.Service
	Cart      cart.Service
	Orders    orders.Service
	Addresses addresses.Service
	Reviews   reviews.Service
	Wishlist  wishlist.Service
	Identity  identity.Service
	RBAC      rbac.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if d.HTTPMetrics != nil {
		r.Use(d.HTTPMetrics.Middleware)
	}

	guestPolicy := middleware.NewRateLimitPolicy(
		"guest_session",
		cfg.RateLimit.GuestSessionWindow,
		cfg.RateLimit.GuestSessionLimit,
	)
	invoicePolicy := middleware.NewRateLimitPolicy(
		"invoice",
		cfg.RateLimit.InvoiceWindow,
		cfg.RateLimit.InvoiceLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})
	if d.HTTPMetrics != nil {
		r.Method(http.MethodGet, "/metrics", d.HTTPMetrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog.
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(d.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(d.Products, logg))
			r.Get("/{productId}/reviews", controllers.ProductReviews(d.Reviews, logg))
		})

		// Public invoice lookup, throttled per IP.
		r.With(middleware.RateLimit(invoicePolicy, d.Redis, logg)).
			Get("/invoices/{orderId}", controllers.InvoiceByPhone(d.Orders, logg))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(d.Users, logg))
			r.Post("/login", controllers.AuthLogin(d.Users, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, logg))
				r.Get("/profile", controllers.AuthProfile(d.Users, logg))
				r.Post("/verify-phone", controllers.AuthVerifyPhone(d.Users, logg))
			})
		})

		// Checkout and order access serve both authenticated users and
		// guests carrying a session token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.RateLimit(guestPolicy, d.Redis, logg))
			r.Use(middleware.GuestSession(d.Identity, logg))

			r.Post("/checkout", controllers.Checkout(d.Orders, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(d.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(d.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(d.Orders, logg))
			})
		})

		// Account-bound resources.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(d.Cart, logg))
				r.Put("/items", controllers.CartSetItem(d.Cart, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressesList(d.Addresses, logg))
				r.Post("/", controllers.AddressCreate(d.Addresses, logg))
				r.Put("/{addressId}", controllers.AddressUpdate(d.Addresses, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(d.Addresses, logg))
				r.Post("/{addressId}/default", controllers.AddressSetDefault(d.Addresses, logg))
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Post("/", controllers.ReviewCreate(d.Reviews, logg))
				r.Delete("/{reviewId}", controllers.ReviewDelete(d.Reviews, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(d.Wishlist, logg))
				r.Post("/{productId}", controllers.WishlistAdd(d.Wishlist, logg))
				r.Delete("/{productId}", controllers.WishlistRemove(d.Wishlist, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(d.RBAC, enums.PermissionManageProducts, logg))
			r.Get("/products", controllers.AdminListProducts(d.Products, logg))
			r.Post("/products", controllers.AdminCreateProduct(d.Products, logg))
			r.Get("/products/{productId}", controllers.AdminGetProduct(d.Products, logg))
			r.Put("/products/{productId}", controllers.AdminUpdateProduct(d.Products, logg))
			r.Post("/products/{productId}/activate", controllers.AdminActivateProduct(d.Products, logg))
			r.Post("/products/{productId}/deactivate", controllers.AdminDeactivateProduct(d.Products, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(d.RBAC, enums.PermissionManageStock, logg))
			r.Post("/products/{productId}/stock", controllers.AdminAdjustStock(d.Products, logg))
			r.Get("/products/{productId}/stock/history", controllers.AdminStockHistory(d.Products, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(d.RBAC, enums.PermissionManageOrders, logg))
			r.Get("/orders", controllers.AdminListOrders(d.Orders, logg))
			r.Post("/orders/{orderId}/status", controllers.AdminChangeOrderStatus(d.Orders, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(d.RBAC, enums.PermissionManageReviews, logg))
			r.Get("/reviews/pending", controllers.AdminListPendingReviews(d.Reviews, logg))
			r.Post("/reviews/{reviewId}/moderate", controllers.AdminModerateReview(d.Reviews, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(d.RBAC, enums.PermissionManageRoles, logg))
			r.Get("/roles", controllers.AdminListRoles(d.RBAC, logg))
			r.Post("/roles", controllers.AdminCreateRole(d.RBAC, logg))
			r.Get("/roles/{roleId}", controllers.AdminGetRole(d.RBAC, logg))
			r.Put("/roles/{roleId}", controllers.AdminUpdateRole(d.RBAC, logg))
			r.Delete("/roles/{roleId}", controllers.AdminDeleteRole(d.RBAC, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(d.RBAC, enums.PermissionManageAdmins, logg))
			r.Post("/users/{userId}/role", controllers.AdminAssignRole(d.RBAC, logg))
		})
	})

	return r
}
