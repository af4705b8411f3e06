package routes

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukahub/duka-backend/api/controllers"
	webhookcontrollers "github.com/dukahub/duka-backend/api/controllers/webhooks"
	"github.com/dukahub/duka-backend/api/middleware"
	addresssvc "github.com/dukahub/duka-backend/internal/addresses"
	authsvc "github.com/dukahub/duka-backend/internal/auth"
	ordersvc "github.com/dukahub/duka-backend/internal/orders"
	paymentsvc "github.com/dukahub/duka-backend/internal/payments"
	productsvc "github.com/dukahub/duka-backend/internal/products"
	"github.com/dukahub/duka-backend/pkg/auth/session"
	"github.com/dukahub/duka-backend/pkg/config"
	"github.com/dukahub/duka-backend/pkg/db"
	"github.com/dukahub/duka-backend/pkg/enums"
	"github.com/dukahub/duka-backend/pkg/logger"
	"github.com/dukahub/duka-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker

	Auth      authsvc.Service
	Products  productsvc.Service
	Orders    ordersvc.Service
	Addresses addresssvc.Service
	Payments  paymentsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// the provider delivers payment results here; outside the sandbox only
	// Safaricom's published ranges may reach it
	var callbackPrefixes []netip.Prefix
	if cfg.Daraja.IsProduction() {
		callbackPrefixes = cfg.Daraja.AllowedPrefixes()
	}
	r.With(middleware.CallbackOrigin(callbackPrefixes, logg)).
		Post("/ipn/daraja/callback", webhookcontrollers.DarajaCallback(deps.Payments, deps.Redis, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.Register(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.Login(deps.Auth, logg))
			r.Post("/refresh", controllers.Refresh(deps.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
				r.Post("/logout", controllers.Logout(deps.Auth, logg))
				r.Get("/me", controllers.Me(deps.Auth, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

			// catalog reads back order creation; anonymous browsing is not
			// part of this surface
			r.Get("/products", controllers.ListProducts(deps.Products, logg))
			r.Get("/products/{productId}", controllers.GetProduct(deps.Products, logg))
			r.Get("/categories", controllers.ListCategories(deps.Products, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.CreateOrder(deps.Orders, logg))
				r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/initiate", controllers.InitiatePayment(deps.Payments, logg))
				r.Get("/{orderId}/status", controllers.PaymentStatus(deps.Payments, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Post("/", controllers.CreateAddress(deps.Addresses, logg))
				r.Get("/", controllers.ListAddresses(deps.Addresses, logg))
				r.Put("/{addressId}", controllers.UpdateAddress(deps.Addresses, logg))
				r.Delete("/{addressId}", controllers.DeleteAddress(deps.Addresses, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Get("/dashboard", controllers.AdminDashboard(deps.Orders, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
				r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.CreateProduct(deps.Products, logg))
				r.Put("/{productId}", controllers.UpdateProduct(deps.Products, logg))
				r.Delete("/{productId}", controllers.DeleteProduct(deps.Products, logg))
			})

			r.Post("/categories", controllers.CreateCategory(deps.Products, logg))
		})
	})

	return r
}
