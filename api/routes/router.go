package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymstore/backend/api/controllers"
	"github.com/gymstore/backend/api/middleware"
	authsvc "github.com/gymstore/backend/internal/auth"
	cartsvc "github.com/gymstore/backend/internal/cart"
	checkoutsvc "github.com/gymstore/backend/internal/checkout"
	dashsvc "github.com/gymstore/backend/internal/dashboard"
	ordersvc "github.com/gymstore/backend/internal/orders"
	productsvc "github.com/gymstore/backend/internal/products"
	uploadsvc "github.com/gymstore/backend/internal/uploads"
	"github.com/gymstore/backend/pkg/auth/session"
	"github.com/gymstore/backend/pkg/config"
	"github.com/gymstore/backend/pkg/logger"
	"github.com/gymstore/backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DBPinger       controllers.Pinger
	Redis          *redis.Client
	Sessions       session.AccessSessionChecker
	MetricsHandler http.Handler

	Auth      *authsvc.Service
	Products  *productsvc.Service
	Cart      *cartsvc.Service
	Checkout  *checkoutsvc.Service
	Orders    *ordersvc.Service
	Dashboard *dashsvc.Service
	Uploads   *uploadsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(nil),
	)

	var idemStore redis.IdempotencyStore
	if deps.Redis != nil {
		idemStore = deps.Redis
	}

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
		r.Get("/ready", controllers.HealthReady(cfg, deps.DBPinger, deps.Redis, logg))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Get("/api/public/ping", controllers.Ping())

	if deps.Uploads != nil {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.Uploads.Dir())))
		r.Get("/uploads/*", fileServer.ServeHTTP)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			Post("/register", controllers.Register(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			Post("/verify", controllers.VerifyEmail(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			Post("/resend-verification", controllers.ResendVerification(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.Login(deps.Auth, cfg.JWT, logg))
		r.Post("/refresh", controllers.Refresh(deps.Auth, cfg.JWT, logg))
		r.Post("/logout", controllers.Logout(deps.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(deps.Products, logg))
		r.Get("/{productId}", controllers.ProductGet(deps.Products, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Post("/", controllers.CartAddItem(deps.Cart, logg))
			r.Put("/items/{productId}", controllers.CartSetItemQuantity(deps.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Post("/confirmOrder", controllers.CartConfirmOrder(deps.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductsList(deps.Products, logg))
			r.Post("/", controllers.AdminProductCreate(deps.Products, logg))
			r.Patch("/{productId}/field", controllers.AdminProductUpdateField(deps.Products, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(deps.Products, logg))
			r.Post("/{productId}/images", controllers.AdminProductUploadImage(deps.Products, deps.Uploads, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderGet(deps.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(deps.Orders, logg))
		})

		r.Get("/dashboard", controllers.AdminDashboard(deps.Dashboard, logg))
	})

	return r
}
