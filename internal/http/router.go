package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/marketlink/internal/auth"
	"github.com/geocoder89/marketlink/internal/config"
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/http/handlers"
	"github.com/geocoder89/marketlink/internal/http/middlewares"
	"github.com/geocoder89/marketlink/internal/notifications"
	"github.com/geocoder89/marketlink/internal/observability"
	"github.com/geocoder89/marketlink/internal/repo/memory"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// base64 data URLs for product images make bodies large
const maxBodyBytes = 16 << 20

// Deps are the in-memory stores behind the development backend. Zero fields
// are filled with fresh stores.
type Deps struct {
	Users    *memory.UsersRepo
	Products *memory.ProductsRepo
	Codes    *memory.OTPRepo
	Contact  *memory.ContactRepo
	Notifier notifications.Notifier
	Registry *prometheus.Registry
}

func (d *Deps) defaults(log *slog.Logger) {
	if d.Users == nil {
		d.Users = memory.NewUsersRepo()
	}
	if d.Products == nil {
		d.Products = memory.NewProductsRepo()
	}
	if d.Codes == nil {
		d.Codes = memory.NewOTPRepo(10 * time.Minute)
	}
	if d.Contact == nil {
		d.Contact = memory.NewContactRepo()
	}
	if d.Notifier == nil {
		d.Notifier = notifications.NewProtectedNotifier(
			notifications.NewLogNotifier(log),
			notifications.ProtectedNotifierConfig{},
		)
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
}

func NewRouter(log *slog.Logger, deps Deps, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	deps.defaults(log)

	prom := observability.NewProm(deps.Registry)

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("marketlink-devbackend"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))

	h := handlers.NewHealthHandler(deps.Users, deps.Products)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	jwtManager := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)
	authMw := middlewares.NewAuthMiddleware(jwtManager)

	notifier := notifications.NewInstrumentedNotifier(deps.Notifier, prom.OTPDispatched)
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Codes, notifier, jwtManager, cfg, log)
	usersHandler := handlers.NewUsersHandler(deps.Users)
	productsHandler := handlers.NewProductsHandler(deps.Products)
	contactHandler := handlers.NewContactHandler(deps.Contact)

	api := r.Group("/api")
	api.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	api.Use(middlewares.RequireJSON())

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", authHandler.SignUp)
	authGroup.POST("/verify-otp", authHandler.VerifyOTP)
	authGroup.POST("/login", authHandler.Login)

	api.GET("/users", usersHandler.ListUsers)
	api.GET("/users/:id", usersHandler.GetUser)
	api.PUT("/users/:id", authMw.RequireAuth(), usersHandler.UpdateUser)
	api.POST("/users/:id/rate", authMw.RequireAuth(), usersHandler.RateUser)

	api.GET("/products", productsHandler.ListProducts)
	api.POST("/products",
		authMw.RequireAuth(),
		authMw.RequireRole(string(user.RoleSeller), string(user.RoleAdmin)),
		productsHandler.CreateProduct,
	)
	api.PUT("/products/:id", authMw.RequireAuth(), productsHandler.UpdateProduct)
	api.DELETE("/products/:id", authMw.RequireAuth(), productsHandler.DeleteProduct)

	api.POST("/contact", contactHandler.Submit)

	return r
}
