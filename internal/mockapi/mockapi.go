// Package mockapi is an in-memory stand-in for the real restaurant
// backend. It exists for development and integration tests: the SDK is
// the product, this is the fixture it is exercised against.
package mockapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"savora/internal/models"
)

// Server holds the in-memory state behind the HTTP surface.
type Server struct {
	users      *userStore
	products   *productStore
	categories *categoryStore
	carts      *cartStore
	orders     *orderStore
	tokens     *tokenService
	limiter    *rate.Limiter
	taxRate    float64
	log        *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithSigningKey overrides the token signing key.
func WithSigningKey(key string) Option {
	return func(s *Server) { s.tokens.signingKey = []byte(key) }
}

// WithTokenTTL overrides how long issued tokens live.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokens.ttl = ttl }
}

// WithRateLimit caps requests per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) { s.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithTaxRate sets the rate used when pricing orders.
func WithTaxRate(r float64) Option {
	return func(s *Server) { s.taxRate = r }
}

// WithLogger sets the request logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// New creates a backend with empty stores. Call Seed for sample data.
func New(opts ...Option) *Server {
	s := &Server{
		users:      newUserStore(),
		products:   newProductStore(),
		categories: newCategoryStore(),
		carts:      newCartStore(),
		orders:     newOrderStore(),
		tokens:     newTokenService("mockapi-dev-key", time.Hour),
		limiter:    rate.NewLimiter(rate.Limit(200), 400),
		taxRate:    0.10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router wires every endpoint the SDK consumes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.rateLimit)
	r.Use(s.deviceMetadata)
	if s.log != nil {
		r.Use(s.requestLogger)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.MessageResponse{Message: "ok"})
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/login", s.handleLogin(models.RoleUser))
		r.Post("/signUp", s.handleSignup(models.RoleUser))

		r.Get("/get-all-products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Get("/getByCategory", s.handleProductsByCategory)
		r.Get("/categories", s.handleListCategories)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth(models.RoleUser))
			r.Get("/get-cart", s.handleGetCart)
			r.Post("/addToCart", s.handleAddToCart)
			r.Patch("/updateCart", s.handleUpdateCart)
			r.Delete("/removeFromCart", s.handleRemoveFromCart)
			r.Post("/createOrder", s.handleCreateOrder)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", s.handleLogin(models.RoleAdmin))
		r.Post("/signUp", s.handleSignup(models.RoleAdmin))

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth(models.RoleAdmin))
			r.Post("/createProduct", s.handleCreateProduct)
			r.Get("/getAllProducts", s.handleListProducts)
			r.Patch("/updateProduct/{id}", s.handleUpdateProduct)
			r.Delete("/deleteProducts", s.handleDeleteProducts)
			r.Get("/getByCategory", s.handleProductsByCategory)

			r.Get("/categories", s.handleListCategories)
			r.Get("/categories/{id}", s.handleGetCategory)
			r.Post("/categories", s.handleCreateCategory)
			r.Patch("/categories/{id}", s.handleUpdateCategory)
			r.Delete("/categories/{id}", s.handleDeleteCategory)

			r.Get("/getAllOrders", s.handleListOrders)
			r.Patch("/updateOrders/{id}", s.handleUpdateOrderStatus)
			r.Get("/getAllUsers", s.handleListUsers)
		})
	})

	return r
}
