// Package service implements the Foodgram HTTP API.
package service

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/media"
	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/storage"
)

// DefaultMaxBodyBytes fits a base64 encoded image of media.MaxImageSize
// plus the rest of a recipe body.
const DefaultMaxBodyBytes = media.MaxImageSize*4/3 + 1<<20

// Options tunes the HTTP surface.
type Options struct {
	// BaseURL is the public origin, e.g. "https://foodgram.example".
	BaseURL         string
	DefaultPageSize int
	MaxPageSize     int

	CORSOrigins       []string
	RateLimitReqs     int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// MediaPrefix and MediaHandler serve locally stored images; both are
	// optional.
	MediaPrefix  string
	MediaHandler http.Handler

	// MaxBodyBytes caps request bodies; DefaultMaxBodyBytes when zero.
	MaxBodyBytes int64

	// Now is the clock used for shopping list timestamps.
	Now func() time.Time
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	store         storage.Store
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	media         media.Storage
	opts          Options
	logger        *slog.Logger
}

// New creates the API server.
func New(store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager,
	mediaStore media.Storage, opts Options, logger *slog.Logger) *Server {
	if opts.DefaultPageSize < 1 {
		opts.DefaultPageSize = 6
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		store:         store,
		authenticator: authenticator,
		jwtManager:    jwtManager,
		media:         mediaStore,
		opts:          opts,
		logger:        logger,
	}
}

// Routes builds the router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         86400,
	}))
	if !s.opts.RateLimitDisabled {
		r.Use(httprate.LimitByIP(s.opts.RateLimitReqs, s.opts.RateLimitWindow))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	if s.opts.MediaHandler != nil && s.opts.MediaPrefix != "" {
		prefix := "/" + strings.Trim(s.opts.MediaPrefix, "/") + "/"
		r.Handle(prefix+"*", http.StripPrefix(prefix, s.opts.MediaHandler))
	}

	r.Get("/s/{code}/", s.handle(s.redirectShortLink))

	authMW := middleware.NewAuth(s.jwtManager, s.store, s.store)
	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.RequestSize(s.opts.MaxBodyBytes))
		r.Use(authMW.Authenticate)

		r.Post("/auth/token/login/", s.handle(s.login))
		r.With(middleware.RequireAuth).Post("/auth/token/logout/", s.handle(s.logout))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.handle(s.listUsers))
			r.Post("/", s.handle(s.signUp))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/me/", s.handle(s.me))
				r.Put("/me/avatar/", s.handle(s.setAvatar))
				r.Delete("/me/avatar/", s.handle(s.deleteAvatar))
				r.Post("/set_password/", s.handle(s.setPassword))
				r.Get("/subscriptions/", s.handle(s.listSubscriptions))
				r.Post("/{id}/subscribe/", s.handle(s.subscribe))
				r.Delete("/{id}/subscribe/", s.handle(s.unsubscribe))
			})
			r.Get("/{id}/", s.handle(s.getUser))
		})

		r.Get("/tags/", s.handle(s.listTags))
		r.Get("/tags/{id}/", s.handle(s.getTag))
		r.Get("/ingredients/", s.handle(s.listIngredients))
		r.Get("/ingredients/{id}/", s.handle(s.getIngredient))

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.handle(s.listRecipes))
			r.Get("/{id}/", s.handle(s.getRecipe))
			r.Get("/{id}/get-link/", s.handle(s.getShortLink))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", s.handle(s.createRecipe))
				r.Patch("/{id}/", s.handle(s.updateRecipe))
				r.Delete("/{id}/", s.handle(s.deleteRecipe))
				r.Get("/download_shopping_cart/", s.handle(s.downloadShoppingCart))
				r.Post("/{id}/favorite/", s.handle(s.addFavorite))
				r.Delete("/{id}/favorite/", s.handle(s.removeFavorite))
				r.Post("/{id}/shopping_cart/", s.handle(s.addToCart))
				r.Delete("/{id}/shopping_cart/", s.handle(s.removeFromCart))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(s.store))
			r.Get("/recipes/", s.handle(s.adminListRecipes))
			r.Post("/tags/", s.handle(s.adminCreateTag))
			r.Patch("/tags/{id}/", s.handle(s.adminUpdateTag))
			r.Delete("/tags/{id}/", s.handle(s.adminDeleteTag))
			r.Post("/ingredients/", s.handle(s.adminCreateIngredient))
			r.Patch("/ingredients/{id}/", s.handle(s.adminUpdateIngredient))
			r.Delete("/ingredients/{id}/", s.handle(s.adminDeleteIngredient))
			r.Get("/users/", s.handle(s.adminListUsers))
			r.Patch("/users/{id}/", s.handle(s.adminUpdateUser))
		})
	})

	return r
}
