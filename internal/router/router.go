// Package router is the HTTP boundary of the service. It decodes and
// validates payloads, applies the route policies and maps error kinds onto
// status codes.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/bookbuddy/internal/authenticator"
	"github.com/patric-chuzhbe/bookbuddy/internal/gzippedhttp"
	"github.com/patric-chuzhbe/bookbuddy/internal/logger"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

const defaultRequestTimeout = 30 * time.Second

type userService interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	Register(ctx context.Context, request models.RegisterRequest) (*models.User, error)
	ListPage(ctx context.Context, page, limit int) (*models.UserPage, error)
	GetByUsername(ctx context.Context, username string) (*models.UserWithBooks, error)
	GetIDByUsername(ctx context.Context, username string) (int64, error)
	Update(ctx context.Context, username string, update models.UserUpdate) (*models.User, error)
	Remove(ctx context.Context, username string) error
	Stats(ctx context.Context) (*models.Stats, error)
}

type bookService interface {
	Add(ctx context.Context, book models.NewSavedBook) (*models.SavedBook, error)
	ListSummariesByOwner(ctx context.Context, ownerID int64) ([]models.BookSummary, error)
	SetComment(ctx context.Context, bookID string, ownerID int64, comment *string) (*models.SavedBook, error)
	Remove(ctx context.Context, bookID string, ownerID int64) error
}

type catalogSearcher interface {
	Search(ctx context.Context, query string) ([]models.CatalogBook, error)
}

type tokenIssuer interface {
	Issue(usr models.User) (string, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type middlewareFunc = func(http.Handler) http.Handler

type Router struct {
	users          userService
	books          bookService
	catalog        catalogSearcher
	tokens         tokenIssuer
	storage        pinger
	auth           authenticator.Authenticator
	validate       *validator.Validate
	trustedOnly    middlewareFunc
	metrics        middlewareFunc
	metricsHandler http.Handler
	corsOrigins    []string
	staticDir      string
	requestTimeout time.Duration
}

type Option func(*Router)

// WithTrustedSubnetGate protects the internal endpoints with gate. Without
// it they always answer 403.
func WithTrustedSubnetGate(gate middlewareFunc) Option {
	return func(r *Router) {
		r.trustedOnly = gate
	}
}

// WithMetrics instruments every route with mw and serves handler at /metrics.
func WithMetrics(mw middlewareFunc, handler http.Handler) Option {
	return func(r *Router) {
		r.metrics = mw
		r.metricsHandler = handler
	}
}

func WithCORSOrigins(origins []string) Option {
	return func(r *Router) {
		r.corsOrigins = origins
	}
}

// WithStaticDir serves a single page application from dir.
func WithStaticDir(dir string) Option {
	return func(r *Router) {
		r.staticDir = dir
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(r *Router) {
		r.requestTimeout = timeout
	}
}

func New(
	users userService,
	books bookService,
	catalog catalogSearcher,
	tokens tokenIssuer,
	storage pinger,
	auth authenticator.Authenticator,
	options ...Option,
) *Router {
	r := &Router{
		users:          users,
		books:          books,
		catalog:        catalog,
		tokens:         tokens,
		storage:        storage,
		auth:           auth,
		validate:       validator.New(),
		corsOrigins:    []string{"*"},
		requestTimeout: defaultRequestTimeout,
		trustedOnly: func(http.Handler) http.Handler {
			return http.HandlerFunc(denyAll)
		},
	}
	for _, option := range options {
		option(r)
	}

	return r
}

// Handler assembles the middleware chain and the route table.
func (r *Router) Handler() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RealIP)
	mux.Use(logger.WithRequestIDHTTPMiddleware)
	mux.Use(logger.WithLoggingHTTPMiddleware)
	if r.metrics != nil {
		mux.Use(r.metrics)
	}
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", logger.RequestIDHeader},
		ExposedHeaders:   []string{logger.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(middleware.Compress(5, "application/json", "text/html", "text/css", "application/javascript"))
	mux.Use(gzippedhttp.UngzipRequest)
	mux.Use(middleware.Timeout(r.requestTimeout))
	mux.Use(r.auth.Authenticate)

	mux.NotFound(notFound)
	mux.MethodNotAllowed(methodNotAllowed)

	mux.Get("/ping", r.GetPing)
	if r.metricsHandler != nil {
		mux.Handle("/metrics", r.metricsHandler)
	}
	mux.With(r.trustedOnly).Get("/internal/stats", r.GetInternalStats)

	mux.Route("/auth", func(auth chi.Router) {
		auth.Post("/token", r.PostAuthToken)
		auth.Post("/register", r.PostAuthRegister)
	})

	mux.Route("/users", func(users chi.Router) {
		users.With(r.auth.EnsureLoggedIn).Get("/", r.GetUsers)
		users.With(r.auth.EnsureLoggedIn).Get("/{username}", r.GetUser)
		users.With(r.auth.EnsureCorrectUser).Patch("/{username}", r.PatchUser)
		users.With(r.auth.EnsureCorrectUser).Delete("/{username}", r.DeleteUser)
	})

	mux.Route("/books", func(books chi.Router) {
		books.Use(r.auth.EnsureLoggedIn)
		books.Post("/", r.PostBooks)
		books.Get("/search", r.GetBooksSearch)
		books.Get("/saved", r.GetBooksSaved)
		books.Patch("/{bookId}/comment", r.PatchBookComment)
		books.Delete("/{bookId}", r.DeleteBook)
	})

	if r.staticDir != "" {
		mux.Get("/*", r.serveSPA)
	}

	return mux
}
