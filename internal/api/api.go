// ABOUTME: HTTP API wiring for authentication and dictionary routes
// ABOUTME: Builds the chi router and its middleware stack from the services

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"github.com/otango/otango/internal/auth"
	"github.com/otango/otango/internal/dictionary"
)

// DefaultMaxBodyBytes caps request bodies when Options.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 1 << 20

// Options configures an API.
type Options struct {
	Auth       *auth.Service
	Dictionary *dictionary.Service

	// RootRedirect is where GET / redirects. Empty means 404.
	RootRedirect string

	// AllowedOrigins lists CORS origins. "*" allows any.
	AllowedOrigins []string

	MaxBodyBytes int64
	Logger       *slog.Logger
}

// API serves the HTTP routes.
type API struct {
	auth         *auth.Service
	dictionary   *dictionary.Service
	rootRedirect string
	origins      []string
	maxBody      int64
	logger       *slog.Logger
}

// New creates an API.
func New(opts Options) (*API, error) {
	if opts.Auth == nil {
		return nil, errors.New("api: auth service is required")
	}
	if opts.Dictionary == nil {
		return nil, errors.New("api: dictionary service is required")
	}
	if opts.RootRedirect != "" {
		if _, err := url.Parse(opts.RootRedirect); err != nil {
			return nil, fmt.Errorf("api: invalid root redirect: %w", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	return &API{
		auth:         opts.Auth,
		dictionary:   opts.Dictionary,
		rootRedirect: opts.RootRedirect,
		origins:      opts.AllowedOrigins,
		maxBody:      maxBody,
		logger:       logger.With("component", "api"),
	}, nil
}

// Handler returns the router with all middleware applied. Responses are
// gzip-compressed when the client accepts it and the body is large enough.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(a.logger))
	r.Use(middleware.Recoverer)
	// cors.Options treats an empty origin list as "*", so leave CORS off.
	if len(a.origins) > 0 {
		r.Use(corsHandler(a.origins))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Get("/", a.handleRoot)
	r.Get("/health", a.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", a.handleRegister)
		r.Post("/challenge", a.handleChallenge)
		r.Post("/me", a.handleMe)
	})

	r.Get("/word/{word}", a.handleGetWord)
	r.Post("/word/{word}", a.handlePutWord)
	r.Get("/kanji/{kanji}", a.handleGetKanji)
	r.Post("/kanji/{kanji}", a.handlePutKanji)

	return gzhttp.GzipHandler(r)
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	if a.rootRedirect == "" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	http.Redirect(w, r, a.rootRedirect, http.StatusPermanentRedirect)
}

// handleHealth returns OK if the server is running.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// decodeBody reads a single JSON value from the request body.
func decodeBody[T any](a *API, w http.ResponseWriter, r *http.Request) (*T, error) {
	body := http.MaxBytesReader(w, r.Body, a.maxBody)
	defer body.Close()

	var v T
	dec := json.NewDecoder(body)
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: decoding body: %w", auth.ErrInvalidRequest, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after body", auth.ErrInvalidRequest)
	}
	return &v, nil
}

// pathParam returns the unescaped route parameter.
func pathParam(r *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil || v == "" {
		return "", fmt.Errorf("%w: bad %s in path", auth.ErrInvalidRequest, name)
	}
	return v, nil
}
