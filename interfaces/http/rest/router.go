// Package rest wires the handler pipeline onto a chi router: a
// constructor-injected Setup() http.Handler, a global middleware and
// CORS stack, and one wildcard route dispatched by HTTP method, since
// LDP addresses any resource at any path rather than a fixed set of
// named endpoints.
package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/trellis-ldp/trellis-core/application/pipeline"
	"github.com/trellis-ldp/trellis-core/infrastructure/config"
	"github.com/trellis-ldp/trellis-core/interfaces/http/handlers"
	"github.com/trellis-ldp/trellis-core/interfaces/http/httpreq"
	"github.com/trellis-ldp/trellis-core/interfaces/http/middleware"
	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

// maxRequestBody bounds how much of a request body serveLDP buffers
// before handing it to a handler; binary uploads larger than this
// are rejected rather than streamed.
const maxRequestBody = 256 << 20

// Router creates and configures the HTTP router.
type Router struct {
	handlers *handlers.Handlers
	pipeline *pipeline.Pipeline
	cfg      *config.Config
	logger   *zap.Logger
}

// NewRouter creates a new router instance.
func NewRouter(h *handlers.Handlers, p *pipeline.Pipeline, cfg *config.Config, logger *zap.Logger) *Router {
	return &Router{handlers: h, pipeline: p, cfg: cfg, logger: logger}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders: []string{
			"Accept", "Accept-Datetime", "Authorization", "Content-Type", "Digest",
			"If-Match", "If-None-Match", "If-Modified-Since", "If-Unmodified-Since",
			"Link", "Prefer", "Range", "Slug", "Want-Digest",
		},
		ExposedHeaders: []string{
			"ETag", "Last-Modified", "Link", "Location", "Content-Location",
			"Memento-Datetime", "Preference-Applied", "Accept-Post", "Accept-Patch",
			"Allow", "Vary", "Digest",
		},
		MaxAge: 300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Handle("/metrics", promhttp.Handler())

	router.HandleFunc("/*", rt.serveLDP)

	return router
}

// serveLDP parses the inbound request, buffers its body for the
// methods that need one, runs the matching handler through the
// pipeline, and translates the result (or error) into a response.
func (rt *Router) serveLDP(w http.ResponseWriter, r *http.Request) {
	req, err := httpreq.Parse(r, rt.cfg.ExtensionNames())
	if err != nil {
		writeError(w, apperrors.NewValidation("malformed request: "+err.Error()))
		return
	}

	var body []byte
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		b, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
		if err != nil {
			writeError(w, apperrors.NewInternal("reading request body", err))
			return
		}
		if len(b) > maxRequestBody {
			writeError(w, apperrors.NewValidation("request body too large"))
			return
		}
		body = b
	}

	op := pipeline.Operation{Method: r.Method, ResourceID: req.Path}

	result, err := rt.pipeline.Execute(r.Context(), op, func(ctx context.Context) (*pipeline.Result, error) {
		switch r.Method {
		case http.MethodGet:
			return rt.handlers.Get(ctx, req)
		case http.MethodHead:
			return rt.handlers.Head(ctx, req)
		case http.MethodOptions:
			return rt.handlers.Options(ctx, req)
		case http.MethodPost:
			return rt.handlers.Post(ctx, req, body)
		case http.MethodPut:
			return rt.handlers.Put(ctx, req, body)
		case http.MethodPatch:
			return rt.handlers.Patch(ctx, req, body)
		case http.MethodDelete:
			return rt.handlers.Delete(ctx, req)
		default:
			return nil, apperrors.NewMethodNotAllowed("method not supported",
				[]string{"GET", "HEAD", "OPTIONS", "POST", "PUT", "PATCH", "DELETE"})
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, result)
}

func writeResult(w http.ResponseWriter, result *pipeline.Result) {
	header := w.Header()
	for key, values := range result.Header {
		for _, v := range values {
			header.Add(key, v)
		}
	}
	w.WriteHeader(result.Status)
	if len(result.Body) > 0 {
		_, _ = w.Write(result.Body)
	}
}

// writeError maps an AppError onto its status code, along
// with the Allow and constrainedBy Link headers a handler attached to
// it.
func writeError(w http.ResponseWriter, err error) {
	appErr := apperrors.As(err)
	header := w.Header()
	if len(appErr.Allow) > 0 {
		header.Set("Allow", strings.Join(appErr.Allow, ", "))
	}
	if appErr.ConstrainedBy != "" {
		for _, rule := range strings.Split(appErr.ConstrainedBy, ",") {
			header.Add("Link", fmt.Sprintf(`<%s>; rel="http://www.w3.org/ns/ldp#constrainedBy"`, rule))
		}
	}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(appErr.StatusCode())
	_, _ = io.WriteString(w, appErr.Message)
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
