// Package http exposes a Wizard as a JSON API with server-sent events.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/adwizard"
	"github.com/aretw0/adwizard/internal/logging"
	"github.com/aretw0/adwizard/internal/upstream"
	"github.com/aretw0/adwizard/pkg/adapters/gateway"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/notify"
	"github.com/aretw0/adwizard/pkg/sanitize"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Forwarder runs the named text functions (chat, product-analyzer, strategist).
type Forwarder interface {
	Forward(ctx context.Context, function string, body []byte) ([]byte, error)
}

// Server holds the HTTP handlers.
type Server struct {
	Wizard   *adwizard.Wizard
	Streams  *StreamManager
	Gateway  Forwarder
	Gatherer prometheus.Gatherer

	spec   *openapi3.T
	logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager that is also registered on the wizard as a
// change listener. Without it the /events stream only sees pings.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithGateway enables /functions/{name}.
func WithGateway(f Forwarder) Option {
	return func(s *Server) {
		s.Gateway = f
	}
}

// WithGatherer sets the registry served on /metrics (default: prometheus.DefaultGatherer).
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler builds the router for w.
func NewHandler(w *adwizard.Wizard, opts ...Option) (http.Handler, error) {
	spec, err := LoadSpec()
	if err != nil {
		return nil, err
	}
	s := &Server{
		Wizard:   w,
		Gatherer: prometheus.DefaultGatherer,
		spec:     spec,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.Health)
	r.Get("/info", s.Info)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(RawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	r.Get("/templates", s.ListTemplates)
	r.Post("/match", s.Match)
	r.Get("/events", s.SubscribeEvents)
	r.Post("/functions/{name}", s.CallFunction)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/template", s.SelectTemplate)
			r.Post("/inputs", s.ProvideInput)
			r.Post("/inputs/{inputID}/skip", s.SkipInput)
			r.Post("/generate", s.StartGeneration)
			r.Post("/freeform", s.StartFreeform)
			r.Post("/reset", s.Reset)
			r.Post("/publish", s.Publish)
			r.Post("/reply", s.Reply)
			r.Put("/presence", s.SetPresence)
			r.Get("/notifications", s.GetNotificationSettings)
			r.Put("/notifications", s.SetNotificationSettings)
			r.Post("/feedback", s.SubmitFeedback)
		})
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>adwizard API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// -- Helpers --

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status >= 500 && status != http.StatusGatewayTimeout:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		msg = domain.UserMessage(err)
	case status == http.StatusTooManyRequests, status == http.StatusPaymentRequired, status == http.StatusGatewayTimeout:
		s.logger.Warn("upstream refused request", "path", r.URL.Path, "status", status, "err", err)
		msg = domain.UserMessage(err)
	}
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// statusFor maps domain and adapter errors onto HTTP statuses.
func statusFor(err error) int {
	var bad *gateway.BadRequestError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrTemplateNotFound),
		errors.Is(err, gateway.ErrUnknownFunction):
		return http.StatusNotFound
	case errors.Is(err, sanitize.ErrInputTooLarge), errors.Is(err, sanitize.ErrInvalidUTF8), errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, notify.ErrFeedbackSubmitted):
		return http.StatusConflict
	}
	return upstream.Status(err)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
