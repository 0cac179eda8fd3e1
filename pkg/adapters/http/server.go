package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/concord"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/negotiation"
	"github.com/aretw0/concord/pkg/ports"
	"github.com/aretw0/concord/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// maxBodyBytes caps a submission payload.
const maxBodyBytes = 1 << 20

// Service is the negotiation surface served over HTTP. *negotiation.Manager
// implements it.
type Service interface {
	Templates(ctx context.Context) ([]string, error)
	Template(ctx context.Context, templateID string) (domain.Template, error)
	Submit(ctx context.Context, pref domain.PartyPreference, metadata map[string]string) (negotiation.Receipt, error)
	Result(ctx context.Context, templateID string) (domain.TemplateResult, error)
	Group(ctx context.Context, templateID, groupID string) (domain.GroupOutcome, error)
	History(ctx context.Context, templateID, groupID string, party domain.Party) ([]domain.StoredPreference, error)
	OnChange(fn negotiation.ChangeFunc) func()
	TieBreak() string
}

var _ Service = (*negotiation.Manager)(nil)

// Server holds the handlers' dependencies.
type Server struct {
	Service Service
	Streams *StreamManager

	metrics http.Handler
	watcher ports.Watchable
	logger  *slog.Logger

	handler     http.Handler
	unsubscribe func()
	closeOnce   sync.Once
}

// Option configures the handler.
type Option func(*Server)

// WithMetrics mounts a Prometheus handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithCatalogWatch streams catalog changes on /events when no template is given.
func WithCatalogWatch(w ports.Watchable) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the service. Result changes are
// pushed to SSE subscribers until Close is called.
func NewHandler(svc Service, opts ...Option) *Server {
	server := &Server{
		Service: svc,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams = NewStreamManager(server.logger)

	server.unsubscribe = svc.OnChange(func(_ context.Context, diff *domain.ResultDiff) {
		payload, err := json.Marshal(diff)
		if err != nil {
			server.logger.Error("Failed to encode result diff", "template_id", diff.TemplateID, "err", err)
			return
		}
		server.Streams.Broadcast(diff.TemplateID, string(payload))
	})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/events", server.SubscribeEvents)
	r.Route("/templates", func(r chi.Router) {
		r.Get("/", server.ListTemplates)
		r.Route("/{templateID}", func(r chi.Router) {
			r.Get("/", server.GetTemplate)
			r.Post("/preferences", server.SubmitPreference)
			r.Get("/result", server.GetResult)
			r.Get("/groups/{groupID}", server.GetGroup)
			r.Get("/groups/{groupID}/history", server.GetHistory)
		})
	})

	server.handler = enableCORS(r)
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close detaches the server from the service's change feed. Open event
// streams stop receiving result diffs; requests are still served.
func (s *Server) Close() {
	s.closeOnce.Do(s.unsubscribe)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
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
    <title>Concord API Documentation</title>
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

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error      string                `json:"error"`
	Violations []validator.Violation `json:"violations,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validator.ErrMalformedSubmission), errors.Is(err, domain.ErrUnknownParty):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTemplateNotFound), errors.Is(err, domain.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPreference):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Warn(op+" rejected", "status", status, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Violations: validator.Violations(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "concord-http",
		"version":     concord.Version,
		"api_version": apiVersion,
		"tie_break":   s.Service.TieBreak(),
	})
}

// ListTemplates handles the GET /templates request.
func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.Templates(r.Context())
	if err != nil {
		s.writeError(w, "ListTemplates", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"templates": ids})
}

// GetTemplate handles the GET /templates/{templateID} request.
func (s *Server) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.Service.Template(r.Context(), chi.URLParam(r, "templateID"))
	if err != nil {
		s.writeError(w, "GetTemplate", err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// SubmitPreference handles the POST /templates/{templateID}/preferences request.
func (s *Server) SubmitPreference(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")

	var body map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		s.writeError(w, "SubmitPreference", fmt.Errorf("%w: invalid request body: %v", validator.ErrMalformedSubmission, err))
		return
	}
	if err := validateSchema("SubmissionRequest", body); err != nil {
		s.writeError(w, "SubmitPreference", fmt.Errorf("%w: %v", validator.ErrMalformedSubmission, err))
		return
	}
	if id, ok := body["template_id"].(string); ok && id != templateID {
		s.writeError(w, "SubmitPreference", fmt.Errorf("%w: body names template %q, path names %q", validator.ErrMalformedSubmission, id, templateID))
		return
	}
	body["template_id"] = templateID

	sub, err := validator.Decode(body)
	if err != nil {
		s.writeError(w, "SubmitPreference", err)
		return
	}

	receipt, err := s.Service.Submit(r.Context(), sub.Preference, sub.Metadata)
	if err != nil {
		s.writeError(w, "SubmitPreference", err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// GetResult handles the GET /templates/{templateID}/result request.
func (s *Server) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.Service.Result(r.Context(), chi.URLParam(r, "templateID"))
	if err != nil {
		s.writeError(w, "GetResult", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetGroup handles the GET /templates/{templateID}/groups/{groupID} request.
func (s *Server) GetGroup(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.Service.Group(r.Context(), chi.URLParam(r, "templateID"), chi.URLParam(r, "groupID"))
	if err != nil {
		s.writeError(w, "GetGroup", err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// GetHistory handles the GET /templates/{templateID}/groups/{groupID}/history request.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	var rawParty string
	if err := runtime.BindQueryParameter("form", true, true, "party", r.URL.Query(), &rawParty); err != nil {
		s.writeError(w, "GetHistory", fmt.Errorf("%w: %v", domain.ErrUnknownParty, err))
		return
	}
	party, err := domain.ParseParty(rawParty)
	if err != nil {
		s.writeError(w, "GetHistory", err)
		return
	}

	versions, err := s.Service.History(r.Context(), chi.URLParam(r, "templateID"), chi.URLParam(r, "groupID"), party)
	if err != nil {
		s.writeError(w, "GetHistory", err)
		return
	}
	if versions == nil {
		versions = []domain.StoredPreference{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.StoredPreference{"versions": versions})
}

// SubscribeEventsParams are the query parameters of GET /events.
type SubscribeEventsParams struct {
	TemplateID *string
	Watch      *string
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var params SubscribeEventsParams
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "template_id", query, &params.TemplateID); err != nil {
		http.Error(w, fmt.Sprintf("Invalid template_id: %v", err), http.StatusBadRequest)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "watch", query, &params.Watch); err != nil {
		http.Error(w, fmt.Sprintf("Invalid watch: %v", err), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	if params.TemplateID == nil {
		s.streamCatalog(w, r, flusher)
		return
	}

	templateID := *params.TemplateID
	if _, err := s.Service.Template(r.Context(), templateID); err != nil {
		s.writeError(w, "SubscribeEvents", err)
		return
	}

	s.logger.Info("SSE: Subscribing to result updates", "template_id", templateID)
	ch, cancel := s.Streams.Subscribe(templateID)
	defer cancel()

	setStreamHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if params.Watch != nil {
		for _, field := range strings.Split(*params.Watch, ",") {
			if field = strings.TrimSpace(field); field != "" {
				watchList = append(watchList, field)
			}
		}
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "template_id", templateID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "event: result\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) streamCatalog(w http.ResponseWriter, r *http.Request, flusher http.Flusher) {
	if s.watcher == nil {
		http.Error(w, "template_id is required: catalog watching is not enabled", http.StatusBadRequest)
		return
	}

	s.logger.Info("SSE: Subscribing to catalog changes")
	events, err := s.watcher.Watch(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
		return
	}

	setStreamHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: catalog\ndata: %s\n\n", event)
			flusher.Flush()
		}
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// watched reports whether a diff touches a watched group, or the status when
// "status" is watched.
func watched(msg string, watchList []string) bool {
	var diff domain.ResultDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		if field == "status" && diff.Status != nil {
			return true
		}
		for _, g := range diff.Groups {
			if g.GroupID == field {
				return true
			}
		}
	}
	return false
}
