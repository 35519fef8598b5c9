package metadatahttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/i2y/oasmeta/internal/domain"
	"github.com/i2y/oasmeta/internal/usecase"
)

// Handlers struct holds dependencies for the HTTP handlers.
type Handlers struct {
	resolver usecase.MetadataResolver
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(resolver usecase.MetadataResolver, logger *slog.Logger) *Handlers {
	return &Handlers{
		resolver: resolver,
		logger:   logger.With("component", "metadatahttp_handler"),
	}
}

// RegisterRoutes sets up the metadata and admin routes.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /sources", h.handleListSources)
	mux.HandleFunc("GET /sources/{source}/endpoints", h.handleEndpoints)
	mux.HandleFunc("GET /sources/{source}/class-names", h.handleClassNames)
	mux.HandleFunc("GET /sources/{source}/types", h.handleType)
	mux.HandleFunc("GET /sources/{source}/batch-types", h.handleBatchType)

	mux.HandleFunc("POST /admin/sources", h.handleRegisterSource)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// RegisterSourceRequest defines the expected JSON body for POST /admin/sources.
type RegisterSourceRequest struct {
	Name    string            `json:"name"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Auth    *struct {
		Type         string `json:"type"`
		Username     string `json:"username"`
		Password     string `json:"password"`
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"auth,omitempty"`
}

func (h *Handlers) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.resolver.Sources(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, usecase.NewSourceViews(sources))
}

func (h *Handlers) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.resolver.Endpoints(r.Context(), r.PathValue("source"), r.URL.Query().Get("operation"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, endpoints)
}

func (h *Handlers) handleClassNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.resolver.ClassNames(r.Context(), r.PathValue("source"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, names)
}

// handleType implements GET /sources/{source}/types?endpoint=&operation=&direction=input|output
func (h *Handlers) handleType(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	endpoint, operation := q.Get("endpoint"), q.Get("operation")
	if endpoint == "" || operation == "" {
		http.Error(w, "Missing 'endpoint' or 'operation' query parameter", http.StatusBadRequest)
		return
	}
	direction := q.Get("direction")
	if direction == "" {
		direction = string(usecase.DirectionOutput)
	}
	dir, err := usecase.ParseDirection(direction)
	if err != nil {
		h.writeError(w, err)
		return
	}

	t, err := h.resolver.TypeFor(r.Context(), r.PathValue("source"), endpoint, operation, dir)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) handleBatchType(w http.ResponseWriter, r *http.Request) {
	className := r.URL.Query().Get("class_name")
	if className == "" {
		http.Error(w, "Missing 'class_name' query parameter", http.StatusBadRequest)
		return
	}
	t, err := h.resolver.BatchType(r.Context(), r.PathValue("source"), className)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, t)
}

// handleRegisterSource implements POST /admin/sources
func (h *Handlers) handleRegisterSource(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req RegisterSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Failed to decode register request body", slog.Any("error", err))
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	source := domain.Source{Name: req.Name, SpecURL: req.URL, Headers: req.Headers}
	if req.Auth != nil {
		source.Auth = domain.AuthConfig{
			Type:         domain.AuthType(req.Auth.Type),
			Username:     req.Auth.Username,
			Password:     req.Auth.Password,
			ClientID:     req.Auth.ClientID,
			ClientSecret: req.Auth.ClientSecret,
		}
	}

	h.logger.Info("Received register request", slog.String("source", req.Name), slog.String("url", req.URL))
	if err := h.resolver.RegisterSources(r.Context(), []domain.Source{source}); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// StatusFor maps an error returned by the use case to an HTTP status code.
func StatusFor(err error) int {
	var docErr *domain.DocumentError
	switch {
	case errors.Is(err, domain.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.As(err, &docErr) && docErr.Timeout:
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrDocumentUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrUnknownSchemaType), errors.Is(err, domain.ErrSchemaResolution):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	var msg string
	switch {
	case errors.Is(err, domain.ErrUnknownSchemaType):
		msg = "Unknown schema type"
	case errors.Is(err, domain.ErrSchemaResolution):
		msg = "Schema resolution failed"
	case errors.Is(err, domain.ErrDocumentUnavailable):
		msg = "OpenAPI document unavailable"
	case status == http.StatusNotFound:
		msg = "Source not found"
	case status == http.StatusBadRequest:
		msg = "Invalid request"
	default:
		msg = "Internal error"
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", slog.Int("status", status), slog.Any("error", err))
	} else {
		h.logger.Warn("Request rejected", slog.Int("status", status), slog.Any("error", err))
	}
	http.Error(w, fmt.Sprintf("%s: %v", msg, err), status)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", slog.Any("error", err))
	}
}
