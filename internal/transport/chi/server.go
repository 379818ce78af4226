package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/domain/document"
	logpkg "github.com/kailas-cloud/croptalk/internal/logger"
	"github.com/kailas-cloud/croptalk/internal/metrics"
	healthuc "github.com/kailas-cloud/croptalk/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/croptalk/internal/usecase/retrieval"
)

// maxBodyBytes bounds a retrieval request body.
const maxBodyBytes = 64 << 10

// Error codes of the JSON error envelope.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeUnauthorized      = "unauthorized"
	codeFetchFailed       = "fetch_failed"
	codeEmbeddingProvider = "embedding_provider_error"
	codeInternal          = "internal_error"
)

// Retriever runs one retrieval.
type Retriever interface {
	Search(ctx context.Context, q retrievaluc.Query) (retrievaluc.Result, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorMapping turns a domain sentinel into an HTTP answer.
type errorMapping struct {
	sentinel error
	status   int
	code     string
	// detailed errors are safe to echo, the rest answer with the sentinel text.
	detailed bool
}

var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed, true},
	{domain.ErrFetch, http.StatusBadGateway, codeFetchFailed, false},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider, false},
}

// Server exposes document retrieval over HTTP.
type Server struct {
	retrieval Retriever
	health    HealthChecker
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(retrieval Retriever, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{retrieval: retrieval, health: health, logger: logger}
}

// Handler builds the router. Ops routes stay open; /v1 requires an API key
// when apiKeys is non-empty.
func (s *Server) Handler(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(
		jsonRecoverer(s.logger),
		chiMiddleware.RequestID,
		requestLogger(s.logger),
		metrics.Middleware(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(RequireAPIKey(apiKeys))
		r.Post("/documents", s.GetDocuments)
	})
	return r
}

// resolutionResponse reports how one facet value was resolved.
type resolutionResponse struct {
	Facet  string `json:"facet"`
	Input  string `json:"input,omitempty"`
	Code   string `json:"code,omitempty"`
	Status string `json:"status"`
}

// documentsResponse is the body of POST /v1/documents. Rendered holds the
// tagged-string form of each document, in the same order.
type documentsResponse struct {
	Documents   []document.Document  `json:"documents"`
	Rendered    []string             `json:"rendered"`
	Filter      map[string]any       `json:"filter"`
	Resolutions []resolutionResponse `json:"resolutions"`
	Candidates  int                  `json:"candidates"`
}

// GetDocuments handles POST /v1/documents. The body uses the retrieval tool
// argument names: query, doc_category, commodity, county, state, top_k,
// include_common_docs.
func (s *Server) GetDocuments(w http.ResponseWriter, r *http.Request) {
	var args map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&args); err != nil || args == nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "request body must be a JSON object")
		return
	}

	q, err := retrievaluc.QueryFromArgs(args)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	res, err := s.retrieval.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	resp := documentsResponse{
		Documents:   res.Documents,
		Rendered:    make([]string, 0, len(res.Documents)),
		Filter:      res.Filter.Wire(),
		Resolutions: make([]resolutionResponse, 0, len(res.Resolutions)),
		Candidates:  res.Candidates,
	}
	if resp.Documents == nil {
		resp.Documents = []document.Document{}
	}
	for _, d := range res.Documents {
		resp.Rendered = append(resp.Rendered, d.Render())
	}
	for _, rs := range res.Resolutions {
		resp.Resolutions = append(resp.Resolutions, resolutionResponse{
			Facet:  string(rs.Facet),
			Input:  rs.Input,
			Code:   rs.Code,
			Status: rs.Status.String(),
		})
	}

	w.Header().Set("X-Candidates", strconv.Itoa(res.Candidates))
	writeJSON(w, http.StatusOK, resp)
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health. Anything short of healthy answers 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	body := healthResponse{Status: string(report.Status), Checks: map[string]string{}}
	for name, res := range report.Checks {
		body.Checks[name] = string(res)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// handleDomainError answers with the first matching mapping, or 500 without
// any detail from err.
func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logpkg.FromContext(ctx, s.logger)
	for _, m := range errorMappings {
		if !errors.Is(err, m.sentinel) {
			continue
		}
		log.Warn("request failed", zap.String("code", m.code), zap.Error(err))
		msg := m.sentinel.Error()
		if m.detailed {
			msg = err.Error()
		}
		writeError(w, m.status, m.code, msg)
		return
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
