// Package chi exposes the service over HTTP: analytics reporting,
// question answering, and health.
package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bookinsight/bookinsight/internal/domain"
	healthuc "github.com/bookinsight/bookinsight/internal/usecase/health"
	"github.com/bookinsight/bookinsight/internal/usecase/report"
)

// welcomeMessage is the fixed GET / payload.
const welcomeMessage = "Welcome to the Hotel Analytics API!"

// Answerer runs the question-answering pipeline.
type Answerer interface {
	Answer(ctx context.Context, question string) domain.Answer
}

// Reporter computes the aggregate analytics report.
type Reporter interface {
	Generate() report.Report
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	reports Reporter
	qa      Answerer
	health  HealthChecker
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(reports Reporter, qa Answerer, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{reports: reports, qa: qa, health: health, logger: logger}
}

// Routes registers all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.handleRoot)
	r.Post("/analytics", s.handleAnalytics)
	r.Post("/ask", s.handleAsk)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.reports.Generate())
}

// askRequest is the POST /ask body.
type askRequest struct {
	Text string `json:"text"`
}

// askResponse is the POST /ask reply.
type askResponse struct {
	Answer            string   `json:"answer"`
	Confidence        float64  `json:"confidence"`
	RetrievedContexts []string `json:"retrieved_contexts"`
	QueryTimeSeconds  float64  `json:"query_time_seconds"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("malformed ask request", zap.Error(err))
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		s.logger.Warn("ask request without question text")
		writeError(w, http.StatusBadRequest, "validation_failed", "Question text is required")
		return
	}

	ans := s.qa.Answer(r.Context(), req.Text)

	contexts := ans.Contexts
	if contexts == nil {
		contexts = []string{}
	}
	writeJSON(w, http.StatusOK, askResponse{
		Answer:            ans.Text,
		Confidence:        ans.Confidence,
		RetrievedContexts: contexts,
		QueryTimeSeconds:  ans.Elapsed.Seconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	// Always 200: trouble is reported through the status field.
	writeJSON(w, http.StatusOK, s.health.Check(r.Context()))
}

// errorResponse is the JSON error envelope.
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
