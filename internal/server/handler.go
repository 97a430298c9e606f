package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/pheonix/internal/model"
)

// maxRequestBody bounds the size of an analyze request.
const maxRequestBody = 64 << 10

// Analyzer runs analyses and lists the providers available per kind.
type Analyzer interface {
	Analyze(ctx context.Context, kind model.Kind, raw string, enabled []string) *model.AggregateReport
	ProviderNames(kind model.Kind) []string
}

// History persists finished reports.
type History interface {
	SaveReport(ctx context.Context, report *model.AggregateReport) error
}

// Handler serves the pheonix HTTP API.
type Handler struct {
	logger   *slog.Logger
	analyzer Analyzer
	history  History
	gatherer prometheus.Gatherer
	timeout  time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithHistory saves every report produced by the analyze endpoint.
func WithHistory(h History) Option {
	return func(hd *Handler) {
		hd.history = h
	}
}

// WithGatherer serves metrics from g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) {
		h.gatherer = g
	}
}

// WithRequestTimeout bounds the duration of one analysis.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewHandler creates a new Handler.
func NewHandler(analyzer Analyzer, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:   logger,
		analyzer: analyzer,
		timeout:  2 * time.Minute,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the API routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.RequestID)
	api.Use(middleware.Recoverer)
	api.Post("/api/v1/analyze", h.handleAnalyze)
	api.Get("/api/v1/providers", h.handleProviders)
	api.Get("/healthz", h.handleHealth)
	if h.gatherer != nil {
		api.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.Mount("/", api)
}

// Router returns a router with every route registered.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	Kind      string   `json:"kind"`
	Input     string   `json:"input"`
	Providers []string `json:"providers,omitempty"`
}

// ProvidersResponse lists provider names per kind.
type ProvidersResponse struct {
	Kinds map[model.Kind][]string `json:"kinds"`
}

// handleAnalyze always answers with a single response. The analysis is
// bounded by the request timeout and a timed-out analysis still yields a
// report in which the unfinished providers are NetworkError.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	requestID := middleware.GetReqID(ctx)

	var req AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid analyze request", "request_id", requestID, "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	kind, err := model.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	report := h.analyzer.Analyze(ctx, kind, req.Input, req.Providers)
	if h.history != nil {
		// The request context may already be done after a slow analysis.
		if err := h.history.SaveReport(context.WithoutCancel(ctx), report); err != nil {
			h.logger.WarnContext(ctx, "failed to save report",
				"request_id", requestID,
				"report_id", report.ID,
				"error", err,
			)
		}
	}

	h.logger.InfoContext(ctx, "analysis finished",
		"request_id", requestID,
		"kind", kind,
		"providers", len(report.Results),
		"failures", len(report.Failures()),
		"duration", report.Duration(),
	)
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleProviders(w http.ResponseWriter, _ *http.Request) {
	resp := ProvidersResponse{Kinds: make(map[model.Kind][]string)}
	for _, k := range model.Kinds() {
		resp.Kinds[k] = h.analyzer.ProviderNames(k)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
