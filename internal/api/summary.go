// Package api provides REST API endpoints for bid period summaries.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bidpack_parser/internal/storage"
)

// SummaryStore is the subset of storage reads the API serves.
// *storage.PostgresDB satisfies it.
type SummaryStore interface {
	GetSummary(ctx context.Context, bidPeriod, kind string) ([]byte, error)
	ListTripDetails(ctx context.Context, bidPeriod string) ([][]byte, error)
	ListPayPeriods(ctx context.Context, bidPeriod string) ([]storage.PayPeriodRow, error)
}

// SummaryServer provides REST API access to parsed bid period data.
type SummaryServer struct {
	pg          SummaryStore
	audit       *storage.AuditDB
	port        int
	authEnabled bool
	apiKeys     map[string]bool // Simple API key auth (when enabled).
}

// Config holds configuration for the summary API server.
type Config struct {
	Port        int
	AuthEnabled bool
	APIKeys     []string // List of valid API keys.
}

// NewSummaryServer creates a new summary API server.
func NewSummaryServer(pg SummaryStore, audit *storage.AuditDB, cfg Config) *SummaryServer {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	return &SummaryServer{
		pg:          pg,
		audit:       audit,
		port:        cfg.Port,
		authEnabled: cfg.AuthEnabled,
		apiKeys:     keys,
	}
}

// Run starts the HTTP server.
func (s *SummaryServer) Run() error {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for browser access.
	r.Use(corsMiddleware)

	// Prometheus scrape endpoint (no auth).
	r.Handle("/metrics", promhttp.Handler())

	// Optional authentication.
	if s.authEnabled {
		r.Use(s.authMiddleware)
	}

	// API routes.
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required).
		r.Get("/health", s.handleHealth)

		// Bid period summaries.
		r.Get("/periods/{bid_period}/edw", s.handleGetEDWSummary)
		r.Get("/periods/{bid_period}/lines", s.handleGetLineSummary)

		// Detail rows.
		r.Get("/periods/{bid_period}/trips", s.handleListTrips)
		r.Get("/periods/{bid_period}/pay-periods", s.handleListPayPeriods)

		// Parse issue audit.
		r.Get("/periods/{bid_period}/issues", s.handleListIssues)
	})

	addr := ":" + strconv.Itoa(s.port)
	log.Printf("Summary API starting at http://localhost%s", addr)
	if s.authEnabled {
		log.Printf("Authentication: ENABLED (API key required)")
	} else {
		log.Printf("Authentication: DISABLED (open access)")
	}

	return http.ListenAndServe(addr, r)
}

// Router returns the configured chi router for embedding in other servers.
func (s *SummaryServer) Router() chi.Router {
	r := chi.NewRouter()

	// Optional authentication.
	if s.authEnabled {
		r.Use(s.authMiddleware)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/periods/{bid_period}/edw", s.handleGetEDWSummary)
	r.Get("/periods/{bid_period}/lines", s.handleGetLineSummary)
	r.Get("/periods/{bid_period}/trips", s.handleListTrips)
	r.Get("/periods/{bid_period}/pay-periods", s.handleListPayPeriods)
	r.Get("/periods/{bid_period}/issues", s.handleListIssues)

	return r
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates API key authentication.
func (s *SummaryServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check X-API-Key header first.
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		// Fall back to query parameter (for simple testing).
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *SummaryServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *SummaryServer) handleGetEDWSummary(w http.ResponseWriter, r *http.Request) {
	s.serveSummary(w, r, "edw")
}

func (s *SummaryServer) handleGetLineSummary(w http.ResponseWriter, r *http.Request) {
	s.serveSummary(w, r, "lines")
}

func (s *SummaryServer) serveSummary(w http.ResponseWriter, r *http.Request, kind string) {
	bidPeriod := chi.URLParam(r, "bid_period")
	if bidPeriod == "" {
		writeError(w, http.StatusBadRequest, "bid_period is required")
		return
	}

	raw, err := s.pg.GetSummary(r.Context(), bidPeriod, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if raw == nil {
		writeError(w, http.StatusNotFound, "No summary found for bid period")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *SummaryServer) handleListTrips(w http.ResponseWriter, r *http.Request) {
	bidPeriod := chi.URLParam(r, "bid_period")
	if bidPeriod == "" {
		writeError(w, http.StatusBadRequest, "bid_period is required")
		return
	}

	details, err := s.pg.ListTripDetails(r.Context(), bidPeriod)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(details) == 0 {
		writeError(w, http.StatusNotFound, "No trips found for bid period")
		return
	}

	// Each detail is already JSON; join them into an array without
	// re-decoding.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("["))
	for i, d := range details {
		if i > 0 {
			_, _ = w.Write([]byte(","))
		}
		_, _ = w.Write(d)
	}
	_, _ = w.Write([]byte("]"))
}

func (s *SummaryServer) handleListPayPeriods(w http.ResponseWriter, r *http.Request) {
	bidPeriod := chi.URLParam(r, "bid_period")
	if bidPeriod == "" {
		writeError(w, http.StatusBadRequest, "bid_period is required")
		return
	}

	rows, err := s.pg.ListPayPeriods(r.Context(), bidPeriod)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "No pay periods found for bid period")
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

// IssueResponse is the JSON shape for a parse issue.
type IssueResponse struct {
	ID         int64  `json:"id"`
	Kind       string `json:"kind"`
	Severity   string `json:"severity"`
	BlockKey   string `json:"block_key"`
	Reason     string `json:"reason"`
	Excerpt    string `json:"excerpt,omitempty"`
	Annotation string `json:"annotation,omitempty"`
	Resolved   bool   `json:"resolved"`
	CreatedAt  string `json:"created_at"`
}

func (s *SummaryServer) handleListIssues(w http.ResponseWriter, r *http.Request) {
	bidPeriod := chi.URLParam(r, "bid_period")
	if bidPeriod == "" {
		writeError(w, http.StatusBadRequest, "bid_period is required")
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	issues, err := s.audit.ListIssues(bidPeriod, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	unresolved, err := s.audit.CountUnresolved(bidPeriod)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]IssueResponse, 0, len(issues))
	for _, is := range issues {
		results = append(results, IssueResponse{
			ID:         is.ID,
			Kind:       is.Kind,
			Severity:   is.Severity,
			BlockKey:   is.BlockKey,
			Reason:     is.Reason,
			Excerpt:    is.Excerpt,
			Annotation: is.Annotation,
			Resolved:   is.Resolved,
			CreatedAt:  is.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bid_period": bidPeriod,
		"unresolved": unresolved,
		"issues":     results,
	})
}

// Helper functions.

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
