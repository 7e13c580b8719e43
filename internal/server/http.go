package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ElodielAirea/WoWAnalyzer/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	Recording string `json:"recording"`
}

// Handler serves the HTTP API.
type Handler struct {
	svc    *AnalyzerService
	logger *zap.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(svc *AnalyzerService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// NewRouter configures middleware and routes. hub may be nil to disable /ws.
func NewRouter(h *Handler, hub *Hub, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.ListReports)
			r.Get("/{id}", h.GetReport)
		})
		r.Get("/recordings", h.ListRecordings)
		r.Post("/analyze", h.Analyze)
	})

	if hub != nil {
		r.Get("/ws", hub.ServeHTTP)
	}

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// ListReports handles GET /api/reports?limit=N.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}

	reports, err := h.svc.Reports(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list reports", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list reports", err)
		return
	}
	if reports == nil {
		reports = []repository.ReportSummary{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// GetReport handles GET /api/reports/{id}.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := h.svc.Report(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found", nil)
			return
		}
		h.logger.Error("failed to get report", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListRecordings handles GET /api/recordings.
func (h *Handler) ListRecordings(w http.ResponseWriter, _ *http.Request) {
	names, err := h.svc.Recordings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list recordings", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// Analyze handles POST /api/analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	report, err := h.svc.Analyze(r.Context(), req.Recording)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.Is(err, ErrInvalidRecordingName):
		writeError(w, http.StatusBadRequest, "invalid recording name", err)
	case errors.Is(err, ErrRecordingNotFound):
		writeError(w, http.StatusNotFound, "recording not found", err)
	default:
		h.logger.Error("analysis failed", zap.String("recording", req.Recording), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
