package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/lessonlens/internal/service"
	"github.com/kapu/lessonlens/internal/service/history"
	apperrors "github.com/kapu/lessonlens/pkg/errors"
)

// Router exposes the analysis pipeline over HTTP.
type Router struct {
	analyzer *service.Analyzer
	history  *history.Store
	logger   *zap.Logger
}

func NewRouter(analyzer *service.Analyzer, historyStore *history.Store, logger *zap.Logger) http.Handler {
	r := &Router{
		analyzer: analyzer,
		history:  historyStore,
		logger:   logger,
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(r.requestID)

	mux.Get("/health", r.handleHealth)
	mux.Post("/api/analyze", r.handleAnalyze)
	if r.history != nil {
		mux.Get("/api/videos/{videoID}/history", r.handleVideoHistory)
	}

	return mux
}

// requestID tags every request with a UUID for log correlation.
func (r *Router) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		r.logger.Debug("Request received",
			zap.String("request_id", id),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path))
		next.ServeHTTP(w, req)
	})
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	VideoURL          string `json:"videoUrl"`
	LearningIntention string `json:"learningIntention"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) {
	var body analyzeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorBody{
			Kind:    string(apperrors.KindInternal),
			Message: "request body must be JSON with videoUrl and learningIntention",
		}})
		return
	}

	response, err := r.analyzer.Analyze(req.Context(), body.VideoURL, body.LearningIntention)
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (r *Router) handleVideoHistory(w http.ResponseWriter, req *http.Request) {
	videoID := chi.URLParam(req, "videoID")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	results, err := r.history.RecentForVideo(req.Context(), videoID, limit)
	if err != nil {
		r.writeError(w, err)
		return
	}
	if results == nil {
		// Encode an empty list, not JSON null.
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (r *Router) writeError(w http.ResponseWriter, err error) {
	status := apperrors.StatusOf(err)
	kind := apperrors.KindOf(err)

	if status >= 500 {
		r.logger.Error("Request failed", zap.String("kind", string(kind)), zap.Error(err))
	} else {
		r.logger.Info("Request rejected", zap.String("kind", string(kind)), zap.Error(err))
	}

	// Expose only the caller-facing message, not wrapped causes.
	message := err.Error()
	var ae *apperrors.AnalysisError
	if errors.As(err, &ae) {
		message = ae.Message
	}

	writeJSON(w, status, errorResponse{Error: errorBody{
		Kind:    string(kind),
		Message: message,
	}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
