// Package server exposes report generation and credibility scoring over
// HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/intel-cli/internal/credibility"
	"github.com/sells-group/intel-cli/internal/model"
	"github.com/sells-group/intel-cli/internal/ratelimit"
	"github.com/sells-group/intel-cli/internal/report"
	"github.com/sells-group/intel-cli/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Reports builds and looks up reports.
type Reports interface {
	Analyze(ctx context.Context, req model.AnalyzeRequest) (*model.Report, error)
	Get(ctx context.Context, company string) (*model.Report, error)
}

// Config wires the server's collaborators.
type Config struct {
	Reports        Reports
	Scorer         *credibility.Scorer
	Auth           *Authenticator
	Limiter        *ratelimit.PerUser
	AllowedOrigins []string
}

type server struct {
	cfg Config
}

// New returns the API router.
func New(cfg Config) http.Handler {
	s := &server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.Auth.Middleware)
		r.Use(s.rateLimit)
		r.Post("/analyze", s.analyze)
		r.Get("/reports/{company}", s.getReport)
		r.Post("/score", s.score)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Limiter != nil {
			user := UserID(r.Context())
			if !s.cfg.Limiter.Allow(user) {
				secs := int(s.cfg.Limiter.RetryAfter(user).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) analyze(w http.ResponseWriter, r *http.Request) {
	var req model.AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = UserID(r.Context())

	rep, err := s.cfg.Reports.Analyze(r.Context(), req)
	switch {
	case errors.Is(err, report.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "company is required")
	case err != nil:
		zap.L().Error("analyze failed", zap.String("company", req.Company), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
	default:
		writeJSON(w, http.StatusOK, rep)
	}
}

func (s *server) getReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.cfg.Reports.Get(r.Context(), chi.URLParam(r, "company"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "report not found")
	case errors.Is(err, report.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "company is required")
	case err != nil:
		zap.L().Error("get report failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
	default:
		writeJSON(w, http.StatusOK, rep)
	}
}

type scoreRequest struct {
	Company    string               `json:"company"`
	Competitor string               `json:"competitor,omitempty"`
	Results    []model.SearchResult `json:"results"`
	// All returns rejected results too.
	All bool `json:"all,omitempty"`
}

type scoreResponse struct {
	Results []model.ScoredResult `json:"results"`
}

func (s *server) score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Company == "" {
		writeError(w, http.StatusBadRequest, "company is required")
		return
	}

	subj := credibility.Subject{Company: req.Company, Competitor: req.Competitor}
	var out []model.ScoredResult
	if req.All {
		out = s.cfg.Scorer.ScoreAll(req.Results, subj)
	} else {
		out = s.cfg.Scorer.Filter(req.Results, subj)
	}
	writeJSON(w, http.StatusOK, scoreResponse{Results: out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
