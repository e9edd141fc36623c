package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/shortsfinder/internal/ports"
	"github.com/forPelevin/shortsfinder/internal/types"
	"github.com/forPelevin/shortsfinder/internal/usecase"
)

// ClipFinder is the slice of the use case the API serves.
type ClipFinder interface {
	Episodes(ctx context.Context) types.EpisodesResponse
	Episode(ctx context.Context, id string) (types.Episode, error)
	FindClips(ctx context.Context, q usecase.Query) (types.ClipsResponse, error)
}

// HistorySource serves optional historical clip performance records.
type HistorySource interface {
	HistoricalPerformance(ctx context.Context) ([]json.RawMessage, bool, error)
}

type Server struct {
	clips   ClipFinder
	history HistorySource
	log     logrus.FieldLogger
}

func New(clips ClipFinder, history HistorySource, log logrus.FieldLogger) *Server {
	return &Server{clips: clips, history: history, log: log}
}

// Handler returns the routed, logged and CORS-enabled API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.root)
	mux.HandleFunc("/api/episodes", s.episodes)
	mux.HandleFunc("/api/episodes/{id}", s.episode)
	mux.HandleFunc("/api/clips", s.findClips)
	mux.HandleFunc("/api/historical-performance", s.historical)
	return s.withRequestLog(withCORS(mux))
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		notFound(w, r)
		return
	}
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Shorts Opportunity Finder API",
		"status":  "running",
	})
}

func (s *Server) episodes(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.clips.Episodes(r.Context()))
}

func (s *Server) episode(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	id := r.PathValue("id")
	ep, err := s.clips.Episode(r.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:   "Not found",
			Message: fmt.Sprintf("Episode %s not found", id),
		})
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ep)
}

func (s *Server) findClips(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Bad request", Message: err.Error()})
		return
	}
	resp, err := s.clips.FindClips(r.Context(), q)
	if errors.Is(err, usecase.ErrInvalidQuery) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Bad request", Message: err.Error()})
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) historical(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	var recs []json.RawMessage
	if s.history != nil {
		got, ok, err := s.history.HistoricalPerformance(r.Context())
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		if !ok {
			s.log.Warn("historical performance data not found (optional)")
		}
		recs = got
	}
	if recs == nil {
		recs = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs, "total": len(recs)})
}

func parseQuery(r *http.Request) (usecase.Query, error) {
	q := usecase.DefaultQuery()
	v := r.URL.Query()
	if s := strings.TrimSpace(v.Get("episode_id")); s != "" {
		q.EpisodeID = s
	}
	q.Speaker = v.Get("speaker")

	var err error
	if q.MinDuration, err = floatParam(v.Get("min_duration"), q.MinDuration, "min_duration"); err != nil {
		return q, err
	}
	if q.MaxDuration, err = floatParam(v.Get("max_duration"), q.MaxDuration, "max_duration"); err != nil {
		return q, err
	}
	var f float64
	if f, err = floatParam(v.Get("min_score"), float64(q.MinScore), "min_score"); err != nil {
		return q, err
	}
	q.MinScore = int(f)
	if f, err = floatParam(v.Get("limit"), float64(q.Limit), "limit"); err != nil {
		return q, err
	}
	q.Limit = int(f)
	return q, nil
}

func floatParam(raw string, def float64, name string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be a finite number, got %q", name, raw)
	}
	return f, nil
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	notFound(w, r)
	return false
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{
		Error:   "Not found",
		Message: fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path),
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error", Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET,HEAD,OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		log := s.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		defer func() {
			if p := recover(); p != nil {
				log.WithField("panic", p).Error("handler panic")
				writeJSON(rec, http.StatusInternalServerError, errorBody{
					Error:   "Internal server error",
					Message: fmt.Sprint(p),
				})
			}
			log.WithFields(logrus.Fields{
				"status":   rec.status,
				"duration": time.Since(start).String(),
			}).Info("request")
		}()
		next.ServeHTTP(rec, r)
	})
}
