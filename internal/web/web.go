package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"meetslot/internal/api"
	"meetslot/internal/apperr"
	"meetslot/internal/availability"
	"meetslot/internal/config"
	"meetslot/internal/feed"
	appLog "meetslot/internal/log"
	"meetslot/internal/model"
)

const (
	maxBodyBytes    = 4 << 20
	shutdownTimeout = 10 * time.Second
	requestIDHeader = "X-Request-ID"
)

// DayLoader supplies the events of one day from the configured feeds.
type DayLoader interface {
	ParseDate(s string) (time.Time, error)
	Events(ctx context.Context, day time.Time) (feed.DayEvents, error)
}

// Server provides the HTTP API around the availability resolver.
type Server struct {
	cfg    *config.Config
	loader DayLoader
	mux    *http.ServeMux
}

// NewServer constructs a new Server. loader may be nil, in which case
// /api/availability answers 503.
func NewServer(cfg *config.Config, loader DayLoader) *Server {
	s := &Server{
		cfg:    cfg,
		loader: loader,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		h = s.basicAuthMiddleware(h)
	}
	return requestIDMiddleware(h)
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "basic_auth", s.basicAuthEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/query", s.handleQuery)
	s.mux.HandleFunc("GET /api/availability", s.handleAvailability)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials count as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="meetslot", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware tags every request with an ID (kept from the client
// if present) and logs its outcome.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		appLog.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
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

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleQuery answers an availability query for caller-supplied events.
//
// POST /api/query
//
//	{"events":[{"title":"x","start":600,"end":900,"attendees":["a"]}],
//	 "request":{"duration":30,"attendees":["a"],"optional_attendees":["b"]}}
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var q api.QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error())
		return
	}

	events, req, err := q.Decode(s.cfg.MaxEvents)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res := availability.Resolve(events, req)
	appLog.Debug("api query resolved",
		"request_id", w.Header().Get(requestIDHeader),
		"event_count", len(events),
		"duration", req.Duration,
		"tier", res.Tier,
		"slot_count", len(res.Slots),
	)
	writeJSON(w, http.StatusOK, api.NewQueryResponse(res))
}

// handleAvailability answers an availability query against the configured
// ICS feeds.
//
// GET /api/availability?date=2025-03-12&duration=30&attendee=a&optional=b
//   - date:     local day in the configured timezone (default today)
//   - duration: meeting length in minutes (required)
//   - attendee: mandatory attendee, repeatable
//   - optional: optional attendee, repeatable
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		writeError(w, http.StatusServiceUnavailable, "no calendar feeds configured")
		return
	}

	q := r.URL.Query()
	duration, err := strconv.Atoi(q.Get("duration"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "duration must be an integer number of minutes")
		return
	}
	day, err := s.loader.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	req, err := model.NewMeetingRequest(duration, q["attendee"], q["optional"])
	if err != nil {
		writeDomainError(w, err)
		return
	}

	de, err := s.loader.Events(r.Context(), day)
	if err != nil {
		appLog.Error("api availability: loading feeds failed", err, "request_id", w.Header().Get(requestIDHeader))
		writeError(w, http.StatusBadGateway, "failed to load calendar feeds")
		return
	}

	resp := api.NewQueryResponse(availability.Resolve(de.Events, req))
	resp.Date = de.Date
	resp.DisplayTimeZone = de.DisplayTimeZone
	resp.EventCount = len(de.Events)
	resp.FailedSources = de.FailedSources
	resp.TruncatedUIDs = de.TruncatedUIDs
	writeJSON(w, http.StatusOK, resp)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrTooManyEvents):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, apperr.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
