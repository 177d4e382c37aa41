package pilot

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler serves the run history as JSON:
//
//	GET /health
//	GET /api/runs?limit=N
//	GET /api/runs/{id}
//	GET /api/matches
//	GET /api/selectors
func (p *Pilot) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(p.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", func(w http.ResponseWriter, r *http.Request) {
			runs, err := p.Runs(r.Context(), queryInt(r, "limit", 50))
			if err != nil {
				writeError(w, statusOf(err), err)
				return
			}
			if runs == nil {
				runs = []*Run{}
			}
			writeJSON(w, 200, runs)
		})

		r.Get("/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
			run, err := p.Run(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				writeError(w, statusOf(err), err)
				return
			}
			writeJSON(w, 200, run)
		})

		r.Get("/matches", func(w http.ResponseWriter, r *http.Request) {
			stats, err := p.Matches(r.Context())
			if err != nil {
				writeError(w, statusOf(err), err)
				return
			}
			if stats == nil {
				stats = []MatchStat{}
			}
			writeJSON(w, 200, stats)
		})

		r.Get("/selectors", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, p.cfg.Selectors)
		})
	})
	return r
}

// logRequests logs each request with chi's request id and sets the headers
// every JSON response carries.
func (p *Pilot) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		p.logger.Debug("pilot: request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoStore):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
