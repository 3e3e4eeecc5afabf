package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/jobmarket-cli/internal/dataset"
	"github.com/sells-group/jobmarket-cli/internal/model"
)

// Source supplies the records behind each request.
type Source interface {
	Records(ctx context.Context) ([]model.JobRecord, error)
}

// FileSource reloads the dataset file on every call, so the API always
// reflects the latest checkpoint.
type FileSource struct {
	Path string
}

// Records loads the dataset at s.Path.
func (s FileSource) Records(_ context.Context) ([]model.JobRecord, error) {
	ds, err := dataset.Load(s.Path)
	if err != nil {
		return nil, err
	}
	return ds.Records, nil
}

// HandlerOptions configures the HTTP API.
type HandlerOptions struct {
	AllowedOrigins []string
}

type summaryResponse struct {
	Filter  Filter  `json:"filter"`
	Summary Summary `json:"summary"`
}

type jobsResponse struct {
	Filter Filter            `json:"filter"`
	Total  int               `json:"total"`
	Jobs   []model.JobRecord `json:"jobs"`
}

// Handler returns the dashboard API:
//
//	GET /health
//	GET /api/options?role=&seniority=
//	GET /api/summary?role=&seniority=&arrangement=
//	GET /api/jobs?role=&seniority=&arrangement=&limit=
func Handler(src Source, opts HandlerOptions) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/options", func(w http.ResponseWriter, req *http.Request) {
			f, ok := filter(w, req)
			if !ok {
				return
			}
			records, ok := load(w, req, src)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, Options(records, f))
		})

		r.Get("/summary", func(w http.ResponseWriter, req *http.Request) {
			f, ok := filter(w, req)
			if !ok {
				return
			}
			records, ok := load(w, req, src)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, summaryResponse{
				Filter:  f,
				Summary: Summarize(Apply(records, f)),
			})
		})

		r.Get("/jobs", func(w http.ResponseWriter, req *http.Request) {
			limit := 0
			if v := req.URL.Query().Get("limit"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil || n < 0 {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
					return
				}
				limit = n
			}
			f, ok := filter(w, req)
			if !ok {
				return
			}

			records, ok := load(w, req, src)
			if !ok {
				return
			}
			jobs := Apply(records, f)
			resp := jobsResponse{Filter: f, Total: len(jobs), Jobs: jobs}
			if limit > 0 && len(jobs) > limit {
				resp.Jobs = jobs[:limit]
			}
			writeJSON(w, http.StatusOK, resp)
		})
	})

	return r
}

func filter(w http.ResponseWriter, req *http.Request) (Filter, bool) {
	f, err := ParseFilter(req.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return Filter{}, false
	}
	return f, true
}

func load(w http.ResponseWriter, req *http.Request, src Source) ([]model.JobRecord, bool) {
	records, err := src.Records(req.Context())
	if err != nil {
		zap.L().Error("dashboard: load records", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "dataset unavailable"})
		return nil, false
	}
	return records, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("dashboard: encode response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("dashboard: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
