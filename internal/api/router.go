package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/wonny/alphaselector/internal/api/handlers"
	"github.com/wonny/alphaselector/pkg/logger"
)

// Handlers groups the route handlers; nil handlers are not mounted
type Handlers struct {
	Selection *handlers.SelectionHandler
	Factors   *handlers.FactorHandler
	Stream    *handlers.ReportStream
	Jobs      *handlers.JobsHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 路由配置只在这个函数
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	if h.Selection != nil {
		api.HandleFunc("/strategies", h.Selection.ListStrategies).Methods("GET")
		api.HandleFunc("/reports/latest", h.Selection.LatestReport).Methods("GET")
		api.HandleFunc("/reports", h.Selection.RunSelection).Methods("POST")
	}
	if h.Factors != nil {
		api.HandleFunc("/factors/{code}", h.Factors.GetFactors).Methods("GET")
	}
	if h.Jobs != nil {
		api.HandleFunc("/jobs", h.Jobs.ListJobs).Methods("GET")
		api.HandleFunc("/jobs/{name}/run", h.Jobs.TriggerJob).Methods("POST")
	}
	if h.Stream != nil {
		r.Handle("/ws/reports", h.Stream).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "alphaselector-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
