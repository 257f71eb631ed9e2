package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"service-orchestrator/internal/common/logging"
	"service-orchestrator/internal/orchestrator"
	"service-orchestrator/internal/services"
)

// NewRouter wires the HTTP surface: pipeline execution and health.
func NewRouter(orch *orchestrator.Orchestrator, registry services.Registry, logger logging.Logger) *mux.Router {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	router := mux.NewRouter()
	router.Use(requestLogging(logger))

	pipeline := NewPipelineHandler(orch, logger)
	router.HandleFunc("/pipelines/execute", pipeline.Execute).Methods(http.MethodPost)

	health := NewHealthHandler(registry)
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)

	return router
}

// requestLogging logs one line per request.
func requestLogging(logger logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("request handled",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Duration("duration", time.Since(start)),
			)
		})
	}
}
