package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"btc-metrics/internal/config"
	"btc-metrics/internal/domain"
	"btc-metrics/internal/endpoints"
	"btc-metrics/internal/util"
)

const corsMaxAge = 3600

func NewRouter(metricReader domain.MetricReader, rateCfg config.RateLimitConfig, webSlogger *util.Logger) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = endpoints.NotFoundHandler()
	r.MethodNotAllowedHandler = endpoints.MethodNotAllowedHandler()

	addRoutes(r, metricReader, webSlogger)

	r.Use(loggingMiddleware(webSlogger))
	if rateCfg.RPS > 0 {
		r.Use(NewRateLimiter(rateCfg, webSlogger).Middleware)
	}

	return newCORS().Handler(r)
}

func addRoutes(r *mux.Router, metricReader domain.MetricReader, webSlogger *util.Logger) {
	metricsHandler := &endpoints.Metrics{}
	metricsHandler.Init(metricReader, webSlogger)

	handlers := metricsHandler.Handlers()
	for _, name := range domain.AllMetrics() {
		r.HandleFunc("/metrics/"+string(name), handlers[name]).Methods(http.MethodGet)
	}
}

// newCORS allows any origin, method and header, with preflight cached for an hour.
func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		MaxAge:         corsMaxAge,
	})
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func Run(ctx context.Context, server *http.Server, webSlogger *util.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		webSlogger.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	webSlogger.Info("shutting down server")
	if err := gracefulShutdown(server, 25*time.Second); err != nil {
		webSlogger.Error("server stopped with error", zap.Error(err))
		return err
	}
	webSlogger.Info("server stopped gracefully")
	return nil
}

func gracefulShutdown(server *http.Server, maximumTime time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), maximumTime)
	defer cancel()

	return server.Shutdown(ctx)
}

func loggingMiddleware(logger *util.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("uri", r.RequestURI),
				zap.String("remote", r.RemoteAddr),
				zap.Duration("took", time.Since(start)))
		})
	}
}
