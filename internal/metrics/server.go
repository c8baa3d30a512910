package metrics

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iyhunko/marketplace-items/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHandler returns the mux serving the /metrics endpoint.
func NewHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// StartMetricsServer starts the metrics HTTP server on the configured port.
// It runs in a goroutine; the returned server can be used to shut it down.
func StartMetricsServer(conf *config.Config) *http.Server {
	metricsServer := &http.Server{
		Addr:              ":" + conf.MetricsServer.Port,
		Handler:           NewHandler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		slog.Info("metrics server starting", slog.String("port", conf.MetricsServer.Port))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("error while listening to metrics requests", slog.Any("err", err))
		}
	}()
	return metricsServer
}
