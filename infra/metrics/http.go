package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridwatt/evrouter/infra/logger"
)

// StartPromServer serves the Prometheus scrape endpoint on its own
// address, separate from the router and substation APIs, and blocks
// until the context is cancelled. A dedicated ServeMux keeps /metrics
// off the service muxes.
func StartPromServer(ctx context.Context, addr string) error {
	log := logger.New("prom-server")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("metrics server shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
