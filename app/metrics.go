package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Shopify/toxics/collectors"
)

func (a *App) setMetrics() error {
	metrics := collectors.NewMetricsContainer(nil)
	metrics.ScenarioMetrics = collectors.NewScenarioMetricCollectors()
	if a.Config.MetricsAddr != "" {
		metrics.RuntimeMetrics = collectors.NewRuntimeMetricCollectors()
	}
	a.Metrics = metrics
	return nil
}

// ServeMetrics exposes /metrics on addr until ctx is done and returns the
// address actually bound. Call it at most once.
func (a *App) ServeMetrics(ctx context.Context, addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.Handle("/metrics", a.Metrics.Handler()).Methods("GET")

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Err(err).Str("addr", ln.Addr().String()).Msg("Metrics server stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.Logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")
	return ln.Addr(), nil
}
