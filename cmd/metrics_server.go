package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/service-sim/sim/telemetry"
)

// metricsServer exposes a run's Prometheus metrics over HTTP.
type metricsServer struct {
	Observer *telemetry.PrometheusObserver
	Addr     string // actual listen address, useful when started on ":0"

	srv *http.Server
}

// newMetricsRouter serves /metrics from reg and a trivial /healthz.
func newMetricsRouter(reg *prometheus.Registry) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

// startMetricsServer registers a PrometheusObserver on a fresh registry and
// serves it on addr in the background.
func startMetricsServer(addr string) (*metricsServer, error) {
	reg := prometheus.NewRegistry()
	obs, err := telemetry.NewPrometheusObserver(reg)
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	ms := &metricsServer{
		Observer: obs,
		Addr:     ln.Addr().String(),
		srv:      &http.Server{Handler: newMetricsRouter(reg)},
	}
	go func() {
		if err := ms.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("Metrics server on %s stopped: %v", ms.Addr, err)
		}
	}()
	logrus.Infof("Serving Prometheus metrics on http://%s/metrics", ms.Addr)
	return ms, nil
}

// Shutdown stops the HTTP server.
func (ms *metricsServer) Shutdown(ctx context.Context) error {
	return ms.srv.Shutdown(ctx)
}
