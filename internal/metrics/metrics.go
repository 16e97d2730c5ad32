// Package metrics exports compositor counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tessel"

// Recorder holds the compositor's collectors on its own registry. It
// satisfies shell.Recorder.
type Recorder struct {
	registry *prometheus.Registry

	frames      prometheus.Counter
	bars        prometheus.Counter
	keys        *prometheus.CounterVec
	recoverable *prometheus.CounterVec
	windows     prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames submitted to the renderer.",
		}),
		bars: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bar_rasterizations_total",
			Help:      "Times the bar canvas was redrawn.",
		}),
		keys: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_total",
			Help:      "Key presses seen by the dispatcher, by result.",
		}, []string{"result"}),
		recoverable: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recoverable_errors_total",
			Help:      "Errors handled without stopping the compositor, by kind.",
		}, []string{"kind"}),
		windows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "windows",
			Help:      "Windows currently managed.",
		}),
	}
}

func (r *Recorder) FrameSubmitted() { r.frames.Inc() }

func (r *Recorder) BarRasterized() { r.bars.Inc() }

func (r *Recorder) KeyDispatched(result string) { r.keys.WithLabelValues(result).Inc() }

func (r *Recorder) RecoverableError(kind string) { r.recoverable.WithLabelValues(kind).Inc() }

func (r *Recorder) Windows(n int) { r.windows.Set(float64(n)) }

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the text exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
