// Package telemetry exposes the game's effect pools and population to
// Prometheus. Values are read from the latest world snapshot at scrape time,
// so the game loop never touches a metric.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomz197/shatter/internal/loop/server"
)

const namespace = "shatter"

// SnapshotSource provides the world snapshot to report on.
type SnapshotSource interface {
	GetSnapshot() *server.WorldSnapshot
}

// Collector implements prometheus.Collector over world snapshots.
type Collector struct {
	src SnapshotSource

	poolAllocated *prometheus.Desc
	poolFree      *prometheus.Desc
	poolReuses    *prometheus.Desc
	effectActive  *prometheus.Desc
	players       *prometheus.Desc
	objects       *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector reading from src.
func NewCollector(src SnapshotSource) *Collector {
	kind := []string{"kind"}
	return &Collector{
		src: src,
		poolAllocated: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "effect_pool", "allocated"),
			"Bursts ever constructed by the effect pool.",
			kind, nil,
		),
		poolFree: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "effect_pool", "free"),
			"Bursts waiting for reuse in the effect pool.",
			kind, nil,
		),
		poolReuses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "effect_pool", "reuses_total"),
			"Allocations served from the effect pool's free list.",
			kind, nil,
		),
		effectActive: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "effect", "active"),
			"Bursts currently on screen.",
			kind, nil,
		),
		players: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "players"),
			"Connected clients.",
			nil, nil,
		),
		objects: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "objects"),
			"Objects in the world.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.poolAllocated
	ch <- c.poolFree
	ch <- c.poolReuses
	ch <- c.effectActive
	ch <- c.players
	ch <- c.objects
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.src.GetSnapshot()
	if snap == nil {
		return
	}
	for _, e := range snap.Effects {
		ch <- prometheus.MustNewConstMetric(c.poolAllocated, prometheus.GaugeValue, float64(e.Allocated), e.Kind)
		ch <- prometheus.MustNewConstMetric(c.poolFree, prometheus.GaugeValue, float64(e.Free), e.Kind)
		ch <- prometheus.MustNewConstMetric(c.poolReuses, prometheus.CounterValue, float64(e.Reuses), e.Kind)
		ch <- prometheus.MustNewConstMetric(c.effectActive, prometheus.GaugeValue, float64(e.Active), e.Kind)
	}
	ch <- prometheus.MustNewConstMetric(c.players, prometheus.GaugeValue, float64(snap.Players))
	ch <- prometheus.MustNewConstMetric(c.objects, prometheus.GaugeValue, float64(len(snap.Objects)))
}

// NewRegistry returns a registry with the game collector and the Go runtime
// collectors.
func NewRegistry(src SnapshotSource) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(src),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Serve runs an HTTP server for h on addr until ctx is cancelled, then shuts
// it down gracefully.
func Serve(ctx context.Context, logger *log.Logger, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down metrics server: %w", err)
	}
	return nil
}
