package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	unitStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unitctl",
			Subsystem: "unit",
			Name:      "starts_total",
			Help:      "Number of successful unit starts.",
		}, []string{"name"},
	)
	unitStartFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unitctl",
			Subsystem: "unit",
			Name:      "start_failures_total",
			Help:      "Number of unit starts that failed to spawn.",
		}, []string{"name"},
	)
	unitStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unitctl",
			Subsystem: "unit",
			Name:      "stops_total",
			Help:      "Number of stops by outcome (graceful, killed, already_gone).",
		}, []string{"name", "result"},
	)
	unitStopDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "unitctl",
			Subsystem: "unit",
			Name:      "stop_duration_seconds",
			Help:      "Time from SIGTERM until the process was gone or killed.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"name"},
	)
	unitsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "unitctl",
			Name:      "units_loaded",
			Help:      "Number of unit definitions loaded by the last command.",
		},
	)
	dependencyCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "unitctl",
			Name:      "dependency_cycles_total",
			Help:      "Number of commands that found a dependency cycle.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{unitStarts, unitStartFailures, unitStops, unitStopDuration, unitsLoaded, dependencyCycles}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// WriteTextfile writes everything g gathers to path in the node-exporter
// textfile format. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("metrics dir: %w", err)
	}
	return prometheus.WriteToTextfile(path, g)
}

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncStart(name string) {
	if regOK.Load() {
		unitStarts.WithLabelValues(name).Inc()
	}
}

func IncStartFailure(name string) {
	if regOK.Load() {
		unitStartFailures.WithLabelValues(name).Inc()
	}
}

func IncStop(name, result string) {
	if regOK.Load() {
		unitStops.WithLabelValues(name, result).Inc()
	}
}

func ObserveStopDuration(name string, seconds float64) {
	if regOK.Load() {
		unitStopDuration.WithLabelValues(name).Observe(seconds)
	}
}

func SetUnitsLoaded(n int) {
	if regOK.Load() {
		unitsLoaded.Set(float64(n))
	}
}

func IncDependencyCycle() {
	if regOK.Load() {
		dependencyCycles.Inc()
	}
}
