package metrics

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
)

// UnitResources holds CPU and memory usage of a unit's process.
type UnitResources struct {
	PID        int32   `json:"pid" yaml:"pid"`
	CPUPercent float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryMB   float64 `json:"memory_mb" yaml:"memory_mb"`
	NumThreads int32   `json:"num_threads" yaml:"num_threads"`
	NumFDs     int32   `json:"num_fds,omitempty" yaml:"num_fds,omitempty"` // Unix only
}

// ResourceSampler reads resource usage of running units once per call and
// mirrors it into gauges labelled by unit name.
type ResourceSampler struct {
	cpuPercent *prometheus.GaugeVec
	memoryMB   *prometheus.GaugeVec
	numThreads *prometheus.GaugeVec
	numFDs     *prometheus.GaugeVec
}

func NewResourceSampler() *ResourceSampler {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "unitctl",
			Subsystem: "unit",
			Name:      name,
			Help:      help,
		}, []string{"name"})
	}
	return &ResourceSampler{
		cpuPercent: gauge("cpu_percent", "CPU usage percentage of a running unit."),
		memoryMB:   gauge("memory_mb", "Resident memory in MB of a running unit."),
		numThreads: gauge("num_threads", "Number of threads of a running unit."),
		numFDs:     gauge("num_fds", "Number of open file descriptors of a running unit (Unix only)."),
	}
}

// Register registers the sampler's gauges with r.
func (s *ResourceSampler) Register(r prometheus.Registerer) error {
	collectors := []prometheus.Collector{s.cpuPercent, s.memoryMB, s.numThreads}
	// Only register FD metrics on Unix systems
	if runtime.GOOS != "windows" {
		collectors = append(collectors, s.numFDs)
	}
	for _, c := range collectors {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Sample collects usage for every name with a positive pid. Processes that
// cannot be inspected are skipped.
func (s *ResourceSampler) Sample(pids map[string]int32) map[string]UnitResources {
	out := make(map[string]UnitResources, len(pids))
	for name, pid := range pids {
		if pid <= 0 {
			continue
		}
		r, err := sampleProcess(pid)
		if err != nil {
			slog.Debug("Failed to collect metrics for unit", "unit", name, "pid", pid, "error", err)
			continue
		}
		out[name] = r
		s.cpuPercent.WithLabelValues(name).Set(r.CPUPercent)
		s.memoryMB.WithLabelValues(name).Set(r.MemoryMB)
		s.numThreads.WithLabelValues(name).Set(float64(r.NumThreads))
		if runtime.GOOS != "windows" && r.NumFDs > 0 {
			s.numFDs.WithLabelValues(name).Set(float64(r.NumFDs))
		}
	}
	return out
}

func sampleProcess(pid int32) (UnitResources, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return UnitResources{}, fmt.Errorf("failed to create process handle: %w", err)
	}
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return UnitResources{}, fmt.Errorf("failed to get memory info: %w", err)
	}
	r := UnitResources{
		PID:      pid,
		MemoryMB: float64(memInfo.RSS) / 1024 / 1024, // Convert bytes to MB
	}
	// lifetime average; a single sample has no previous reading to diff against
	if cpu, err := proc.CPUPercent(); err == nil {
		r.CPUPercent = cpu
	}
	if n, err := proc.NumThreads(); err == nil {
		r.NumThreads = n
	}
	if runtime.GOOS != "windows" {
		if n, err := proc.NumFDs(); err == nil {
			r.NumFDs = n
		}
	}
	return r, nil
}
