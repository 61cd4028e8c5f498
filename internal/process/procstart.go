package process

import (
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// describeProcess returns the executable name and start time of pid when
// the platform exposes them. Zero values mean unavailable.
func describeProcess(pid int) (string, time.Time) {
	if pid <= 0 {
		return "", time.Time{}
	}
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return "", time.Time{}
	}
	name, _ := p.Name()
	var started time.Time
	if ms, err := p.CreateTime(); err == nil && ms > 0 {
		started = time.UnixMilli(ms)
	}
	return name, started
}
