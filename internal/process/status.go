package process

import "time"

// StopResult tells how a stopped process went away. The persisted outcome
// is the same in every case: the pidfile is removed.
type StopResult string

const (
	StopGraceful    StopResult = "graceful"     // exited after SIGTERM
	StopKilled      StopResult = "killed"       // still alive after the wait, SIGKILL sent
	StopAlreadyGone StopResult = "already_gone" // SIGTERM could not be delivered
)

// Record is the read-only view of a unit's pidfile.
type Record struct {
	Name      string    `json:"name" yaml:"name"`
	PIDFile   string    `json:"pid_file" yaml:"pid_file"`
	PID       int       `json:"pid" yaml:"pid"`
	Alive     bool      `json:"alive" yaml:"alive"`
	Command   string    `json:"command,omitempty" yaml:"command,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
}

// State summarises a record: stopped (no pidfile), running, or stale
// (pidfile present, process gone).
func (r Record) State() string {
	switch {
	case r.PID == 0:
		return "stopped"
	case r.Alive:
		return "running"
	default:
		return "stale"
	}
}
