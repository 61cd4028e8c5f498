package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventStart       EventType = "start"
	EventStartFailed EventType = "start_failed"
	EventStop        EventType = "stop"
)

// DefaultTable is used when a DSN does not name one.
const DefaultTable = "unit_history"

// Record is the unit-side payload of an event.
type Record struct {
	Unit   string `json:"unit"`
	PID    int    `json:"pid"`
	Result string `json:"result,omitempty"` // stop outcome: graceful, killed, already_gone
	Error  string `json:"error,omitempty"`
}

// Event represents a lifecycle event to be exported to external systems.
// RunID groups the events of one unitctl invocation.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	RunID      string    `json:"run_id"`
	Record     Record    `json:"record"`
}

// Sink is a destination for history events (analytics/statistics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// Recorder stamps events with one run id and forwards them to a sink.
// A nil sink makes it a no-op.
type Recorder struct {
	sink  Sink
	runID string
	now   func() time.Time
}

func NewRecorder(s Sink) *Recorder {
	return &Recorder{sink: s, runID: uuid.NewString(), now: time.Now}
}

// RunID is the id attached to every event of this recorder.
func (r *Recorder) RunID() string { return r.runID }

func (r *Recorder) Record(ctx context.Context, t EventType, rec Record) error {
	if r == nil || r.sink == nil {
		return nil
	}
	return r.sink.Send(ctx, Event{Type: t, OccurredAt: r.now().UTC(), RunID: r.runID, Record: rec})
}

// Close releases the sink when it holds a connection.
func (r *Recorder) Close() error {
	if r == nil || r.sink == nil {
		return nil
	}
	if c, ok := r.sink.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

var ErrInvalidTable = errors.New("invalid history table name")

// ValidTable reports whether name is safe to interpolate as an SQL identifier.
func ValidTable(name string) error {
	if name == "" || len(name) > 63 {
		return ErrInvalidTable
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return ErrInvalidTable
		}
	}
	return nil
}
