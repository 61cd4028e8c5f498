package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/loykin/unitctl/internal/history"
)

func sendLifecycle(t *testing.T, sink *Sink, unit string) {
	t.Helper()
	ctx := context.Background()
	start := history.Event{
		Type:       history.EventStart,
		OccurredAt: time.Now().UTC(),
		RunID:      "run-1",
		Record:     history.Record{Unit: unit, PID: 12345},
	}
	if err := sink.Send(ctx, start); err != nil {
		t.Fatalf("Failed to send start event: %v", err)
	}
	stop := history.Event{
		Type:       history.EventStop,
		OccurredAt: time.Now().UTC(),
		RunID:      "run-2",
		Record:     history.Record{Unit: unit, PID: 12345, Result: "graceful"},
	}
	if err := sink.Send(ctx, stop); err != nil {
		t.Fatalf("Failed to send stop event: %v", err)
	}
}

func TestSQLiteSink_File(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	sink, err := New("sqlite://"+dbPath, "")
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	sendLifecycle(t, sink, "web")
	if err := sink.Close(); err != nil {
		t.Fatalf("Failed to close sink: %v", err)
	}

	// reopening keeps the rows and the schema
	sink, err = New(dbPath, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = sink.Close() }()
	n, err := sink.Count(context.Background(), "web")
	if err != nil || n != 2 {
		t.Fatalf("Count = %d, %v; want 2", n, err)
	}
}

func TestSQLiteSink_InMemory(t *testing.T) {
	sink, err := New(":memory:", "events")
	if err != nil {
		t.Fatalf("Failed to create in-memory sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()
	sendLifecycle(t, sink, "a")
	sendLifecycle(t, sink, "b")
	n, _ := sink.Count(context.Background(), "")
	if n != 4 {
		t.Fatalf("expected 4 rows, got %d", n)
	}
	var result string
	if err := sink.db.QueryRow(`SELECT result FROM events WHERE unit = 'a' AND event = 'stop'`).Scan(&result); err != nil {
		t.Fatalf("query: %v", err)
	}
	if result != "graceful" {
		t.Fatalf("result = %q", result)
	}
}

func TestSQLiteSink_Errors(t *testing.T) {
	if _, err := New("", ""); err == nil {
		t.Error("expected error for empty DSN")
	}
	if _, err := New(":memory:", "bad table"); err == nil {
		t.Error("expected error for invalid table")
	}
}

func TestSQLiteSink_ContextCancellation(t *testing.T) {
	sink, err := New(":memory:", "")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sink.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sink.Send(ctx, history.Event{Type: history.EventStart, OccurredAt: time.Now(), Record: history.Record{Unit: "x"}})
	if err == nil {
		t.Error("expected error with cancelled context")
	}
}
