package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/loykin/unitctl/internal/history"
)

// setupClickHouseContainer starts a ClickHouse container for testing
func setupClickHouseContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	clickHouseContainer, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:24.3.2.23",
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword(""),
		clickhouse.WithDatabase("default"),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/ping").
				WithPort("8123/tcp").
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start ClickHouse container: %v", err)
	}

	host, err := clickHouseContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := clickHouseContainer.MappedPort(ctx, "9000")
	if err != nil {
		t.Fatalf("Failed to get mapped port: %v", err)
	}
	return clickHouseContainer, host + ":" + port.Port()
}

func TestClickHouseSink_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	clickHouseContainer, addr := setupClickHouseContainer(ctx, t)
	defer func() {
		if err := clickHouseContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate ClickHouse container: %v", err)
		}
	}()

	// the sink creates its own table
	sink, err := New("clickhouse://default:@"+addr+"/default", "unit_history")
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	start := history.Event{
		Type:       history.EventStart,
		OccurredAt: time.Now().UTC(),
		RunID:      "run-a",
		Record:     history.Record{Unit: "web", PID: 12345},
	}
	if err := sink.Send(ctx, start); err != nil {
		t.Fatalf("Failed to send start event: %v", err)
	}
	stop := history.Event{
		Type:       history.EventStop,
		OccurredAt: time.Now().UTC(),
		RunID:      "run-b",
		Record:     history.Record{Unit: "web", PID: 12345, Result: "graceful"},
	}
	if err := sink.Send(ctx, stop); err != nil {
		t.Fatalf("Failed to send stop event: %v", err)
	}

	rows := sink.conn.QueryRow(ctx, "SELECT COUNT(*) FROM unit_history WHERE unit = ?", "web")
	var count uint64
	if err := rows.Scan(&count); err != nil {
		t.Fatalf("Failed to query count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 events, got %d", count)
	}
}

func TestClickHouseSink_ConnectionError(t *testing.T) {
	_, err := New("invalid-host:9000", "test_table")
	if err == nil {
		t.Error("Expected error with invalid connection, got nil")
	}
}

func TestClickHouseSink_InvalidTable(t *testing.T) {
	if _, err := New("localhost:9000", "x; DROP"); err == nil {
		t.Error("Expected error for invalid table name")
	}
}

func TestOptions(t *testing.T) {
	o, err := Options("db.local:9000")
	if err != nil || o.Addr[0] != "db.local:9000" || o.Auth.Database != "default" {
		t.Fatalf("bare address: %+v, %v", o, err)
	}
	o, err = Options("clickhouse://alice:secret@ch:9440/metrics")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if o.Addr[0] != "ch:9440" || o.Auth.Username != "alice" || o.Auth.Database != "metrics" {
		t.Fatalf("unexpected options: %+v", o)
	}
}
