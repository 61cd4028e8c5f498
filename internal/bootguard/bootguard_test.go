package bootguard

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAcquireOnce(t *testing.T) {
	p := filepath.Join(t.TempDir(), "core.once")
	g := New(p, nil)
	g.now = func() time.Time { return time.Unix(1700000000, 0) }

	if g.Acquired() {
		t.Fatalf("marker should not exist yet")
	}
	if !g.Acquire() {
		t.Fatalf("first Acquire must succeed")
	}
	if g.Acquire() {
		t.Fatalf("second Acquire must fail")
	}
	if !g.Acquired() {
		t.Fatalf("marker should exist")
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("pid=%d time=1700000000\n", os.Getpid())
	if string(b) != want {
		t.Fatalf("marker content = %q, want %q", b, want)
	}
}

func TestAcquireConcurrentSingleWinner(t *testing.T) {
	p := filepath.Join(t.TempDir(), "core.once")
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if New(p, nil).Acquire() {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestAcquireUnwritableLocation(t *testing.T) {
	p := filepath.Join(t.TempDir(), "missing", "dir", "core.once")
	if New(p, nil).Acquire() {
		t.Fatalf("Acquire must fail when the marker cannot be created")
	}
}

func TestDefaultPath(t *testing.T) {
	g := New("", nil)
	if g.Path != DefaultPath {
		t.Fatalf("unexpected default %q", g.Path)
	}
}
