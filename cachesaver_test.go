package assets

import (
	"context"
	"sync"
	"testing"
	"time"
)

type countingSave struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (c *countingSave) save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	return c.fail
}

func (c *countingSave) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls
}

func TestCacheSaver_BackgroundSave(t *testing.T) {
	target := &countingSave{}
	saver := NewCacheSaver(target.save, 10*time.Millisecond, nil)
	defer saver.Close(t.Context())

	saver.MarkDirty()

	deadline := time.Now().Add(2 * time.Second)
	for target.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if target.count() == 0 {
		t.Fatal("background save never ran")
	}
}

func TestCacheSaver_DebounceCoalesces(t *testing.T) {
	target := &countingSave{}
	saver := NewCacheSaver(target.save, 50*time.Millisecond, nil)
	defer saver.Close(t.Context())

	for i := 0; i < 20; i++ {
		saver.MarkDirty()
		time.Sleep(time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for target.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	// The burst fits inside one debounce window, so one or two saves
	// cover all twenty marks.
	if got := target.count(); got == 0 || got > 2 {
		t.Errorf("saved %d times for one burst", got)
	}
}

func TestCacheSaver_FlushWhenClean(t *testing.T) {
	target := &countingSave{}
	saver := NewCacheSaver(target.save, time.Hour, nil)
	defer saver.Close(t.Context())

	if err := saver.Flush(t.Context()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if target.count() != 0 {
		t.Error("clean flush still saved")
	}

	saver.MarkDirty()
	if err := saver.Flush(t.Context()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if target.count() == 0 {
		t.Error("dirty flush did not save")
	}
}

func TestCacheSaver_CloseFlushesPending(t *testing.T) {
	target := &countingSave{}
	// A debounce of an hour guarantees the background goroutine never
	// gets there; the final save must come from Close.
	saver := NewCacheSaver(target.save, time.Hour, nil)

	saver.MarkDirty()
	if err := saver.Close(t.Context()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if target.count() != 1 {
		t.Errorf("Close saved %d times, want 1", target.count())
	}

	// Second close is a no-op.
	if err := saver.Close(t.Context()); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if target.count() != 1 {
		t.Error("second Close saved again")
	}
}
