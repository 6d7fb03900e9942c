package assets

import (
	"context"
	"sync"
	"time"

	"github.com/nexelgames/assets/log"
)

// CacheSaver runs a background goroutine that flushes project caches
// whenever something marks them dirty. MarkDirty is cheap and safe
// from any goroutine; the save itself always happens on the saver's
// own goroutine, debounced so bursts of edits coalesce into one write.
type CacheSaver struct {
	save     func(ctx context.Context) error
	logger   *log.Logger
	debounce time.Duration

	mu        sync.Mutex
	dirty     bool
	closeOnce sync.Once

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewCacheSaver(save func(ctx context.Context) error, debounce time.Duration, logger *log.Logger) *CacheSaver {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	if logger == nil {
		logger = log.Default().Named("cachesaver")
	}

	saver := &CacheSaver{
		save:     save,
		logger:   logger,
		debounce: debounce,
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go saver.run()
	return saver
}

// MarkDirty requests a flush. Callable from any goroutine.
func (s *CacheSaver) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Flush saves synchronously if anything is pending.
func (s *CacheSaver) Flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.dirty
	s.dirty = false
	s.mu.Unlock()

	if !pending {
		return nil
	}
	return s.save(ctx)
}

// Close stops the background goroutine and performs one final
// synchronous save if changes are still pending. Safe to call twice.
func (s *CacheSaver) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	<-s.done

	return s.Flush(ctx)
}

func (s *CacheSaver) run() {
	defer close(s.done)

	for {
		select {
		case <-s.kick:
		case <-s.stop:
			return
		}

		// Let a burst of edits settle before writing. Close skips the
		// wait; its final Flush covers whatever is pending.
		select {
		case <-time.After(s.debounce):
		case <-s.stop:
			return
		}

		if err := s.Flush(context.Background()); err != nil {
			s.logger.Warn("background cache save failed: %v", err)
			s.MarkDirty()
		}
	}
}
