package assets

import (
	"container/heap"
	"context"
	"sync"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/log"
)

// LoadPriority orders queued requests; lower values are served first.
type LoadPriority int

const (
	PriorityCritical LoadPriority = 0
	PriorityHigh     LoadPriority = 10
	PriorityNormal   LoadPriority = 50
	PriorityLow      LoadPriority = 100
)

// LoadResult is delivered on the channel returned by Enqueue.
type LoadResult struct {
	Handle *Handle
	Err    error
}

type loadRequest struct {
	id       data.GUID
	priority LoadPriority
	seq      uint64
	result   chan LoadResult
}

// requestQueue is a min-heap on (priority, seq): equal priorities
// resolve in submission order.
type requestQueue []*loadRequest

func (q requestQueue) Len() int { return len(q) }

func (q requestQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q requestQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *requestQueue) Push(x any) { *q = append(*q, x.(*loadRequest)) }

func (q *requestQueue) Pop() any {
	old := *q
	n := len(old)
	request := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return request
}

// AsyncLoader wraps a Loader with a worker pool draining a priority
// queue. Each Enqueue gets a buffered result channel, so workers never
// block on slow consumers.
type AsyncLoader struct {
	loader *Loader
	logger *log.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  requestQueue
	seq    uint64
	closed bool

	wg sync.WaitGroup
}

func NewAsyncLoader(loader *Loader, workers int, logger *log.Logger) *AsyncLoader {
	if workers <= 0 {
		workers = 2
	}
	if logger == nil {
		logger = log.Default().Named("asyncloader")
	}

	al := &AsyncLoader{
		loader: loader,
		logger: logger,
	}
	al.cond = sync.NewCond(&al.mu)

	al.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go al.worker()
	}

	return al
}

// Enqueue submits a load request and returns the channel its result
// will arrive on. After Close the channel resolves immediately with
// ErrClosed.
func (al *AsyncLoader) Enqueue(id data.GUID, priority LoadPriority) <-chan LoadResult {
	result := make(chan LoadResult, 1)

	al.mu.Lock()
	if al.closed {
		al.mu.Unlock()
		result <- LoadResult{Err: ErrClosed}
		return result
	}

	al.seq++
	heap.Push(&al.queue, &loadRequest{
		id:       id,
		priority: priority,
		seq:      al.seq,
		result:   result,
	})
	al.mu.Unlock()

	al.cond.Signal()
	return result
}

// Pending returns the number of queued, not-yet-started requests.
func (al *AsyncLoader) Pending() int {
	al.mu.Lock()
	defer al.mu.Unlock()

	return al.queue.Len()
}

// CancelPending drains the queue, resolving every queued request with
// ErrCancelled. In-flight loads are not interrupted.
func (al *AsyncLoader) CancelPending() int {
	al.mu.Lock()
	drained := make([]*loadRequest, len(al.queue))
	copy(drained, al.queue)
	al.queue = al.queue[:0]
	al.mu.Unlock()

	for _, request := range drained {
		request.result <- LoadResult{Err: ErrCancelled}
	}

	return len(drained)
}

// Close stops accepting requests, cancels whatever is still queued and
// waits for in-flight loads to finish. Safe to call more than once.
func (al *AsyncLoader) Close() {
	al.mu.Lock()
	if al.closed {
		al.mu.Unlock()
		return
	}
	al.closed = true
	al.mu.Unlock()

	al.CancelPending()
	al.cond.Broadcast()
	al.wg.Wait()
}

func (al *AsyncLoader) worker() {
	defer al.wg.Done()

	for {
		al.mu.Lock()
		for al.queue.Len() == 0 && !al.closed {
			al.cond.Wait()
		}
		if al.queue.Len() == 0 && al.closed {
			al.mu.Unlock()
			return
		}
		request := heap.Pop(&al.queue).(*loadRequest)
		al.mu.Unlock()

		handle, err := al.loader.Load(context.Background(), request.id)
		if err != nil {
			al.logger.Debug("async load of %s failed: %v", request.id, err)
		}
		request.result <- LoadResult{Handle: handle, Err: err}
	}
}
