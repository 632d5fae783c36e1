package plugin

import (
	"context"
	"log"
	"sync"
)

// DefaultQueueSize bounds transitions waiting for plugins.
const DefaultQueueSize = 32

// Dispatcher runs matching plugins for each transition on one worker
// goroutine, so a slow plugin delays later ones but never the caller.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	queue    chan Request

	mu      sync.Mutex
	closed  bool
	dropped int
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewDispatcher starts the worker.
func NewDispatcher(m *Manager, e *Executor, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		manager:  m,
		executor: e,
		queue:    make(chan Request, queueSize),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	go d.run(ctx)
	return d
}

// Notify queues req without blocking. It reports false when the request
// was dropped.
func (d *Dispatcher) Notify(req Request) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	select {
	case d.queue <- req:
		return true
	default:
		d.dropped++
		return false
	}
}

// Dropped returns how many requests found the queue full.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Close runs what is queued and waits for the worker.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
	d.cancel()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for req := range d.queue {
		for _, p := range d.manager.Match(req.To, req.Trigger) {
			r := req
			resp, err := d.executor.Execute(ctx, p, &r)
			if err != nil {
				log.Printf("plugin %s: %v", p.Manifest.Name, err)
				continue
			}
			if !resp.Success {
				log.Printf("plugin %s reported: %s", p.Manifest.Name, resp.Error)
			}
		}
	}
}
