package medcore

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// auditDispatcher decouples two-factor operations from the configured
// AuditSink. Events are queued on a bounded channel and delivered by a single
// worker goroutine, so a slow sink (remote SIEM, blocking writer) never sits
// on the verification path.
type auditDispatcher struct {
	sink  AuditSink
	queue chan AuditEvent
	quit  chan struct{}

	// block selects the backpressure policy when the queue is full:
	// wait for room (true) or count a drop and move on (false).
	block bool

	worker    sync.WaitGroup
	drops     atomic.Uint64
	stopped   atomic.Bool
	closeOnce sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	capacity := cfg.BufferSize
	if capacity <= 0 {
		capacity = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:  sink,
		queue: make(chan AuditEvent, capacity),
		quit:  make(chan struct{}),
		block: !cfg.DropIfFull,
	}

	d.worker.Add(1)
	go d.deliver()

	return d
}

// deliver is the worker loop. On shutdown it drains whatever is still queued
// before returning, so Close never discards accepted events.
func (d *auditDispatcher) deliver() {
	defer d.worker.Done()

	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.quit:
			d.drain()
			return
		}
	}
}

func (d *auditDispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit queues an audit event for asynchronous delivery. Under the drop
// policy a full queue increments the drop counter instead of waiting; under
// the blocking policy the caller waits until the queue has room, the context
// is cancelled, or the dispatcher shuts down. Events emitted after Close are
// discarded silently.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.stopped.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if d.block {
		select {
		case d.queue <- event:
		case <-ctx.Done():
		case <-d.quit:
		}
		return
	}

	select {
	case d.queue <- event:
	case <-d.quit:
	default:
		d.drops.Add(1)
	}
}

// Close stops the worker after flushing every queued event. Safe to call
// more than once and on a nil dispatcher.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.stopped.Store(true)
		close(d.quit)
		d.worker.Wait()
	})
}

// Dropped reports how many events the drop policy discarded since startup.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.drops.Load()
}
