package webhook

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"plan-picker/internal/logging"
)

// Dispatcher queues payloads and sends them from a single worker, so host
// callbacks never wait on the network.
type Dispatcher struct {
	adapter *Adapter
	logger  *zap.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	queue   chan Payload
	done    chan struct{}
}

// NewDispatcher creates a dispatcher holding up to size undelivered payloads
func NewDispatcher(adapter *Adapter, size int) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	return &Dispatcher{
		adapter: adapter,
		logger:  logging.Named("webhook"),
		queue:   make(chan Payload, size),
		done:    make(chan struct{}),
	}
}

// Start runs the worker until the queue is closed. Deliveries in flight when
// ctx is cancelled are abandoned. Only the first call starts a worker.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		for p := range d.queue {
			log := d.logger.With(zap.String("event", string(p.Event)), zap.String("session_id", p.SessionID))
			if err := d.adapter.Send(ctx, &p); err != nil {
				log.Warn("webhook delivery failed", zap.Error(err))
				continue
			}
			log.Debug("webhook delivered")
		}
	}()
}

// Notify queues a payload. It never blocks; a full queue drops the payload.
func (d *Dispatcher) Notify(p Payload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- p:
	default:
		d.logger.Warn("webhook queue full, dropping event",
			zap.String("event", string(p.Event)), zap.String("session_id", p.SessionID))
	}
}

// Close stops accepting payloads and waits for the queue to drain
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	started := d.started
	d.mu.Unlock()

	if started {
		<-d.done
	}
}
