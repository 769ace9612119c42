package plugin

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ayusman/yubimoji/internal/event"
	"github.com/ayusman/yubimoji/internal/logging"
)

const defaultQueueSize = 16

// Dispatcher forwards session events to subscribed plugins on a single
// worker goroutine, so plugins see events in publication order. Events are
// dropped when the queue is full.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	logger   *slog.Logger

	queue  chan *Request
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

var _ event.Observer = (*Dispatcher)(nil)

// NewDispatcher starts a Dispatcher.
func NewDispatcher(manager *Manager, executor *Executor, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		manager:  manager,
		executor: executor,
		logger:   logging.NewComponentLogger(logger, "plugin"),
		queue:    make(chan *Request, defaultQueueSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// SignUpdated implements event.Observer. Rejections are not forwarded.
func (d *Dispatcher) SignUpdated(u event.SignUpdate) {
	if !u.Accepted() {
		return
	}
	d.enqueue(&Request{
		Event:       EventSign,
		SessionID:   u.SessionID,
		Seq:         u.Seq,
		Sign:        u.Sign,
		Probability: u.Probability,
	})
}

// WordResolved implements event.Observer.
func (d *Dispatcher) WordResolved(w event.WordEvent) {
	d.enqueue(&Request{
		Event:     EventWord,
		SessionID: w.SessionID,
		Seq:       w.Seq,
		Reading:   w.Reading,
		Word:      w.Word,
	})
}

func (d *Dispatcher) enqueue(req *Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- req:
	default:
		d.logger.Warn("plugin queue full, dropping event", "event", req.Event, logging.FieldSeq, req.Seq)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for req := range d.queue {
		d.deliver(req)
	}
}

// deliver runs every subscriber of req synchronously and returns how many succeeded.
func (d *Dispatcher) deliver(req *Request) int {
	ok := 0
	for _, p := range d.manager.Subscribers(req.Event) {
		if d.ctx.Err() != nil {
			return ok
		}
		if _, err := d.executor.Execute(d.ctx, p, req); err != nil {
			d.logger.Warn("plugin failed",
				"plugin", p.Manifest.Name,
				"event", req.Event,
				logging.FieldSeq, req.Seq,
				"error", err,
			)
			continue
		}
		ok++
	}
	return ok
}

// Close stops accepting events, lets queued events finish, and waits for
// the worker. Running plugins are killed when ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	select {
	case <-d.done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-d.done
		return ctx.Err()
	}
}
