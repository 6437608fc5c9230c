// Package worker hosts the long-running background loop of the daemon. One
// goroutine owns the store-facing services: it serves the command inbox and
// the scheduler tick in turn, so commands and ticks never interleave.
package worker

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/panopto-checks/internal/domain"
	"github.com/tbourn/panopto-checks/internal/services"
)

// ErrStopped is returned by Submit once the worker has exited.
var ErrStopped = errors.New("worker stopped")

// Ticker runs one scheduler pass.
type Ticker interface {
	Tick(ctx context.Context) services.TickResult
}

// EventChecker reports whether registered events exist.
type EventChecker interface {
	HasEvents(ctx context.Context) (bool, error)
}

type request struct {
	ctx   context.Context
	cmd   domain.Command
	reply chan result
}

type result struct {
	out *domain.Outbound
	err error
}

// Worker serializes commands and scheduler ticks on one goroutine.
//
// The tick timer is off until the first successful registration, or until
// Run finds events left in the store by a previous process.
type Worker struct {
	router   *Router
	sched    Ticker
	events   EventChecker
	interval time.Duration

	inbox chan request
	done  chan struct{}
}

// New returns a worker. interval <= 0 uses domain.TickInterval; inboxSize
// bounds how many commands may wait while a tick runs.
func New(router *Router, sched Ticker, events EventChecker, interval time.Duration, inboxSize int) *Worker {
	if interval <= 0 {
		interval = domain.TickInterval
	}
	if inboxSize < 1 {
		inboxSize = 1
	}
	return &Worker{
		router:   router,
		sched:    sched,
		events:   events,
		interval: interval,
		inbox:    make(chan request, inboxSize),
		done:     make(chan struct{}),
	}
}

// Run serves commands and ticks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	var (
		ticker *time.Ticker
		tickC  <-chan time.Time
	)
	startTicker := func() {
		if ticker != nil {
			return
		}
		ticker = time.NewTicker(w.interval)
		tickC = ticker.C
		log.Info().Dur("interval", w.interval).Msg("scheduler started")
		w.tick(ctx)
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	if w.events != nil {
		if has, err := w.events.HasEvents(ctx); err == nil && has {
			startTicker()
		}
	}

	log.Info().Msg("worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker stopped")
			return

		case req := <-w.inbox:
			out, err := w.router.Route(req.ctx, req.cmd)
			if err == nil && req.cmd.Type == domain.MsgRegisterChecks {
				startTicker()
			}
			req.reply <- result{out: out, err: err}

		case <-tickC:
			w.tick(ctx)
		}
	}
}

// tick runs one scheduler pass. A panic is logged and the pass abandoned;
// the loop keeps serving commands and later ticks.
func (w *Worker) tick(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("scheduler tick panicked")
		}
	}()
	w.sched.Tick(ctx)
}

// Submit hands cmd to the worker and waits for its outcome. The returned
// Outbound is non-nil only for commands that reply to the sender.
func (w *Worker) Submit(ctx context.Context, cmd domain.Command) (*domain.Outbound, error) {
	req := request{ctx: ctx, cmd: cmd, reply: make(chan result, 1)}

	select {
	case w.inbox <- req:
	case <-w.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.out, res.err
	case <-w.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }
