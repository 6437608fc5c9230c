// Package services – Scheduler
//
// This file implements one scheduler pass. Registered events are evaluated
// one after another against the due window; due slots go to the Dispatcher,
// whose put-if-absent write makes re-evaluating a slot harmless. The reaper
// and the outward sync flush run after dispatch. No step returns an error:
// failures are logged and counted so the tick loop keeps running.
package services

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/panopto-checks/internal/domain"
	"github.com/tbourn/panopto-checks/internal/repo"
)

// TickResult summarizes one scheduler pass.
type TickResult struct {
	Events int
	Issued int
	Reaped int64
	Synced int
}

// Scheduler evaluates registered events once per tick.
type Scheduler struct {
	Store      Opener
	Timing     Timing
	Dispatcher *Dispatcher
	Reaper     *Reaper
	Sync       *SyncService
	Now        func() time.Time
}

// Tick runs one pass at the current clock reading.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	started := time.Now()
	defer func() {
		schedulerTicks.Inc()
		tickDuration.Observe(time.Since(started).Seconds())
	}()

	tr := otel.Tracer("services/Scheduler")
	ctx, span := tr.Start(ctx, "Tick")
	defer span.End()

	now := clock(s.Now)()
	var res TickResult

	s.dispatchDue(ctx, now, &res)

	if s.Reaper != nil {
		res.Reaped, _ = s.Reaper.Reap(ctx, now)
	}
	res.Synced = s.Sync.Flush(ctx)

	span.SetAttributes(
		attribute.Int("events", res.Events),
		attribute.Int("issued", res.Issued),
		attribute.Int64("reaped", res.Reaped),
	)
	return res
}

func (s *Scheduler) dispatchDue(ctx context.Context, now time.Time, res *TickResult) {
	db, err := s.Store.Open(ctx)
	if err != nil {
		storeFailed("tick", err)
		return
	}
	events, err := repo.ListEvents(ctx, db)
	if err != nil {
		storeFailed("list_events", err)
		return
	}
	res.Events = len(events)

	for _, ev := range events {
		start, end, err := s.Timing.Window(ev)
		if err != nil {
			log.Warn().Err(err).Str("event_id", ev.EventID).Msg("skipping event with unreadable times")
			continue
		}
		n, _, ok := s.Timing.Due(now, start, end)
		if !ok {
			continue
		}
		if s.dispatchOne(ctx, ev, n) {
			res.Issued++
		}
	}
}

// dispatchOne issues one due slot. A panic while dispatching is logged and
// confined to this event.
func (s *Scheduler) dispatchOne(ctx context.Context, ev domain.RegisteredEvent, n int) (created bool) {
	defer func() {
		if rec := recover(); rec != nil {
			created = false
			log.Error().
				Str("event_id", ev.EventID).
				Int("check_number", n).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("dispatch panicked")
		}
	}()
	created, err := s.Dispatcher.Dispatch(ctx, ev, n)
	return err == nil && created
}
