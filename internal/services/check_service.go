// Package services – CheckService
//
// This file implements CheckService, the operations behind the worker's
// command types: registering the day's events, clearing the store,
// completing a check, listing checks and forcing a test dispatch. Storage
// failures are logged and counted here and returned to the caller, which
// decides whether to surface them.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/panopto-checks/internal/domain"
	"github.com/tbourn/panopto-checks/internal/repo"
)

// CheckService provides the command-level operations on the local store.
type CheckService struct {
	Store Opener
	// Classifier filters events on registration; nil means RecordingClassifier.
	Classifier Classifier
	Dispatcher *Dispatcher
	// Sync is flushed right after a completion; may be nil.
	Sync *SyncService
	Now  func() time.Time
}

// Register replaces the registered events with the qualifying subset of
// events and returns how many were stored.
func (s *CheckService) Register(ctx context.Context, events []domain.SourceEvent) (int, error) {
	tr := otel.Tracer("services/CheckService")
	ctx, span := tr.Start(ctx, "Register",
		trace.WithAttributes(attribute.Int("events.received", len(events))),
	)
	defer span.End()

	classify := s.Classifier
	if classify == nil {
		classify = RecordingClassifier
	}
	now := clock(s.Now)()

	keep := make([]domain.RegisteredEvent, 0, len(events))
	for _, ev := range events {
		if strings.TrimSpace(string(ev.ID)) == "" {
			log.Warn().Str("event_name", ev.EventName).Msg("skipping event without id")
			continue
		}
		if !classify(ev) {
			continue
		}
		keep = append(keep, ev.ToRegistered(now))
	}

	db, err := s.Store.Open(ctx)
	if err != nil {
		storeFailed("register", err)
		return 0, err
	}
	if err := repo.ReplaceEvents(ctx, db, keep); err != nil {
		storeFailed("register", err)
		return 0, err
	}
	span.SetAttributes(attribute.Int("events.registered", len(keep)))
	log.Info().Int("received", len(events)).Int("registered", len(keep)).Msg("events registered")
	return len(keep), nil
}

// Clear empties both collections.
func (s *CheckService) Clear(ctx context.Context) error {
	db, err := s.Store.Open(ctx)
	if err != nil {
		storeFailed("clear", err)
		return err
	}
	if err := repo.ClearAll(ctx, db); err != nil {
		storeFailed("clear", err)
		return err
	}
	log.Info().Msg("checks cleared")
	return nil
}

// Complete marks the check as completed. Completing an already completed
// check keeps its first completion time. A missing id yields ErrCheckNotFound.
func (s *CheckService) Complete(ctx context.Context, checkID string) (*domain.IssuedCheck, error) {
	checkID = strings.TrimSpace(checkID)
	if checkID == "" {
		return nil, ErrInvalidCommand
	}
	db, err := s.Store.Open(ctx)
	if err != nil {
		storeFailed("complete", err)
		return nil, err
	}
	c, err := repo.CompleteCheck(ctx, db, checkID, clock(s.Now)())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCheckNotFound
	}
	if err != nil {
		storeFailed("complete", err)
		return nil, err
	}
	log.Info().Str("check_id", c.ID).Msg("check completed")
	s.Sync.Flush(ctx)
	return c, nil
}

// List returns every issued check.
func (s *CheckService) List(ctx context.Context) ([]domain.IssuedCheck, error) {
	db, err := s.Store.Open(ctx)
	if err != nil {
		storeFailed("list_checks", err)
		return nil, err
	}
	out, err := repo.ListChecks(ctx, db)
	if err != nil {
		storeFailed("list_checks", err)
		return nil, err
	}
	return out, nil
}

// Test dispatches check checkNumber of ev without consulting the due window.
func (s *CheckService) Test(ctx context.Context, ev *domain.RegisteredEvent, checkNumber int) (bool, error) {
	if ev == nil || strings.TrimSpace(ev.EventID) == "" || checkNumber < 1 {
		return false, ErrInvalidCommand
	}
	e := *ev
	if e.EventName == "" {
		e.EventName = "Event " + e.EventID
	}
	return s.Dispatcher.Dispatch(ctx, e, checkNumber)
}

// HasEvents reports whether any registered events are stored.
func (s *CheckService) HasEvents(ctx context.Context) (bool, error) {
	db, err := s.Store.Open(ctx)
	if err != nil {
		storeFailed("has_events", err)
		return false, err
	}
	events, err := repo.ListEvents(ctx, db)
	if err != nil {
		storeFailed("has_events", err)
		return false, err
	}
	return len(events) > 0, nil
}
