package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/panopto-checks/internal/domain"
	"github.com/tbourn/panopto-checks/internal/repo"
)

func eventIDs(t *testing.T, h *harness) []string {
	t.Helper()
	evs, err := repo.ListEvents(context.Background(), h.db)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.EventID
	}
	return out
}

func TestRegister_FiltersByRecordingResource(t *testing.T) {
	h := newHarness(t, at(8, 0))

	n, err := h.checks.Register(context.Background(), []domain.SourceEvent{
		sourceEvent("rec", "09:00", "10:00", "Video Recording Equipment"),
		sourceEvent("clicker", "09:00", "10:00", "Clicker"),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if n != 1 {
		t.Fatalf("registered %d; want 1", n)
	}
	if ids := eventIDs(t, h); len(ids) != 1 || ids[0] != "rec" {
		t.Fatalf("unexpected registered events: %v", ids)
	}
}

func TestRegister_ReplacesNotMerges(t *testing.T) {
	h := newHarness(t, at(8, 0))
	ctx := context.Background()

	_, _ = h.checks.Register(ctx, []domain.SourceEvent{
		sourceEvent("a1", "09:00", "10:00", "Recording"),
		sourceEvent("a2", "11:00", "12:00", "Recording"),
	})
	_, _ = h.checks.Register(ctx, []domain.SourceEvent{
		sourceEvent("b1", "13:00", "14:00", "Recording"),
	})
	if ids := eventIDs(t, h); len(ids) != 1 || ids[0] != "b1" {
		t.Fatalf("expected only set B, got %v", ids)
	}
}

func TestRegister_BadResourcesExcludeOnlyThatEvent(t *testing.T) {
	h := newHarness(t, at(8, 0))

	bad := sourceEvent("bad", "09:00", "10:00")
	bad.Resources = json.RawMessage(`"[{broken"`)
	str := sourceEvent("str", "09:00", "10:00")
	str.Resources = json.RawMessage(`"[{\"itemName\":\"Lecture Recording\"}]"`)
	noID := sourceEvent("", "09:00", "10:00", "Recording")

	n, err := h.checks.Register(context.Background(), []domain.SourceEvent{bad, str, noID})
	if err != nil || n != 1 {
		t.Fatalf("Register: n=%d err=%v", n, err)
	}
	if ids := eventIDs(t, h); len(ids) != 1 || ids[0] != "str" {
		t.Fatalf("unexpected registered events: %v", ids)
	}
}

func TestRegister_CustomClassifier(t *testing.T) {
	h := newHarness(t, at(8, 0))
	h.checks.Classifier = func(ev domain.SourceEvent) bool { return ev.ID == "x" }

	n, _ := h.checks.Register(context.Background(), []domain.SourceEvent{
		sourceEvent("x", "09:00", "10:00"),
		sourceEvent("y", "09:00", "10:00", "Recording"),
	})
	if n != 1 {
		t.Fatalf("registered %d; want 1", n)
	}
}

func TestRegister_StoreFailure(t *testing.T) {
	s := &CheckService{Store: failingOpener{}}
	if _, err := s.Register(context.Background(), nil); !errors.Is(err, errOpen) {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestClear_EmptiesBoth(t *testing.T) {
	h := newHarness(t, at(9, 31))
	ctx := context.Background()

	_, _ = h.checks.Register(ctx, []domain.SourceEvent{sourceEvent("1", "09:00", "10:00", "Recording")})
	_, _ = h.dispatcher.Dispatch(ctx, lecture(), 1)
	_, _ = h.checks.Complete(ctx, "1-check-1")

	if err := h.checks.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	checks, _ := h.checks.List(ctx)
	if len(checks) != 0 || len(eventIDs(t, h)) != 0 {
		t.Fatalf("store not empty after clear")
	}
	if has, _ := h.checks.HasEvents(ctx); has {
		t.Fatalf("HasEvents after clear = true")
	}
}

func TestComplete_IdempotentAndSynced(t *testing.T) {
	h := newHarness(t, at(9, 31))
	ctx := context.Background()
	_, _ = h.dispatcher.Dispatch(ctx, lecture(), 1)

	h.clock.Set(at(9, 35))
	c, err := h.checks.Complete(ctx, "1-check-1")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !c.Completed || !c.CompletedAt.Equal(at(9, 35)) {
		t.Fatalf("unexpected completion: %+v", c)
	}
	if len(h.syncer.batches) != 1 {
		t.Fatalf("completion should be pushed right away, got %d batches", len(h.syncer.batches))
	}

	h.clock.Advance(time.Hour)
	c, err = h.checks.Complete(ctx, "1-check-1")
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if !c.CompletedAt.Equal(at(9, 35)) {
		t.Fatalf("completedAt moved to %v", c.CompletedAt)
	}
}

func TestComplete_MissingAndInvalid(t *testing.T) {
	h := newHarness(t, at(9, 31))
	if _, err := h.checks.Complete(context.Background(), "nope"); !errors.Is(err, ErrCheckNotFound) {
		t.Fatalf("expected ErrCheckNotFound, got %v", err)
	}
	if _, err := h.checks.Complete(context.Background(), "  "); !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand, got %v", err)
	}
}

func TestTest_BypassesDueWindow(t *testing.T) {
	// 03:00 is far outside the event window.
	h := newHarness(t, at(3, 0))
	ctx := context.Background()
	ev := lecture()

	created, err := h.checks.Test(ctx, &ev, 4)
	if err != nil || !created {
		t.Fatalf("Test: created=%v err=%v", created, err)
	}
	created, _ = h.checks.Test(ctx, &ev, 4)
	if created || h.alerts.count() != 1 {
		t.Fatalf("second Test must not alert again: created=%v alerts=%d", created, h.alerts.count())
	}
}

func TestTest_InvalidInput(t *testing.T) {
	h := newHarness(t, at(9, 0))
	ctx := context.Background()
	ev := lecture()

	for _, tc := range []struct {
		name string
		ev   *domain.RegisteredEvent
		n    int
	}{
		{"nil event", nil, 1},
		{"empty id", &domain.RegisteredEvent{}, 1},
		{"zero check number", &ev, 0},
	} {
		if _, err := h.checks.Test(ctx, tc.ev, tc.n); !errors.Is(err, ErrInvalidCommand) {
			t.Fatalf("%s: expected ErrInvalidCommand, got %v", tc.name, err)
		}
	}
}

func TestTest_DefaultsEventName(t *testing.T) {
	h := newHarness(t, at(9, 0))
	ev := domain.RegisteredEvent{EventID: "42"}

	if _, err := h.checks.Test(context.Background(), &ev, 1); err != nil {
		t.Fatalf("Test: %v", err)
	}
	if ev.EventName != "" {
		t.Fatalf("caller's event must not be modified")
	}
	c, _ := repo.GetCheck(context.Background(), h.db, "42-check-1")
	if c.EventName != "Event 42" {
		t.Fatalf("eventName = %q", c.EventName)
	}
}
