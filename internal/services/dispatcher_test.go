package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/panopto-checks/internal/domain"
	"github.com/tbourn/panopto-checks/internal/repo"
)

func lecture() domain.RegisteredEvent {
	return domain.RegisteredEvent{
		EventID:        "1",
		EventName:      "Intro to Biology",
		StartTime:      "09:00",
		EndTime:        "10:00",
		Date:           "2025-05-08",
		RoomName:       "Room 101",
		InstructorName: "Dr. Smith",
	}
}

func TestDispatch_IdempotentPerSlot(t *testing.T) {
	h := newHarness(t, at(9, 31))
	ctx := context.Background()

	created, err := h.dispatcher.Dispatch(ctx, lecture(), 1)
	if err != nil || !created {
		t.Fatalf("first Dispatch: created=%v err=%v", created, err)
	}
	h.clock.Advance(time.Minute)
	created, err = h.dispatcher.Dispatch(ctx, lecture(), 1)
	if err != nil || created {
		t.Fatalf("second Dispatch: created=%v err=%v", created, err)
	}

	checks, _ := repo.ListChecks(ctx, h.db)
	if len(checks) != 1 {
		t.Fatalf("expected 1 stored check, got %d", len(checks))
	}
	if h.alerts.count() != 1 || h.bus.count() != 1 {
		t.Fatalf("expected one alert and one broadcast, got %d and %d", h.alerts.count(), h.bus.count())
	}
	if !checks[0].CreatedAt.Equal(at(9, 31)) {
		t.Fatalf("createdAt = %v; want 09:31", checks[0].CreatedAt)
	}
}

func TestDispatch_NotificationAndBroadcastContent(t *testing.T) {
	h := newHarness(t, at(9, 31))

	if _, err := h.dispatcher.Dispatch(context.Background(), lecture(), 2); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	n := h.alerts.shown[0]
	if n.Title != "Panopto Check #2" {
		t.Fatalf("title = %q", n.Title)
	}
	if n.Body != "Verify the recording for Intro to Biology in Room 101" {
		t.Fatalf("body = %q", n.Body)
	}
	if !n.RequireInteraction || n.Tag != "1-check-2" || n.CheckID != "1-check-2" {
		t.Fatalf("unexpected notification flags: %+v", n)
	}
	if len(n.Actions) != 2 ||
		n.Actions[0].Action != domain.ActionCompleteCheck ||
		n.Actions[1].Action != domain.ActionViewChecks {
		t.Fatalf("unexpected actions: %+v", n.Actions)
	}

	msg := h.bus.msgs[0]
	if msg.Type != domain.MsgCheckCreated || msg.Check == nil {
		t.Fatalf("unexpected broadcast: %+v", msg)
	}
	if msg.Check.ID != "1-check-2" || msg.Check.RoomName != "Room 101" || msg.Check.InstructorName != "Dr. Smith" {
		t.Fatalf("unexpected broadcast payload: %+v", msg.Check)
	}
	if msg.Check.Completed {
		t.Fatalf("new check must be uncompleted")
	}
}

func TestDispatch_AlertFailureKeepsCheckIssued(t *testing.T) {
	h := newHarness(t, at(9, 31))
	h.alerts.err = errors.New("notifications blocked")
	ctx := context.Background()

	base := testutil.ToFloat64(alertFailures)
	created, err := h.dispatcher.Dispatch(ctx, lecture(), 1)
	if err != nil || !created {
		t.Fatalf("Dispatch: created=%v err=%v", created, err)
	}
	if got := testutil.ToFloat64(alertFailures); got != base+1 {
		t.Fatalf("alert failures = %v; want %v", got, base+1)
	}
	if _, err := repo.GetCheck(ctx, h.db, "1-check-1"); err != nil {
		t.Fatalf("check should be stored despite alert failure: %v", err)
	}

	// No retry on the next dispatch of the same slot.
	h.alerts.err = nil
	created, _ = h.dispatcher.Dispatch(ctx, lecture(), 1)
	if created || h.alerts.count() != 0 {
		t.Fatalf("failed alert must not be retried: created=%v alerts=%d", created, h.alerts.count())
	}
}

func TestDispatch_StoreFailure(t *testing.T) {
	d := &Dispatcher{Store: failingOpener{}, Alerter: &recordingAlerter{}}
	base := testutil.ToFloat64(storeErrors.WithLabelValues("dispatch"))

	created, err := d.Dispatch(context.Background(), lecture(), 1)
	if !errors.Is(err, errOpen) || created {
		t.Fatalf("expected open error, got created=%v err=%v", created, err)
	}
	if got := testutil.ToFloat64(storeErrors.WithLabelValues("dispatch")); got != base+1 {
		t.Fatalf("store errors = %v; want %v", got, base+1)
	}
}

func TestDispatch_NilCollaborators(t *testing.T) {
	h := newHarness(t, at(9, 31))
	d := &Dispatcher{Store: h.store}
	if created, err := d.Dispatch(context.Background(), lecture(), 1); err != nil || !created {
		t.Fatalf("Dispatch without alerter/broadcaster: created=%v err=%v", created, err)
	}
}
