package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/panopto-checks/internal/domain"
	"github.com/tbourn/panopto-checks/internal/testfixtures"
)

type recordingAlerter struct {
	mu    sync.Mutex
	shown []domain.Notification
	err   error
}

func (a *recordingAlerter) Alert(_ context.Context, n domain.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.shown = append(a.shown, n)
	return nil
}

func (a *recordingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.shown)
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []domain.Outbound
}

func (b *recordingBroadcaster) Broadcast(msg domain.Outbound) {
	b.mu.Lock()
	b.msgs = append(b.msgs, msg)
	b.mu.Unlock()
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

type recordingSyncer struct {
	batches [][]domain.IssuedCheck
	err     error
}

func (s *recordingSyncer) SyncCompleted(_ context.Context, checks []domain.IssuedCheck) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, checks)
	return nil
}

// failingOpener always fails to open the store.
type failingOpener struct{}

var errOpen = errors.New("store unavailable")

func (failingOpener) Open(context.Context) (*gorm.DB, error) { return nil, errOpen }

// harness wires every service over one in-memory store and a fake clock.
type harness struct {
	clock      *testfixtures.Clock
	alerts     *recordingAlerter
	bus        *recordingBroadcaster
	syncer     *recordingSyncer
	dispatcher *Dispatcher
	scheduler  *Scheduler
	checks     *CheckService
	store      Opener
	db         *gorm.DB
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	store, db := testfixtures.NewStore(t)
	h := &harness{
		clock:  testfixtures.NewClock(now),
		alerts: &recordingAlerter{},
		bus:    &recordingBroadcaster{},
		syncer: &recordingSyncer{},
		store:  store,
		db:     db,
	}
	h.dispatcher = &Dispatcher{Store: store, Alerter: h.alerts, Broadcaster: h.bus, Now: h.clock.Now}
	syncSvc := &SyncService{Store: store, Syncer: h.syncer, Now: h.clock.Now}
	h.scheduler = &Scheduler{
		Store:      store,
		Timing:     DefaultTiming(),
		Dispatcher: h.dispatcher,
		Reaper:     &Reaper{Store: store, Expiry: domain.CheckExpiry},
		Sync:       syncSvc,
		Now:        h.clock.Now,
	}
	h.checks = &CheckService{Store: store, Dispatcher: h.dispatcher, Sync: syncSvc, Now: h.clock.Now}
	return h
}

// at returns 2025-05-08 hh:mm UTC.
func at(hh, mm int) time.Time {
	return time.Date(2025, 5, 8, hh, mm, 0, 0, time.UTC)
}

func sourceEvent(id, start, end string, items ...string) domain.SourceEvent {
	res := make([]domain.Resource, len(items))
	for i, it := range items {
		res[i] = domain.Resource{ItemName: it}
	}
	raw, _ := json.Marshal(res)
	return domain.SourceEvent{
		ID:             domain.FlexibleID(id),
		EventName:      "Lecture " + id,
		StartTime:      start,
		EndTime:        end,
		Date:           testfixtures.Day,
		RoomName:       "Room 101",
		InstructorName: "Dr. Smith",
		Resources:      raw,
	}
}
