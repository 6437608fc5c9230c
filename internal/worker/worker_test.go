package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tbourn/panopto-checks/internal/domain"
	"github.com/tbourn/panopto-checks/internal/services"
	"github.com/tbourn/panopto-checks/internal/testfixtures"
)

type countingTicker struct{ n atomic.Int32 }

func (c *countingTicker) Tick(context.Context) services.TickResult {
	c.n.Add(1)
	return services.TickResult{}
}

// panickyTicker panics on every pass and counts the attempts.
type panickyTicker struct{ n atomic.Int32 }

func (p *panickyTicker) Tick(context.Context) services.TickResult {
	p.n.Add(1)
	panic("tick exploded")
}

type staticEvents bool

func (s staticEvents) HasEvents(context.Context) (bool, error) { return bool(s), nil }

func startWorker(t *testing.T, w *Worker) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-w.Done()
	})
	return cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestWorker_TickerStartsOnRegister(t *testing.T) {
	tk := &countingTicker{}
	w := New(NewRouter(&fakeOps{}), tk, staticEvents(false), 10*time.Millisecond, 4)
	startWorker(t, w)

	time.Sleep(30 * time.Millisecond)
	if tk.n.Load() != 0 {
		t.Fatalf("ticker must stay off before registration, got %d ticks", tk.n.Load())
	}

	if _, err := w.Submit(context.Background(), domain.Command{Type: domain.MsgRegisterChecks}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, func() bool { return tk.n.Load() >= 3 })
}

func TestWorker_FailedRegisterDoesNotStartTicker(t *testing.T) {
	tk := &countingTicker{}
	w := New(NewRouter(&fakeOps{err: errors.New("disk full")}), tk, nil, 10*time.Millisecond, 1)
	startWorker(t, w)

	if _, err := w.Submit(context.Background(), domain.Command{Type: domain.MsgRegisterChecks}); err == nil {
		t.Fatalf("expected register error")
	}
	time.Sleep(30 * time.Millisecond)
	if tk.n.Load() != 0 {
		t.Fatalf("ticker started after failed register")
	}
}

func TestWorker_ResumesTickerWhenEventsStored(t *testing.T) {
	tk := &countingTicker{}
	w := New(NewRouter(&fakeOps{}), tk, staticEvents(true), 10*time.Millisecond, 1)
	startWorker(t, w)

	waitFor(t, func() bool { return tk.n.Load() >= 2 })
}

func TestWorker_SurvivesPanickingTick(t *testing.T) {
	tk := &panickyTicker{}
	w := New(NewRouter(&fakeOps{}), tk, staticEvents(true), 10*time.Millisecond, 1)
	startWorker(t, w)

	// The pass at Run start and later timer passes all panic.
	waitFor(t, func() bool { return tk.n.Load() >= 3 })

	select {
	case <-w.Done():
		t.Fatalf("worker exited after a tick panic")
	default:
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := w.Submit(ctx, domain.Command{Type: domain.MsgClearChecks}); err != nil {
		t.Fatalf("Submit after tick panic: %v", err)
	}
}

func TestWorker_SubmitAfterStop(t *testing.T) {
	w := New(NewRouter(&fakeOps{}), &countingTicker{}, nil, time.Minute, 1)
	cancel := startWorker(t, w)
	cancel()
	<-w.Done()

	_, err := w.Submit(context.Background(), domain.Command{Type: domain.MsgClearChecks})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestWorker_SubmitHonoursContext(t *testing.T) {
	w := New(NewRouter(&fakeOps{}), &countingTicker{}, nil, time.Minute, 1)
	// Not running: the inbox accepts one request, then nothing replies.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := w.Submit(ctx, domain.Command{Type: domain.MsgClearChecks}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

// End to end through the real services: register at 09:31, tick, read back.
func TestWorker_EndToEndWithServices(t *testing.T) {
	store, _ := testfixtures.NewStore(t)
	clock := testfixtures.NewClock(time.Date(2025, 5, 8, 9, 31, 0, 0, time.UTC))
	disp := &services.Dispatcher{Store: store, Now: clock.Now}
	checks := &services.CheckService{Store: store, Dispatcher: disp, Now: clock.Now}
	sched := &services.Scheduler{
		Store:      store,
		Timing:     services.DefaultTiming(),
		Dispatcher: disp,
		Reaper:     &services.Reaper{Store: store, Expiry: domain.CheckExpiry},
		Now:        clock.Now,
	}
	w := New(NewRouter(checks), sched, checks, time.Hour, 8)
	startWorker(t, w)
	ctx := context.Background()

	_, err := w.Submit(ctx, domain.Command{
		Type: domain.MsgRegisterChecks,
		Events: []domain.SourceEvent{{
			ID: "1", EventName: "Lecture", StartTime: "09:00", EndTime: "10:00", Date: "2025-05-08",
			Resources: json.RawMessage(`[{"itemName":"Video Recording"}]`),
		}},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// Registration starts the scheduler, which runs one pass immediately.
	out, err := w.Submit(ctx, domain.Command{Type: domain.MsgGetChecks})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out == nil || len(out.Checks) != 1 || out.Checks[0].ID != "1-check-1" {
		t.Fatalf("unexpected reply: %+v", out)
	}

	if _, err := w.Submit(ctx, domain.Command{Type: domain.MsgCompleteCheck, CheckID: "missing"}); !errors.Is(err, services.ErrCheckNotFound) {
		t.Fatalf("complete missing: %v", err)
	}
	if _, err := w.Submit(ctx, domain.Command{Type: "NOPE"}); err != nil {
		t.Fatalf("unknown type: %v", err)
	}
}
