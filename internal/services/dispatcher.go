// Package services – Dispatcher
//
// This file implements the Dispatcher, which turns a due check slot into a
// stored IssuedCheck, a user-visible alert and a PANOPTO_CHECK_CREATED
// broadcast, in that order. The store write is a single put-if-absent, so a
// slot is alerted at most once no matter how often it is dispatched. An alert
// that fails after the write is logged and never retried.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/panopto-checks/internal/domain"
	"github.com/tbourn/panopto-checks/internal/repo"
)

// Opener yields the shared store handle, opening it on first use.
type Opener interface {
	Open(ctx context.Context) (*gorm.DB, error)
}

// Alerter shows a notification to the user.
type Alerter interface {
	Alert(ctx context.Context, n domain.Notification) error
}

// Broadcaster delivers a message to every connected client.
type Broadcaster interface {
	Broadcast(msg domain.Outbound)
}

// Dispatcher records and announces checks.
type Dispatcher struct {
	Store       Opener
	Alerter     Alerter
	Broadcaster Broadcaster
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Dispatch issues check checkNumber for ev. It reports whether a new check
// was created; an existing slot returns false with no alert and no error.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.RegisteredEvent, checkNumber int) (bool, error) {
	tr := otel.Tracer("services/Dispatcher")
	ctx, span := tr.Start(ctx, "Dispatch",
		trace.WithAttributes(
			attribute.String("event.id", ev.EventID),
			attribute.Int("check.number", checkNumber),
		),
	)
	defer span.End()

	db, err := d.Store.Open(ctx)
	if err != nil {
		storeFailed("dispatch", err)
		return false, err
	}

	check := domain.NewCheck(ev, checkNumber, clock(d.Now)())
	created, err := repo.CreateCheckIfAbsent(ctx, db, &check)
	if err != nil {
		storeFailed("dispatch", err)
		return false, err
	}
	if !created {
		log.Debug().Str("check_id", check.ID).Msg("check already issued")
		return false, nil
	}
	checksIssued.Inc()
	span.SetAttributes(attribute.String("check.id", check.ID))

	if d.Alerter != nil {
		if err := d.Alerter.Alert(ctx, NewCheckNotification(ev, check)); err != nil {
			alertFailures.Inc()
			log.Warn().Err(err).Str("check_id", check.ID).Msg("alert failed; check stays issued")
		}
	}

	if d.Broadcaster != nil {
		d.Broadcaster.Broadcast(domain.Outbound{
			Type: domain.MsgCheckCreated,
			Check: &domain.CreatedCheck{
				IssuedCheck:    check,
				RoomName:       ev.RoomName,
				InstructorName: ev.InstructorName,
			},
		})
	}

	log.Info().
		Str("check_id", check.ID).
		Str("event_id", ev.EventID).
		Int("check_number", checkNumber).
		Msg("check issued")
	return true, nil
}

// NewCheckNotification builds the persistent alert for a freshly issued check.
func NewCheckNotification(ev domain.RegisteredEvent, check domain.IssuedCheck) domain.Notification {
	body := fmt.Sprintf("Verify the recording for %s", ev.EventName)
	if ev.RoomName != "" {
		body += " in " + ev.RoomName
	}
	return domain.Notification{
		Title:              fmt.Sprintf("Panopto Check #%d", check.CheckNumber),
		Body:               body,
		Tag:                check.ID,
		RequireInteraction: true,
		CheckID:            check.ID,
		Actions: []domain.NotificationAction{
			{Action: domain.ActionCompleteCheck, Title: "Mark Complete"},
			{Action: domain.ActionViewChecks, Title: "View All Checks"},
		},
	}
}

func clock(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
