// Package notify holds the alert sinks a check notification can be shown
// through. The dispatcher raises one alert per issued check; which sinks
// receive it is decided at startup.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/panopto-checks/internal/domain"
)

// Alerter shows a notification to the user.
type Alerter interface {
	Alert(ctx context.Context, n domain.Notification) error
}

// Broadcaster delivers a message to every connected client.
type Broadcaster interface {
	Broadcast(msg domain.Outbound)
}

// LogAlerter writes notifications to the log.
type LogAlerter struct{}

// Alert implements Alerter.
func (LogAlerter) Alert(_ context.Context, n domain.Notification) error {
	log.Info().
		Str("check_id", n.CheckID).
		Str("title", n.Title).
		Str("body", n.Body).
		Msg("check notification")
	return nil
}

// HubAlerter shows notifications in connected dashboards by broadcasting a
// SHOW_NOTIFICATION message.
type HubAlerter struct {
	Hub Broadcaster
}

// Alert implements Alerter.
func (a HubAlerter) Alert(_ context.Context, n domain.Notification) error {
	if a.Hub == nil {
		return errors.New("notify: no broadcaster")
	}
	a.Hub.Broadcast(domain.Outbound{Type: domain.MsgShowNotification, Notification: &n})
	return nil
}

// Multi sends each notification to every sink and joins their errors. One
// failing sink does not stop the others.
type Multi []Alerter

// Alert implements Alerter.
func (m Multi) Alert(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, a := range m {
		if a == nil {
			continue
		}
		if err := a.Alert(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
