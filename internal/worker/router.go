package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tbourn/panopto-checks/internal/domain"
	"github.com/tbourn/panopto-checks/internal/services"
)

// Handler runs one command type. A nil Outbound means no reply.
type Handler func(ctx context.Context, cmd domain.Command) (*domain.Outbound, error)

// CheckOps is the subset of services.CheckService the router drives.
type CheckOps interface {
	Register(ctx context.Context, events []domain.SourceEvent) (int, error)
	Clear(ctx context.Context) error
	Complete(ctx context.Context, checkID string) (*domain.IssuedCheck, error)
	List(ctx context.Context) ([]domain.IssuedCheck, error)
	Test(ctx context.Context, ev *domain.RegisteredEvent, checkNumber int) (bool, error)
}

// Router dispatches commands by their type field.
type Router struct {
	handlers map[string]Handler
}

// NewRouter returns a router with the five check commands bound to ops.
func NewRouter(ops CheckOps) *Router {
	r := &Router{handlers: make(map[string]Handler)}

	r.Handle(domain.MsgRegisterChecks, func(ctx context.Context, cmd domain.Command) (*domain.Outbound, error) {
		_, err := ops.Register(ctx, cmd.Events)
		return nil, err
	})
	r.Handle(domain.MsgClearChecks, func(ctx context.Context, _ domain.Command) (*domain.Outbound, error) {
		return nil, ops.Clear(ctx)
	})
	r.Handle(domain.MsgCompleteCheck, func(ctx context.Context, cmd domain.Command) (*domain.Outbound, error) {
		_, err := ops.Complete(ctx, cmd.CheckID)
		return nil, err
	})
	r.Handle(domain.MsgGetChecks, func(ctx context.Context, _ domain.Command) (*domain.Outbound, error) {
		checks, err := ops.List(ctx)
		if err != nil {
			return nil, err
		}
		return &domain.Outbound{Type: domain.MsgChecksUpdated, Checks: checks}, nil
	})
	r.Handle(domain.MsgTestCheck, func(ctx context.Context, cmd domain.Command) (*domain.Outbound, error) {
		_, err := ops.Test(ctx, cmd.Event, cmd.CheckNumber)
		return nil, err
	})
	return r
}

// Handle binds h to typ, replacing any previous binding.
func (r *Router) Handle(typ string, h Handler) {
	r.handlers[typ] = h
}

// Route runs the handler for cmd.Type. Unknown types are ignored. A panic
// inside a handler is recovered and returned as an error so the next
// command is unaffected. Logs go to the logger carried by ctx.
func (r *Router) Route(ctx context.Context, cmd domain.Command) (out *domain.Outbound, err error) {
	lg := zerolog.Ctx(ctx)
	h, ok := r.handlers[cmd.Type]
	if !ok {
		lg.Debug().Str("type", cmd.Type).Msg("ignoring unknown command")
		return nil, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("%s: handler panic: %v", cmd.Type, rec)
			lg.Error().Str("type", cmd.Type).Interface("panic", rec).Msg("command handler panicked")
		}
	}()

	out, err = h(ctx, cmd)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrCheckNotFound):
		lg.Debug().Str("type", cmd.Type).Str("check_id", cmd.CheckID).Msg("no such check")
	default:
		lg.Warn().Err(err).Str("type", cmd.Type).Msg("command failed")
	}
	return out, err
}
