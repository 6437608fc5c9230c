// Check HTTP handlers.
//
// This file exposes the worker's command protocol over HTTP:
//   - POST /messages                (any command envelope)
//   - GET  /checks                  (issued checks, optional ?limit=)
//   - POST /checks/{id}/complete    (mark one check complete)
//   - POST /notifications/actions   (alert button clicks)
//
// Handlers never touch the store. Every operation becomes a domain.Command
// submitted to the worker, which is the store's only writer.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/panopto-checks/internal/domain"
	"github.com/tbourn/panopto-checks/internal/services"
	"github.com/tbourn/panopto-checks/internal/utils"
	"github.com/tbourn/panopto-checks/internal/worker"
)

// CommandBus delivers a command to the worker and waits for its outcome.
type CommandBus interface {
	Submit(ctx context.Context, cmd domain.Command) (*domain.Outbound, error)
}

// EventStream hands out broadcast subscriptions. The returned func releases
// the subscription.
type EventStream interface {
	Subscribe() (<-chan domain.Outbound, func())
}

// Handlers groups the check endpoints.
type Handlers struct {
	bus     CommandBus
	stream  EventStream
	viewURL string
}

// New returns handlers bound to the worker bus and the broadcast stream.
// viewURL is the checks overview page returned for the "view" action.
func New(bus CommandBus, stream EventStream, viewURL string) *Handlers {
	return &Handlers{bus: bus, stream: stream, viewURL: viewURL}
}

//
// DTOs
//

// AcceptedResponse acknowledges a command that produces no direct reply.
type AcceptedResponse struct {
	Status string `json:"status" example:"accepted"`
}

// ChecksResponse lists issued checks.
type ChecksResponse struct {
	Checks []domain.IssuedCheck `json:"checks"`
	Total  int                  `json:"total" example:"3"`
}

// NotificationActionRequest is sent when the user presses an alert button.
type NotificationActionRequest struct {
	Action  string `json:"action" binding:"required" example:"complete_panopto_check"`
	CheckID string `json:"checkId" example:"12345-check-1"`
}

// ViewResponse points the client at the checks overview.
type ViewResponse struct {
	URL string `json:"url" example:"/checks"`
}

//
// Handlers
//

// PostMessage godoc
// @ID          postMessage
// @Summary     Send a command to the check worker
// @Description Accepts the same envelope as the worker inbox. GET_PANOPTO_CHECKS replies
// @Description with PANOPTO_CHECKS_UPDATED; every other command is acknowledged with 202.
// @Description Unknown types are accepted and ignored.
// @Tags        Commands
// @Accept      json
// @Produce     json
// @Param       body  body      domain.Command  true  "Command envelope"
// @Success     200   {object}  domain.Outbound "Direct reply"
// @Success     202   {object}  handlers.AcceptedResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     500   {object}  handlers.ErrorResponse
// @Failure     503   {object}  handlers.ErrorResponse
// @Router      /messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	var cmd domain.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid command envelope")
		return
	}
	cmd.Type = strings.TrimSpace(cmd.Type)
	if cmd.Type == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "type required")
		return
	}

	out, err := h.bus.Submit(c.Request.Context(), cmd)
	switch {
	case errors.Is(err, services.ErrCheckNotFound):
		// completing an unknown check is a no-op
	case err != nil:
		h.commandFailed(c, err)
		return
	}
	if out != nil {
		ok(c, http.StatusOK, out)
		return
	}
	ok(c, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

// ListChecks godoc
// @ID          listChecks
// @Summary     List issued checks
// @Description Returns issued checks oldest first. With limit, only the most recent ones.
// @Tags        Checks
// @Produce     json
// @Param       limit  query     int  false  "Most recent N checks"  minimum(1)
// @Success     200    {object}  handlers.ChecksResponse
// @Failure     500    {object}  handlers.ErrorResponse
// @Failure     503    {object}  handlers.ErrorResponse
// @Router      /checks [get]
func (h *Handlers) ListChecks(c *gin.Context) {
	out, err := h.bus.Submit(c.Request.Context(), domain.Command{Type: domain.MsgGetChecks})
	if err != nil {
		h.commandFailed(c, err)
		return
	}
	var checks []domain.IssuedCheck
	if out != nil {
		checks = out.Checks
	}
	if checks == nil {
		checks = []domain.IssuedCheck{}
	}
	total := len(checks)
	checks = utils.Tail(checks, utils.AtoiDefault(c.Query("limit"), 0))
	ok(c, http.StatusOK, ChecksResponse{Checks: checks, Total: total})
}

// CompleteCheck godoc
// @ID          completeCheck
// @Summary     Mark a check complete
// @Description Completing an already completed check keeps its first completion time.
// @Tags        Checks
// @Param       id   path  string  true  "Check id"  example(12345-check-1)
// @Success     204  "Completed"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /checks/{id}/complete [post]
func (h *Handlers) CompleteCheck(c *gin.Context) {
	h.complete(c, c.Param("id"))
}

// NotificationAction godoc
// @ID          notificationAction
// @Summary     Handle an alert button
// @Description complete_panopto_check completes the alert's check; view_panopto_checks returns the
// @Description overview URL.
// @Tags        Notifications
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.NotificationActionRequest  true  "Action"
// @Success     200   {object}  handlers.ViewResponse
// @Success     204   "Completed"
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /notifications/actions [post]
func (h *Handlers) NotificationAction(c *gin.Context) {
	var req NotificationActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "action required")
		return
	}
	switch req.Action {
	case domain.ActionCompleteCheck:
		h.complete(c, req.CheckID)
	case domain.ActionViewChecks:
		ok(c, http.StatusOK, ViewResponse{URL: h.viewURL})
	default:
		fail(c, http.StatusBadRequest, ErrCodeUnknownAction, "unknown action")
	}
}

func (h *Handlers) complete(c *gin.Context, checkID string) {
	checkID = strings.TrimSpace(checkID)
	if checkID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "check id required")
		return
	}
	_, err := h.bus.Submit(c.Request.Context(), domain.Command{Type: domain.MsgCompleteCheck, CheckID: checkID})
	if errors.Is(err, services.ErrCheckNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "check not found")
		return
	}
	if err != nil {
		h.commandFailed(c, err)
		return
	}
	noContent(c)
}

// commandFailed maps worker and service errors to the error envelope.
func (h *Handlers) commandFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCommand):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, worker.ErrStopped):
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "worker stopped")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "request cancelled")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeCommandFailed, err.Error())
	}
}
