package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/panopto-checks/internal/http/middleware"
)

// StreamHeartbeat is how often an idle stream receives a keep-alive event.
var StreamHeartbeat = 25 * time.Second

// Stream godoc
// @ID          stream
// @Summary     Subscribe to worker broadcasts
// @Description Server-Sent Events. Each event is named after the message type
// @Description (PANOPTO_CHECK_CREATED, SHOW_NOTIFICATION) and carries the JSON message.
// @Description Idle streams receive a "ping" event.
// @Tags        Stream
// @Produce     text/event-stream
// @Success     200  {object}  domain.Outbound
// @Router      /stream [get]
func (h *Handlers) Stream(c *gin.Context) {
	ch, cancel := h.stream.Subscribe()
	defer cancel()

	lg := middleware.LoggerFrom(c)
	lg.Debug().Msg("stream opened")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	hb := time.NewTicker(StreamHeartbeat)
	defer hb.Stop()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent(msg.Type, msg)
			return true
		case <-hb.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
	lg.Debug().Msg("stream closed")
}
