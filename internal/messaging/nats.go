// Package messaging connects the daemon to NATS. It is optional: when a
// server URL is configured, broadcasts are mirrored to <prefix>.events,
// completed checks are published to <prefix>.checks.completed, and commands
// are accepted as requests on <prefix>.commands.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/panopto-checks/internal/domain"
)

const (
	SubjectEvents    = "events"
	SubjectCompleted = "checks.completed"
	SubjectCommands  = "commands"

	DefaultPrefix = "panopto"
)

// ErrNotConnected is returned when publishing without a live connection.
var ErrNotConnected = errors.New("nats: not connected")

// CommandBus delivers a command to the worker.
type CommandBus interface {
	Submit(ctx context.Context, cmd domain.Command) (*domain.Outbound, error)
}

// Client publishes and subscribes on one subject prefix.
type Client struct {
	conn    *nats.Conn
	prefix  string
	timeout time.Duration
}

// Connect dials url. Reconnects are unbounded so a broker restart does not
// detach the daemon.
func Connect(url, name, prefix string) (*Client, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrlRedacted()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return NewClient(conn, prefix), nil
}

// NewClient wraps an existing connection.
func NewClient(conn *nats.Conn, prefix string) *Client {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Client{conn: conn, prefix: prefix, timeout: 5 * time.Second}
}

// Subject returns the full subject for suffix.
func (c *Client) Subject(suffix string) string {
	return c.prefix + "." + suffix
}

func (c *Client) connected() bool {
	return c != nil && c.conn != nil && c.conn.IsConnected()
}

// Broadcast mirrors a worker broadcast. Failures are logged only.
func (c *Client) Broadcast(msg domain.Outbound) {
	if c == nil || c.conn == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("nats broadcast encode failed")
		return
	}
	if err := c.conn.Publish(c.Subject(SubjectEvents), data); err != nil {
		log.Warn().Err(err).Str("type", msg.Type).Msg("nats broadcast failed")
	}
}

// SyncCompleted publishes one message per completed check and waits for the
// server to acknowledge the batch. Checks stay pending on error.
func (c *Client) SyncCompleted(ctx context.Context, checks []domain.IssuedCheck) error {
	if !c.connected() {
		return ErrNotConnected
	}
	subject := c.Subject(SubjectCompleted)
	for _, chk := range checks {
		data, err := json.Marshal(chk)
		if err != nil {
			return fmt.Errorf("encode check %s: %w", chk.ID, err)
		}
		msg := nats.NewMsg(subject)
		msg.Data = data
		msg.Header.Set(nats.MsgIdHdr, chk.ID)
		if err := c.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("publish check %s: %w", chk.ID, err)
		}
	}

	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.conn.FlushWithContext(fctx); err != nil {
		return fmt.Errorf("flush completions: %w", err)
	}
	return nil
}

// CommandReply answers a request on the commands subject.
type CommandReply struct {
	OK    bool             `json:"ok"`
	Error string           `json:"error,omitempty"`
	Reply *domain.Outbound `json:"reply,omitempty"`
}

// ServeCommands subscribes to <prefix>.commands and submits every decoded
// command to bus. Requests with a reply subject receive a CommandReply. The
// returned func unsubscribes.
func (c *Client) ServeCommands(ctx context.Context, bus CommandBus) (func() error, error) {
	if c == nil || c.conn == nil {
		return nil, ErrNotConnected
	}
	sub, err := c.conn.Subscribe(c.Subject(SubjectCommands), func(m *nats.Msg) {
		rctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		reply := HandleCommand(rctx, bus, m.Data)
		if m.Reply == "" {
			return
		}
		data, _ := json.Marshal(reply)
		if err := m.Respond(data); err != nil {
			log.Warn().Err(err).Msg("nats command reply failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe commands: %w", err)
	}
	log.Info().Str("subject", sub.Subject).Msg("nats command subscription active")
	return sub.Unsubscribe, nil
}

// HandleCommand decodes data as a command envelope and submits it.
func HandleCommand(ctx context.Context, bus CommandBus, data []byte) CommandReply {
	var cmd domain.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return CommandReply{Error: "invalid command envelope"}
	}
	if strings.TrimSpace(cmd.Type) == "" {
		return CommandReply{Error: "type required"}
	}
	out, err := bus.Submit(ctx, cmd)
	if err != nil {
		log.Warn().Err(err).Str("type", cmd.Type).Msg("nats command failed")
		return CommandReply{Error: err.Error()}
	}
	return CommandReply{OK: true, Reply: out}
}

// Close drains and closes the connection.
func (c *Client) Close() {
	if c == nil || c.conn == nil {
		return
	}
	_ = c.conn.Drain()
	c.conn.Close()
}
