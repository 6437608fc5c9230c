// Package broadcast fans worker messages out to every live subscriber: the
// SSE streams of connected dashboards and, when configured, the NATS mirror.
//
// Delivery is best effort. A subscriber whose buffer is full misses the
// message rather than stalling the worker.
package broadcast

import (
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/panopto-checks/internal/domain"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

var (
	subscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "panopto_broadcast_subscribers",
		Help: "Current number of broadcast subscribers.",
	})
	dropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "panopto_broadcast_dropped_total",
		Help: "Messages not delivered because a subscriber buffer was full.",
	})
)

func init() {
	prometheus.MustRegister(subscribers, dropped)
}

// Sink receives broadcast messages.
type Sink interface {
	Broadcast(msg domain.Outbound)
}

// Hub is an in-process publish/subscribe point. The zero value is not
// usable; call NewHub.
type Hub struct {
	buffer int

	mu     sync.Mutex
	subs   map[string]chan domain.Outbound
	closed bool
}

// NewHub returns a hub whose subscribers get buffer-sized channels
// (buffer <= 0 uses DefaultBuffer).
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{buffer: buffer, subs: make(map[string]chan domain.Outbound)}
}

// Subscribe registers a subscriber. The returned func unsubscribes and
// closes the channel; calling it more than once is safe. Subscribing to a
// closed hub yields an already closed channel.
func (h *Hub) Subscribe() (<-chan domain.Outbound, func()) {
	ch := make(chan domain.Outbound, h.buffer)
	id := uuid.NewString()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[id] = ch
	h.mu.Unlock()
	subscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()
	if ok {
		subscribers.Dec()
	}
}

// Broadcast delivers msg to every subscriber without blocking.
func (h *Hub) Broadcast(msg domain.Outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			dropped.Inc()
			log.Warn().Str("subscriber", id).Str("type", msg.Type).Msg("broadcast dropped for slow subscriber")
		}
	}
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Later broadcasts are discarded.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]chan domain.Outbound)
	h.closed = true
	h.mu.Unlock()

	for _, ch := range subs {
		close(ch)
		subscribers.Dec()
	}
}

// Multi forwards each message to every non-nil sink in order.
type Multi []Sink

// Broadcast implements Sink.
func (m Multi) Broadcast(msg domain.Outbound) {
	for _, s := range m {
		if s != nil {
			s.Broadcast(msg)
		}
	}
}
