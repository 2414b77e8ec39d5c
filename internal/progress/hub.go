// Package progress fans step and job updates out to event-stream
// subscribers. Publishing never blocks: a subscriber whose buffer is full
// loses the oldest-pending update rather than stalling the publisher.
package progress

import (
	"log/slog"
	"sync"

	"clipforge/internal/logging"
	"clipforge/internal/videogen"
	"clipforge/internal/workflow"
)

const defaultSubscriberBuffer = 32

// EventKind distinguishes workflow step updates from video job updates.
type EventKind string

const (
	EventWorkflow EventKind = "workflow"
	EventVideo    EventKind = "video"
)

// Event is one fan-out payload.
type Event struct {
	Kind     EventKind            `json:"kind"`
	Workflow *workflow.StepUpdate `json:"workflow,omitempty"`
	Video    *videogen.Job        `json:"video,omitempty"`
}

// Hub is a non-blocking publish/subscribe fan-out.
type Hub struct {
	logger  *slog.Logger
	bufSize int

	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewHub constructs a hub with the default per-subscriber buffer.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		logger:  logging.NewComponentLogger(logger, "progress"),
		bufSize: defaultSubscriberBuffer,
		subs:    make(map[int]chan Event),
	}
}

// Subscribe registers a new consumer. The returned cancel function must be
// called to release the subscription; the channel is closed afterwards.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if existing, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(existing)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking. A full
// subscriber drops its oldest pending event to make room.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
				h.logger.Debug("subscriber dropped event", logging.Int("subscriber", id))
			}
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// WorkflowSink adapts the hub to the workflow progress contract.
func (h *Hub) WorkflowSink() workflow.Sink {
	return workflow.SinkFunc(func(update workflow.StepUpdate) {
		h.Publish(Event{Kind: EventWorkflow, Workflow: &update})
	})
}

// VideoSink adapts the hub to the video job progress contract.
func (h *Hub) VideoSink() videogen.Sink {
	return videogen.SinkFunc(func(job videogen.Job) {
		h.Publish(Event{Kind: EventVideo, Video: &job})
	})
}
