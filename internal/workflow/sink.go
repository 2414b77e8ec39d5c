package workflow

import (
	"log/slog"
	"time"

	"clipforge/internal/logging"
)

// StepUpdate is pushed to sinks whenever a step changes state.
type StepUpdate struct {
	RunID     string    `json:"run_id"`
	Topic     string    `json:"topic"`
	Step      Step      `json:"step"`
	RunStatus Status    `json:"run_status"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives step updates. Implementations must not block; slow
// consumers should buffer or drop on their side.
type Sink interface {
	HandleStepUpdate(update StepUpdate)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(update StepUpdate)

func (f SinkFunc) HandleStepUpdate(update StepUpdate) {
	f(update)
}

// notifySinks pushes an update to every sink, isolating each call so a
// panicking consumer cannot take down the pipeline or starve its peers.
func notifySinks(sinks []Sink, logger *slog.Logger, update StepUpdate) {
	for _, sink := range sinks {
		notifyOne(sink, logger, update)
	}
}

func notifyOne(sink Sink, logger *slog.Logger, update StepUpdate) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Warn("progress sink panicked",
				logging.String(logging.FieldEventType, "sink_panic"),
				logging.String(logging.FieldRunID, update.RunID),
				logging.String(logging.FieldStep, string(update.Step.ID)),
				logging.Any("panic", r),
			)
		}
	}()
	sink.HandleStepUpdate(update)
}
