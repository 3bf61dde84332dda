package sim

import (
	"log"
	"reflect"
)

// Named is anything that has a name.
type Named interface {
	Name() string
}

// EventLogger is a hook that prints every event before an engine runs it.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger returns a new EventLogger which writes into logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger

	return h
}

// Func writes the cycle, the event type and the handler name into the logger.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	if named, ok := evt.Handler().(Named); ok {
		h.Printf("%d, %s -> %s", evt.Time(), reflect.TypeOf(evt), named.Name())
		return
	}

	h.Printf("%d, %s", evt.Time(), reflect.TypeOf(evt))
}
