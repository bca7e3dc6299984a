package events

import "log/slog"

// FuncObserver adapts a function into an Observer. Types lists the
// event types to accept; empty means all.
type FuncObserver struct {
	ObserverName string
	Types        []string
	Fn           func(Event) error
}

// OnEvent invokes the wrapped function.
func (o *FuncObserver) OnEvent(event Event) error {
	return o.Fn(event)
}

// Name returns the observer's name.
func (o *FuncObserver) Name() string {
	if o.ObserverName == "" {
		return "FuncObserver"
	}
	return o.ObserverName
}

// ShouldHandle accepts the configured event types.
func (o *FuncObserver) ShouldHandle(eventType string) bool {
	if len(o.Types) == 0 {
		return true
	}
	for _, t := range o.Types {
		if t == eventType {
			return true
		}
	}
	return false
}

// LoggingObserver logs every event. Used for troubleshooting.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates an observer that logs events at debug
// level. A nil logger falls back to slog.Default().
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent logs the event type and payload.
func (o *LoggingObserver) OnEvent(event Event) error {
	o.logger.Debug("event", "type", event.Type, "data", event.TypedData)
	return nil
}

// Name returns the observer's name.
func (o *LoggingObserver) Name() string {
	return "LoggingObserver"
}

// ShouldHandle accepts everything.
func (o *LoggingObserver) ShouldHandle(string) bool {
	return true
}
