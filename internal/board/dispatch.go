package board

import (
	"context"

	"github.com/sirupsen/logrus"
)

// EventKind is the outward classification of a notification.
type EventKind int

const (
	EventDecodeError EventKind = iota
	EventThrow
	EventPlayerChange
)

func (k EventKind) String() string {
	switch k {
	case EventThrow:
		return "throw"
	case EventPlayerChange:
		return "player_change"
	default:
		return "decode_error"
	}
}

// Event is one decoded notification.
type Event struct {
	Kind  EventKind
	Dart  Dart       // set for EventThrow
	Value ScoreValue // the translated value
	Raw   string     // payload as received
}

// Decode turns a notification payload into an Event.
func Decode(raw []byte) Event {
	value := TranslatePayload(raw)
	ev := Event{Value: value, Raw: string(raw)}

	switch value.Kind {
	case KindButtonPress:
		ev.Kind = EventPlayerChange
	case KindUnknown:
		ev.Kind = EventDecodeError
	default:
		ev.Dart, _ = value.Dart()
		ev.Kind = EventThrow
	}
	return ev
}

// ThrowFunc receives every decoded dart.
type ThrowFunc func(Dart)

// PlayerChangeFunc is called for every button press.
type PlayerChangeFunc func()

// Dispatcher routes decoded notifications to the host callbacks.
// It keeps no state between payloads.
type Dispatcher struct {
	onThrow        ThrowFunc
	onPlayerChange PlayerChangeFunc
	logger         *logrus.Logger
}

// NewDispatcher creates a dispatcher; nil callbacks are skipped.
func NewDispatcher(onThrow ThrowFunc, onPlayerChange PlayerChangeFunc, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{
		onThrow:        onThrow,
		onPlayerChange: onPlayerChange,
		logger:         logger,
	}
}

// Dispatch decodes one payload and invokes the matching callback.
// Unknown tokens are logged and dropped.
func (d *Dispatcher) Dispatch(raw []byte) Event {
	ev := Decode(raw)

	switch ev.Kind {
	case EventPlayerChange:
		d.logger.WithField("token", ev.Raw).Debug("Player change button pressed")
		if d.onPlayerChange != nil {
			d.invoke(ev, func() { d.onPlayerChange() })
		}
	case EventThrow:
		d.logger.WithFields(logrus.Fields{
			"token":      ev.Raw,
			"segment":    ev.Dart.Segment,
			"multiplier": ev.Dart.Multiplier,
		}).Debug("Dart thrown")
		if d.onThrow != nil {
			d.invoke(ev, func() { d.onThrow(ev.Dart) })
		}
	default:
		d.logger.WithField("raw", ev.Raw).Warnf("Message from board could not be translated: %q", ev.Raw)
	}
	return ev
}

// Run dispatches payloads from in, in order, until in is closed or ctx is
// done. Payloads already buffered in in when ctx ends are still dispatched.
func (d *Dispatcher) Run(ctx context.Context, in <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			d.flush(in)
			return
		case raw, ok := <-in:
			if !ok {
				return
			}
			d.Dispatch(raw)
		}
	}
}

func (d *Dispatcher) flush(in <-chan []byte) {
	for {
		select {
		case raw, ok := <-in:
			if !ok {
				return
			}
			d.Dispatch(raw)
		default:
			return
		}
	}
}

// invoke runs a host callback; a panicking callback must not stop the stream.
func (d *Dispatcher) invoke(ev Event, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithFields(logrus.Fields{
				"panic": r,
				"event": ev.Kind.String(),
				"token": ev.Raw,
			}).Error("Board event callback panicked")
		}
	}()
	fn()
}
