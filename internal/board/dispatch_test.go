package board

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects callback invocations in order
type recorder struct {
	calls []string
	darts []Dart
}

func (r *recorder) onThrow(d Dart) {
	r.calls = append(r.calls, "throw")
	r.darts = append(r.darts, d)
}

func (r *recorder) onPlayerChange() {
	r.calls = append(r.calls, "player_change")
}

func newTestDispatcher(r *recorder) (*Dispatcher, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewDispatcher(r.onThrow, r.onPlayerChange, logger), hook
}

func TestDecode(t *testing.T) {
	tests := []struct {
		raw  string
		kind EventKind
		dart Dart
	}{
		{"4.0@", EventThrow, Dart{Segment: 25, Multiplier: 2}},
		{"3.4@", EventThrow, Dart{Segment: 20, Multiplier: 3}},
		{"OUT@", EventThrow, Dart{}},
		{"BTN@", EventPlayerChange, Dart{}},
		{"garbage", EventDecodeError, Dart{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ev := Decode([]byte(tt.raw))
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, tt.dart, ev.Dart)
			assert.Equal(t, tt.raw, ev.Raw)
		})
	}
}

func TestDispatchButtonPress(t *testing.T) {
	r := &recorder{}
	d, _ := newTestDispatcher(r)

	ev := d.Dispatch([]byte("BTN@"))

	assert.Equal(t, EventPlayerChange, ev.Kind)
	assert.Equal(t, []string{"player_change"}, r.calls, "button MUST invoke only the player-change callback")
	assert.Empty(t, r.darts)
}

func TestDispatchOutOfBounds(t *testing.T) {
	r := &recorder{}
	d, _ := newTestDispatcher(r)

	d.Dispatch([]byte("OUT@"))

	assert.Equal(t, []string{"throw"}, r.calls, "out-of-bounds MUST invoke the throw callback")
	assert.Equal(t, []Dart{{Segment: 0, Multiplier: 0}}, r.darts)
}

func TestDispatchUnknownToken(t *testing.T) {
	r := &recorder{}
	d, hook := newTestDispatcher(r)

	ev := d.Dispatch([]byte("9.9@"))

	assert.Equal(t, EventDecodeError, ev.Kind)
	assert.Empty(t, r.calls, "unknown token MUST NOT invoke any callback")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "9.9@", entry.Data["raw"], "log MUST identify the offending payload")
}

func TestDispatchSequence(t *testing.T) {
	r := &recorder{}
	d, _ := newTestDispatcher(r)

	for _, tok := range []string{"4.0@", "BTN@", "OUT@"} {
		d.Dispatch([]byte(tok))
	}

	assert.Equal(t, []string{"throw", "player_change", "throw"}, r.calls)
	assert.Equal(t, []Dart{
		{Segment: 25, Multiplier: 2},
		{Segment: 0, Multiplier: 0},
	}, r.darts)
}

func TestDispatchNilCallbacks(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	assert.NotPanics(t, func() {
		d.Dispatch([]byte("4.0@"))
		d.Dispatch([]byte("BTN@"))
		d.Dispatch([]byte("bad"))
	})
}

func TestDispatchRecoversCallbackPanic(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	calls := 0
	d := NewDispatcher(func(Dart) {
		calls++
		if calls == 1 {
			panic("host blew up")
		}
	}, nil, logger)

	assert.NotPanics(t, func() { d.Dispatch([]byte("4.0@")) })
	d.Dispatch([]byte("3.4@"))

	assert.Equal(t, 2, calls, "stream MUST keep flowing after a callback panic")
	var panicked bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Data["panic"] == "host blew up" {
			panicked = true
		}
	}
	assert.True(t, panicked, "callback panic MUST be logged")
}

func TestRunPreservesOrder(t *testing.T) {
	r := &recorder{}
	d, _ := newTestDispatcher(r)

	in := make(chan []byte, 8)
	tokens := []string{"4.0@", "BTN@", "bad", "3.4@", "OUT@", "BTN@"}
	for _, tok := range tokens {
		in <- []byte(tok)
	}
	close(in)

	done := make(chan struct{})
	go func() {
		d.Run(context.Background(), in)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run MUST return once the stream is closed")
	}

	assert.Equal(t, []string{"throw", "player_change", "throw", "throw", "player_change"}, r.calls)
	assert.Equal(t, []Dart{
		{Segment: 25, Multiplier: 2},
		{Segment: 20, Multiplier: 3},
		{Segment: 0, Multiplier: 0},
	}, r.darts)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		d.Run(ctx, make(chan []byte))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run MUST return when the context is cancelled")
	}
}

func TestRunFlushesBufferedOnCancel(t *testing.T) {
	r := &recorder{}
	d, _ := newTestDispatcher(r)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := make(chan []byte, 4)
	in <- []byte("4.0@")
	in <- []byte("BTN@")

	d.Run(ctx, in)

	assert.Equal(t, []string{"throw", "player_change"}, r.calls, "buffered payloads MUST NOT be dropped on cancel")
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "throw", EventThrow.String())
	assert.Equal(t, "player_change", EventPlayerChange.String())
	assert.Equal(t, "decode_error", EventDecodeError.String())
}
