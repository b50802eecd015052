package session

import (
	"context"

	"github.com/srg/granble/internal/device"
)

// Peripheral is the board as seen during discovery.
type Peripheral struct {
	ID   string
	Name string
	RSSI int
}

func newPeripheral(adv device.Advertisement) *Peripheral {
	return &Peripheral{
		ID:   adv.Addr(),
		Name: adv.LocalName(),
		RSSI: adv.RSSI(),
	}
}

func (p *Peripheral) String() string {
	if p.Name == "" {
		return p.ID
	}
	return p.Name + " (" + p.ID + ")"
}

// Session is the mutable state bound to one peripheral. It is owned by the
// Machine; nothing outside this package mutates it.
type Session struct {
	target       string
	onDiscover   func(*Peripheral)
	peripheral   *Peripheral
	buttonNumber int

	client       device.Client
	service      device.Service
	throwChar    device.Characteristic
	buttonChar   device.Characteristic
	subscription *subscription
}

// discovering reports whether a discovery handler is registered.
func (s *Session) discovering() bool {
	return s.onDiscover != nil
}

// subscription is the live notification handle. Payloads flow through an
// ordered channel to a single dispatcher goroutine. The channel is never
// closed; ending the stream cancels ctx instead, so a producer blocked on a
// full buffer is released rather than waited for.
type subscription struct {
	char device.Characteristic

	ch     chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newSubscription(char device.Characteristic, buffer int) *subscription {
	if buffer <= 0 {
		buffer = DefaultNotificationBuffer
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &subscription{
		char:   char,
		ch:     make(chan []byte, buffer),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// deliver enqueues a payload; it blocks while the buffer is full so no
// notification is dropped. Returns false once the stream is closed.
func (s *subscription) deliver(data []byte) bool {
	if s.ctx.Err() != nil {
		return false
	}
	select {
	case s.ch <- data:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// close ends the stream without waiting for in-flight deliveries; the
// dispatcher flushes what is buffered and exits.
func (s *subscription) close() {
	s.cancel()
}
