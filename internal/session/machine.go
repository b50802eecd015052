package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/granble/internal/board"
	"github.com/srg/granble/internal/device"
	"github.com/srg/granble/internal/groutine"
)

// DefaultNotificationBuffer is the default depth of the notification stream
const DefaultNotificationBuffer = 128

// ErrTornDown is returned by Initialize when a disconnect ran between stages.
var ErrTornDown = errors.New("session torn down during initialization")

// Options tune the state machine.
type Options struct {
	// ButtonCharacteristicUUID names the optional button-input characteristic
	// that receives the disable byte on disconnect. Empty disables it.
	ButtonCharacteristicUUID string
	// StrictErrors turns every adapter error into a Failed transition.
	// By default errors are logged and the next stage runs anyway.
	StrictErrors bool
	// NotificationBuffer is the depth of the ordered notification stream.
	NotificationBuffer int
}

// Machine drives one board session through
// scan → discover → connect → resolve → subscribe → stream → disconnect.
//
// Transitions are serialized: stageMu is held for the duration of each
// adapter call, so a disconnect waits for the stage in flight. mu only
// guards fields and is never held across adapter calls.
type Machine struct {
	adapter device.Adapter
	opts    Options
	logger  *logrus.Logger

	stageMu sync.Mutex

	mu         sync.Mutex
	state      State
	failure    error
	sess       *Session
	scanCancel context.CancelFunc
	scanDone   chan struct{}
	done       chan struct{}
}

// NewMachine creates an idle machine bound to adapter.
func NewMachine(adapter device.Adapter, opts Options, logger *logrus.Logger) *Machine {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.NotificationBuffer <= 0 {
		opts.NotificationBuffer = DefaultNotificationBuffer
	}
	return &Machine{
		adapter: adapter,
		opts:    opts,
		logger:  logger,
		state:   Idle,
		sess:    &Session{},
		done:    make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Failure returns the reason of a Failed transition, nil otherwise.
func (m *Machine) Failure() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failure
}

// Done is closed once the session reaches Disconnected or Failed.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Peripheral returns the matched peripheral, nil before discovery or after teardown.
func (m *Machine) Peripheral() *Peripheral {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil
	}
	return m.sess.peripheral
}

// HasPeripheral reports whether a peripheral handle is owned.
// It never waits for an adapter call.
func (m *Machine) HasPeripheral() bool {
	return m.Peripheral() != nil
}

// Subscribed reports whether a throw-notification subscription is live.
func (m *Machine) Subscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess != nil && m.sess.subscription != nil
}

// ButtonNumber returns the number printed next to the board button.
func (m *Machine) ButtonNumber() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return 0
	}
	return m.sess.buttonNumber
}

// setState must be called with mu held.
func (m *Machine) setState(s State) {
	if m.state == s {
		return
	}
	m.logger.WithFields(logrus.Fields{
		"from": m.state.String(),
		"to":   s.String(),
	}).Debug("Session state changed")
	m.state = s
	if s.Terminal() {
		close(m.done)
	}
}

// StartScan begins passive discovery. Every advertisement reported by the
// adapter goes to the discovery handler registered by Connect.
func (m *Machine) StartScan(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Idle {
		return fmt.Errorf("%w: cannot scan while %s", device.ErrInvalidState, m.state)
	}

	scanCtx, cancel := context.WithCancel(ctx)
	m.scanCancel = cancel
	m.scanDone = make(chan struct{})
	scanDone := m.scanDone
	m.setState(Scanning)

	m.logger.Debug("Started scanning for board")
	groutine.Go(scanCtx, "board-scan", func(ctx context.Context) {
		defer close(scanDone)
		if err := m.adapter.Scan(ctx, m.handleAdvertisement); err != nil {
			m.scanFailed(err)
		}
	})
	return nil
}

func (m *Machine) scanFailed(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.WithField("error", err).Error("BLE scan failed")
	if m.state == Scanning {
		m.failure = fmt.Errorf("scan: %w", err)
		m.setState(Failed)
	}
}

// stopScan must be called with mu held.
func (m *Machine) stopScan() {
	if m.scanCancel != nil {
		m.scanCancel()
		m.scanCancel = nil
	}
}

// Connect registers the discovery handler for target. Advertisements from
// other peripherals are ignored. On the first match scanning stops, the
// peripheral is retained and onDiscover runs exactly once.
func (m *Machine) Connect(target string, onDiscover func(*Peripheral)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Idle && m.state != Scanning {
		return fmt.Errorf("%w: cannot connect while %s", device.ErrInvalidState, m.state)
	}
	if onDiscover == nil {
		onDiscover = func(*Peripheral) {}
	}
	m.sess.target = device.NormalizeID(target)
	m.sess.onDiscover = onDiscover
	m.logger.WithField("uuid", target).Debug("Waiting for board advertisement")
	return nil
}

func (m *Machine) handleAdvertisement(adv device.Advertisement) {
	m.mu.Lock()
	if m.sess == nil || !m.sess.discovering() || m.state != Scanning {
		m.mu.Unlock()
		return
	}
	if device.NormalizeID(adv.Addr()) != m.sess.target {
		m.mu.Unlock()
		return
	}

	m.setState(Discovering)
	p := newPeripheral(adv)
	onDiscover := m.sess.onDiscover
	m.sess.onDiscover = nil
	m.sess.peripheral = p
	m.stopScan()
	m.setState(Connecting)
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"uuid": p.ID,
		"name": p.Name,
		"rssi": p.RSSI,
	}).Info("Found device, stopped scanning")
	onDiscover(p)
}

// Initialize connects to p and subscribes to throw notifications. Decoded
// throws go to onThrow and button presses to onPlayerChange, in the order
// the board sends them.
//
// Adapter errors are logged and the next stage runs anyway unless
// StrictErrors is set. A stage that yields nothing to continue with (no
// connection, no service, no characteristic) fails the session.
func (m *Machine) Initialize(ctx context.Context, p *Peripheral, buttonNumber int, onThrow board.ThrowFunc, onPlayerChange board.PlayerChangeFunc) error {
	if p == nil {
		return fmt.Errorf("%w: no peripheral", device.ErrInvalidState)
	}

	m.mu.Lock()
	if m.state != Idle && m.state != Connecting {
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: cannot initialize while %s", device.ErrInvalidState, state)
	}
	m.sess.peripheral = p
	m.sess.buttonNumber = buttonNumber
	m.setState(Connecting)
	m.mu.Unlock()

	log := m.logger.WithFields(logrus.Fields{"uuid": p.ID, "button": buttonNumber})

	stages := []struct {
		from State
		run  func() error
	}{
		{Connecting, func() error { return m.connect(ctx, p, log) }},
		{ResolvingServices, func() error { return m.resolveService(log) }},
		{ResolvingCharacteristics, func() error { return m.resolveCharacteristics(log) }},
		{Subscribing, func() error { return m.subscribe(onThrow, onPlayerChange, log) }},
	}
	for _, stage := range stages {
		if err := m.runStage(stage.from, stage.run); err != nil {
			return err
		}
	}
	return nil
}

// runStage runs one stage under stageMu once the machine is still in from.
func (m *Machine) runStage(from State, run func() error) error {
	m.stageMu.Lock()
	defer m.stageMu.Unlock()

	if s := m.State(); s != from {
		if s == Failed {
			return m.Failure()
		}
		return fmt.Errorf("%w (state %s)", ErrTornDown, s)
	}
	return run()
}

// adapterError logs err and reports whether the stage must fail.
func (m *Machine) adapterError(log *logrus.Entry, stage string, err error) bool {
	if err == nil {
		return false
	}
	log.WithFields(logrus.Fields{"stage": stage, "error": err}).Error("Adapter reported an error")
	return m.opts.StrictErrors
}

func (m *Machine) connect(ctx context.Context, p *Peripheral, log *logrus.Entry) error {
	client, err := m.adapter.Dial(ctx, p.ID)
	if client == nil {
		if err == nil {
			err = device.ErrNotConnected
		}
		return m.fail("connect", err, log)
	}
	if m.adapterError(log, "connect", err) {
		m.withSession(func(s *Session) { s.client = client })
		return m.fail("connect", err, log)
	}

	log.WithField("name", p.Name).Infof("Connected to %s", p)
	return m.advance(ResolvingServices, func(s *Session) { s.client = client })
}

func (m *Machine) resolveService(log *logrus.Entry) error {
	client := m.client()
	svcs, err := client.DiscoverServices([]string{device.ScoringServiceUUID})
	if m.adapterError(log, "discover_services", err) {
		return m.fail("discover services", err, log)
	}
	if len(svcs) == 0 {
		return m.fail("discover services", &device.NotFoundError{
			Resource: "service",
			UUIDs:    []string{device.ScoringServiceUUID},
		}, log)
	}

	svc := svcs[0]
	log.WithField("service_uuid", svc.UUID()).Debug("Scoring service resolved")
	return m.advance(ResolvingCharacteristics, func(s *Session) { s.service = svc })
}

func (m *Machine) resolveCharacteristics(log *logrus.Entry) error {
	client := m.client()
	m.mu.Lock()
	svc := m.sess.service
	m.mu.Unlock()

	chars, err := client.DiscoverCharacteristics(svc, []string{device.ThrowCharacteristicUUID})
	if m.adapterError(log, "discover_characteristics", err) {
		return m.fail("discover characteristics", err, log)
	}
	if len(chars) == 0 {
		return m.fail("discover characteristics", &device.NotFoundError{
			Resource: "characteristic",
			UUIDs:    []string{device.ScoringServiceUUID, device.ThrowCharacteristicUUID},
		}, log)
	}
	throwChar := chars[0]

	var buttonChar device.Characteristic
	if m.opts.ButtonCharacteristicUUID != "" {
		buttons, err := client.DiscoverCharacteristics(svc, []string{m.opts.ButtonCharacteristicUUID})
		if m.adapterError(log, "discover_button_characteristic", err) {
			return m.fail("discover button characteristic", err, log)
		}
		if len(buttons) > 0 {
			buttonChar = buttons[0]
		} else {
			log.WithField("char_uuid", m.opts.ButtonCharacteristicUUID).Warn("Button characteristic not found")
		}
	}

	log.WithField("char_uuid", throwChar.UUID()).Debug("Throw characteristic resolved")
	return m.advance(Subscribing, func(s *Session) {
		s.throwChar = throwChar
		s.buttonChar = buttonChar
	})
}

func (m *Machine) subscribe(onThrow board.ThrowFunc, onPlayerChange board.PlayerChangeFunc, log *logrus.Entry) error {
	client := m.client()
	m.mu.Lock()
	throwChar := m.sess.throwChar
	m.mu.Unlock()

	sub := newSubscription(throwChar, m.opts.NotificationBuffer)
	dispatcher := board.NewDispatcher(onThrow, onPlayerChange, m.logger)
	groutine.Go(sub.ctx, "board-dispatch", func(ctx context.Context) {
		defer close(sub.done)
		defer m.logger.Debugf("%s: exiting", groutine.Name(ctx))
		dispatcher.Run(ctx, sub.ch)
	})

	err := client.Subscribe(throwChar, func(data []byte) {
		payload := make([]byte, len(data))
		copy(payload, data)
		if !sub.deliver(payload) {
			m.logger.WithField("raw", string(payload)).Debug("Notification after unsubscribe dropped")
		}
	})
	if m.adapterError(log, "subscribe", err) {
		sub.close()
		<-sub.done
		return m.fail("subscribe", err, log)
	}

	log.Info("Subscribed to throw notifications")
	if err := m.advance(Active, func(s *Session) { s.subscription = sub }); err != nil {
		sub.close()
		return err
	}
	return nil
}

// advance applies update and moves to next unless a teardown won the race.
func (m *Machine) advance(next State, update func(*Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil || m.state.Terminal() || m.state == Disconnecting {
		return fmt.Errorf("%w (state %s)", ErrTornDown, m.state)
	}
	update(m.sess)
	m.setState(next)
	return nil
}

func (m *Machine) withSession(update func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess != nil {
		update(m.sess)
	}
}

func (m *Machine) client() device.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil
	}
	return m.sess.client
}

// fail moves the session to Failed and releases the connection, if any.
// Called with stageMu held.
func (m *Machine) fail(stage string, cause error, log *logrus.Entry) error {
	err := fmt.Errorf("%s: %w", stage, cause)

	m.mu.Lock()
	client := m.sess.client
	m.failure = err
	m.stopScan()
	m.setState(Failed)
	m.mu.Unlock()

	log.WithField("error", err).Error("Session failed")
	if client != nil {
		if cerr := client.CancelConnection(); cerr != nil {
			log.WithField("error", cerr).Warn("Failed to cancel connection of failed session")
		}
	}
	return err
}

// Disconnect tears the session down: the discovery handler is removed,
// throw notifications are unsubscribed, the button characteristic receives
// the disable byte and the connection is cancelled. Steps that have no
// handle are skipped. Adapter errors are logged only. onDisconnected runs
// once teardown is complete.
func (m *Machine) Disconnect(ctx context.Context, onDisconnected func()) error {
	m.stageMu.Lock()
	defer m.stageMu.Unlock()

	m.mu.Lock()
	if m.state.Terminal() {
		m.sess = nil
		m.mu.Unlock()
		if onDisconnected != nil {
			onDisconnected()
		}
		return nil
	}

	m.logger.Debug("Removing discovery callback")
	m.sess.onDiscover = nil
	m.stopScan()
	scanDone := m.scanDone
	sess := m.sess
	m.setState(Disconnecting)
	m.mu.Unlock()

	log := m.logger.WithField("state", Disconnecting.String())
	if sess.peripheral != nil {
		log = log.WithField("uuid", sess.peripheral.ID)
	}

	if scanDone != nil {
		select {
		case <-scanDone:
		case <-ctx.Done():
			log.Warn("Scan did not stop before disconnect deadline")
		}
	}

	client := sess.client
	if client != nil && sess.subscription != nil {
		if err := client.Unsubscribe(sess.subscription.char); err != nil {
			log.WithField("error", err).Error("Failed to unsubscribe from throw notifications")
		} else {
			log.Debug("Unsubscribed from throw notifications")
		}
	}
	if client != nil && sess.subscription != nil && sess.buttonChar != nil {
		if err := client.Write(sess.buttonChar, []byte{device.ButtonDisableValue}, true); err != nil {
			log.WithField("error", err).Error("Failed to disable button characteristic")
		} else {
			log.WithField("char_uuid", sess.buttonChar.UUID()).Debug("Disabled listening on button characteristic")
		}
	}
	if client != nil {
		if err := client.CancelConnection(); err != nil {
			log.WithField("error", err).Error("Failed to disconnect")
		} else if sess.peripheral != nil {
			log.Infof("Disconnected from %s", sess.peripheral.Name)
		}
	}

	if sess.subscription != nil {
		sess.subscription.close()
		select {
		case <-sess.subscription.done:
		case <-ctx.Done():
			log.Warn("Notification stream did not drain before disconnect deadline")
		}
	}

	m.mu.Lock()
	m.sess = nil
	m.setState(Disconnected)
	m.mu.Unlock()

	if onDisconnected != nil {
		onDisconnected()
	}
	return nil
}
