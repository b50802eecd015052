package tinyble

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/granble/internal/device"
	"tinygo.org/x/bluetooth"
)

// Adapter implements device.Adapter on top of tinygo.org/x/bluetooth.
// On macOS peripheral identifiers are CoreBluetooth UUIDs, on Linux MAC addresses.
type Adapter struct {
	adapter *bluetooth.Adapter
	logger  *logrus.Logger

	mu      sync.Mutex
	enabled bool
}

// NewAdapter uses the system default adapter; it is enabled on first use.
func NewAdapter(logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Adapter{adapter: bluetooth.DefaultAdapter, logger: logger}
}

func (a *Adapter) enable() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled {
		return nil
	}
	if err := a.adapter.Enable(); err != nil {
		return fmt.Errorf("failed to enable BLE adapter: %w", device.NormalizeError(err))
	}
	a.enabled = true
	return nil
}

// Scan blocks until ctx is done; cancellation returns nil.
func (a *Adapter) Scan(ctx context.Context, handler func(device.Advertisement)) error {
	if err := a.enable(); err != nil {
		return err
	}

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if err := a.adapter.StopScan(); err != nil {
				a.logger.WithField("error", err).Warn("Failed to stop BLE scan")
			}
		case <-stopped:
		}
	}()

	a.logger.Debug("Starting BLE scan")
	err := a.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		handler(advertisement{
			name: result.LocalName(),
			addr: result.Address.String(),
			rssi: int(result.RSSI),
		})
	})
	close(stopped)

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("scan failed: %w", device.NormalizeError(err))
	}
	a.logger.Debug("BLE scan stopped")
	return nil
}

// Dial connects to addr. The underlying connect cannot be cancelled; when ctx
// ends first the pending connection is abandoned.
func (a *Adapter) Dial(ctx context.Context, addr string) (device.Client, error) {
	if err := a.enable(); err != nil {
		return nil, err
	}

	var target bluetooth.Address
	target.Set(addr)

	type result struct {
		dev bluetooth.Device
		err error
	}
	ch := make(chan result, 1)
	go func() {
		dev, err := a.adapter.Connect(target, bluetooth.ConnectionParams{})
		ch <- result{dev, err}
	}()

	a.logger.WithField("address", addr).Debug("Dialing BLE device...")
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to connect to device with address %q: %w", addr, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("failed to connect to device with address %q: %w", addr, device.NormalizeError(r.err))
		}
		dev := r.dev
		return &Client{dev: &dev, addr: addr, logger: a.logger}, nil
	}
}

var _ device.Adapter = (*Adapter)(nil)

type advertisement struct {
	name string
	addr string
	rssi int
}

func (a advertisement) LocalName() string  { return a.name }
func (a advertisement) Addr() string       { return a.addr }
func (a advertisement) RSSI() int          { return a.rssi }
func (a advertisement) Connectable() bool  { return true }
func (a advertisement) Services() []string { return nil }
