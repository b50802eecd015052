package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/granble/internal/device"
)

// Adapter implements device.Adapter on top of a go-ble device.
// The underlying ble.Device is created on first use and shared by every
// scan and dial.
type Adapter struct {
	logger *logrus.Logger

	mu  sync.Mutex
	dev ble.Device
}

// NewAdapter creates an adapter; no radio is touched until the first call.
func NewAdapter(logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Adapter{logger: logger}
}

func (a *Adapter) device() (ble.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev != nil {
		return a.dev, nil
	}
	dev, err := DeviceFactory()
	if err != nil {
		a.logger.WithField("error", err).Error("Failed to create BLE device")
		return nil, fmt.Errorf("failed to create BLE device: %w", err)
	}
	a.dev = dev
	return dev, nil
}

// Scan wraps ble.Device.Scan and converts each ble.Advertisement to a
// device.Advertisement. Duplicates are reported; filtering is up to the caller.
// Cancellation of ctx is a normal end of scan and returns nil.
func (a *Adapter) Scan(ctx context.Context, handler func(device.Advertisement)) error {
	dev, err := a.device()
	if err != nil {
		return err
	}

	a.logger.Debug("Starting BLE scan")
	err = dev.Scan(ctx, true, func(adv ble.Advertisement) {
		handler(NewBLEAdvertisement(adv))
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("scan failed: %w", NormalizeError(err))
	}
	a.logger.Debug("BLE scan stopped")
	return nil
}

// Dial opens a GATT connection to the peripheral identified by addr.
func (a *Adapter) Dial(ctx context.Context, addr string) (device.Client, error) {
	dev, err := a.device()
	if err != nil {
		return nil, err
	}

	a.logger.WithField("address", addr).Debug("Dialing BLE device...")
	client, err := dev.Dial(ctx, ble.NewAddr(addr))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to device with address %q: %w", addr, NormalizeError(err))
	}
	return &Client{client: client, logger: a.logger}, nil
}

// Close releases the radio. Safe to call when nothing was opened.
func (a *Adapter) Close() error {
	a.mu.Lock()
	dev := a.dev
	a.dev = nil
	a.mu.Unlock()

	if dev == nil {
		return nil
	}
	return NormalizeError(dev.Stop())
}
