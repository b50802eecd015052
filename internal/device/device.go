package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Granboard GATT layout
const (
	// ScoringServiceUUID is the service carrying the board characteristics.
	ScoringServiceUUID = "442f15708a009a28cbe1e1d4212d53eb"
	// ThrowCharacteristicUUID notifies one token per dart or button press.
	ThrowCharacteristicUUID = "442f15718a009a28cbe1e1d4212d53eb"
)

// ButtonDisableValue is written to the button-input characteristic before
// disconnecting to stop the board from reporting button presses.
const ButtonDisableValue byte = 0x02

// NotFoundError represents an error when a GATT resource is not found
type NotFoundError struct {
	Resource string   // "service", "characteristic"
	UUIDs    []string // [serviceUUID] or [serviceUUID, charUUID]
}

func (e *NotFoundError) Error() string {
	if len(e.UUIDs) == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	if len(e.UUIDs) == 1 {
		return fmt.Sprintf("%s %q not found", e.Resource, e.UUIDs[0])
	}
	return fmt.Sprintf("%s %q not found in service %q", e.Resource, e.UUIDs[len(e.UUIDs)-1], e.UUIDs[0])
}

// ConnectionState represents the specific kind of connection state failure
type ConnectionState string

const (
	NotConnected     ConnectionState = "not_connected"
	AlreadyConnected ConnectionState = "already_connected"
	NotInitialized   ConnectionState = "not_initialized"
)

// ConnectionError represents any connection-related problem
type ConnectionError struct {
	State ConnectionState
	Msg   string
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is allows errors.Is to compare ConnectionError values by State
func (e *ConnectionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return e.State == t.State
}

// Predefined sentinel errors for connection states
var (
	ErrNotConnected     = &ConnectionError{State: NotConnected}
	ErrAlreadyConnected = &ConnectionError{State: AlreadyConnected}
	ErrNotInitialized   = &ConnectionError{State: NotInitialized}
)

// Operation errors
var (
	ErrTimeout      = errors.New("timeout")
	ErrBluetoothOff = errors.New("bluetooth is turned off")
	ErrInvalidState = errors.New("invalid state")
)

// NormalizeError maps known transport error strings to the sentinels above.
// The original error is kept in the chain.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "bluetooth is turned off"),
		containsIgnoreCase(msg, "central manager has invalid state"):
		return fmt.Errorf("%w: %v", ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "device not connected"),
		containsIgnoreCase(msg, "disconnected"):
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	case containsIgnoreCase(msg, "device already connected"):
		return fmt.Errorf("%w: %v", ErrAlreadyConnected, err)
	case containsIgnoreCase(msg, "connection is not initialized"):
		return fmt.Errorf("%w: %v", ErrNotInitialized, err)
	case errors.Is(err, context.DeadlineExceeded),
		containsIgnoreCase(msg, "timeout"),
		containsIgnoreCase(msg, "timed out"):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return err
	}
}

// containsIgnoreCase checks substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Advertisement is the part of a BLE advertisement the session cares about.
type Advertisement interface {
	LocalName() string
	Addr() string
	RSSI() int
	Connectable() bool
	Services() []string
}

// Adapter abstracts the BLE radio.
type Adapter interface {
	// Scan reports every advertisement it sees, unfiltered, until ctx is done.
	Scan(ctx context.Context, handler func(Advertisement)) error
	// Dial opens a GATT connection to the peripheral with the given identifier.
	Dial(ctx context.Context, addr string) (Client, error)
}

// Client is a live GATT connection to one peripheral.
type Client interface {
	Addr() string
	// DiscoverServices returns the services matching uuids (all when empty).
	DiscoverServices(uuids []string) ([]Service, error)
	// DiscoverCharacteristics returns the characteristics of svc matching uuids.
	DiscoverCharacteristics(svc Service, uuids []string) ([]Characteristic, error)
	Subscribe(ch Characteristic, handler func(data []byte)) error
	Unsubscribe(ch Characteristic) error
	Write(ch Characteristic, data []byte, withResponse bool) error
	CancelConnection() error
}

// Service is a resolved GATT service handle.
type Service interface {
	UUID() string
}

// Characteristic is a resolved GATT characteristic handle.
type Characteristic interface {
	UUID() string
}
