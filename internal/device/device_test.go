package device_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/srg/granble/internal/device"
	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name string
		err  *device.NotFoundError
		want string
	}{
		{
			name: "resource only",
			err:  &device.NotFoundError{Resource: "service"},
			want: "service not found",
		},
		{
			name: "service",
			err:  &device.NotFoundError{Resource: "service", UUIDs: []string{device.ScoringServiceUUID}},
			want: `service "442f15708a009a28cbe1e1d4212d53eb" not found`,
		},
		{
			name: "characteristic in service",
			err: &device.NotFoundError{
				Resource: "characteristic",
				UUIDs:    []string{device.ScoringServiceUUID, device.ThrowCharacteristicUUID},
			},
			want: `characteristic "442f15718a009a28cbe1e1d4212d53eb" not found in service "442f15708a009a28cbe1e1d4212d53eb"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestConnectionError(t *testing.T) {
	t.Run("errors.Is compares by state", func(t *testing.T) {
		err := &device.ConnectionError{State: device.NotConnected, Msg: "link lost"}
		assert.ErrorIs(t, err, device.ErrNotConnected)
		assert.NotErrorIs(t, err, device.ErrAlreadyConnected)
		assert.Equal(t, "not_connected: link lost", err.Error())
	})

	t.Run("nil receiver", func(t *testing.T) {
		var err *device.ConnectionError
		assert.Equal(t, "<nil>", err.Error())
		assert.False(t, err.Is(device.ErrNotConnected))
	})

}

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name   string
		input  error
		target error
	}{
		{"bluetooth off", errors.New("Bluetooth is turned off"), device.ErrBluetoothOff},
		{"central manager state", errors.New("central manager has invalid state: have=4 want=5: is Bluetooth turned on?"), device.ErrBluetoothOff},
		{"not connected", errors.New("device not connected"), device.ErrNotConnected},
		{"disconnected", errors.New("peripheral disconnected"), device.ErrNotConnected},
		{"already connected", errors.New("device already connected"), device.ErrAlreadyConnected},
		{"not initialized", errors.New("connection is not initialized"), device.ErrNotInitialized},
		{"att timeout", errors.New("ATT request timeout"), device.ErrTimeout},
		{"hci timed out", errors.New("hci: command timed out"), device.ErrTimeout},
		{"deadline", fmt.Errorf("dial: %w", context.DeadlineExceeded), device.ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := device.NormalizeError(tt.input)
			assert.ErrorIs(t, got, tt.target)
			assert.Contains(t, got.Error(), tt.input.Error(), "original message MUST be preserved")
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, device.NormalizeError(nil))
	})

	t.Run("deadline stays in the chain", func(t *testing.T) {
		got := device.NormalizeError(context.DeadlineExceeded)
		assert.ErrorIs(t, got, device.ErrTimeout)
		assert.ErrorIs(t, got, context.DeadlineExceeded)
	})

	t.Run("unknown errors pass through", func(t *testing.T) {
		orig := errors.New("att: insufficient authentication")
		assert.Same(t, orig, device.NormalizeError(orig))
	})
}
