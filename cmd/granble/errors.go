package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/srg/granble/internal/device"
)

// Command-level errors
var (
	// ErrBoardNotFound means the scan timed out without seeing the target board.
	ErrBoardNotFound = errors.New("board not found")
	// ErrTargetRequired means no board identifier was given on the command line or in the config.
	ErrTargetRequired = errors.New("board identifier required")
)

// FormatUserError turns an error chain into a one-line message with a hint
// for the failures a user can fix.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var notFound *device.NotFoundError
	switch {
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth is turned off; enable it and try again"
	case errors.Is(err, ErrTargetRequired):
		return "no board identifier: pass it as an argument or set target_uuid in the config (run 'granble scan' to find it)"
	case errors.Is(err, ErrBoardNotFound):
		return fmt.Sprintf("%s; is the board switched on and not connected to another device?", err)
	case errors.As(err, &notFound):
		return fmt.Sprintf("the peripheral is not a Granboard: %s %s not found", notFound.Resource, strings.Join(notFound.UUIDs, "/"))
	case errors.Is(err, device.ErrTimeout):
		return fmt.Sprintf("%s; move closer to the board and try again", err)
	default:
		return err.Error()
	}
}
