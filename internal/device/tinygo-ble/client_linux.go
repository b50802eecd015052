package tinyble

import "github.com/sirupsen/logrus"

// charWriter is the write surface of a BlueZ characteristic. BlueZ through
// tinygo only exposes the command (no response) form.
type charWriter interface {
	WriteWithoutResponse(p []byte) (int, error)
}

// write falls back to a write command when a response was asked for.
func write(w charWriter, data []byte, withResponse bool, logger *logrus.Logger) error {
	if withResponse {
		logger.WithField("bytes", len(data)).Debug("Write with response is not supported by BlueZ backend, sending write command")
	}
	_, err := w.WriteWithoutResponse(data)
	return err
}
