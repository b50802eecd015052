//go:build !linux

package tinyble

import "github.com/sirupsen/logrus"

type charWriter interface {
	Write(p []byte) (int, error)
	WriteWithoutResponse(p []byte) (int, error)
}

func write(w charWriter, data []byte, withResponse bool, _ *logrus.Logger) error {
	var err error
	if withResponse {
		_, err = w.Write(data)
	} else {
		_, err = w.WriteWithoutResponse(data)
	}
	return err
}
