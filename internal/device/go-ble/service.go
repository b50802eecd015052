package goble

import (
	"github.com/go-ble/ble"
	"github.com/srg/granble/internal/device"
)

// BLEService wraps a discovered ble.Service
type BLEService struct {
	svc *ble.Service
}

func (s *BLEService) UUID() string {
	return device.NormalizeUUID(s.svc.UUID.String())
}

// Unwrap returns the underlying go-ble service
func (s *BLEService) Unwrap() *ble.Service {
	return s.svc
}
