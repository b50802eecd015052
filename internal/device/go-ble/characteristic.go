package goble

import (
	"github.com/go-ble/ble"
	"github.com/srg/granble/internal/device"
)

// BLECharacteristic wraps a discovered ble.Characteristic
type BLECharacteristic struct {
	char *ble.Characteristic
}

func (c *BLECharacteristic) UUID() string {
	return device.NormalizeUUID(c.char.UUID.String())
}

// CanNotify reports whether the characteristic supports notify or indicate.
func (c *BLECharacteristic) CanNotify() bool {
	return c.char.Property&ble.CharNotify != 0 || c.char.Property&ble.CharIndicate != 0
}

// Unwrap returns the underlying go-ble characteristic
func (c *BLECharacteristic) Unwrap() *ble.Characteristic {
	return c.char
}
