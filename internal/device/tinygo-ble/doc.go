// Package tinyble implements the device adapter boundary with
// tinygo.org/x/bluetooth, an alternative to the go-ble backend that talks to
// BlueZ over D-Bus on Linux instead of raw HCI sockets.
package tinyble
