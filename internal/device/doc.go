// Package device defines the boundary between the dartboard session logic and
// the Bluetooth Low Energy transport.
//
// The session layer never talks to a radio directly. It drives an Adapter
// (scan, dial) and the Client it returns (service and characteristic
// discovery, subscribe, unsubscribe, write, disconnect). The go-ble and
// tinygo-ble subpackages implement it on real radios; tests use the testify
// mocks in internal/testutils/mocks.
package device
