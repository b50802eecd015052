package tinyble

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/srg/granble/internal/device"
	"tinygo.org/x/bluetooth"
)

// Client implements device.Client over a connected tinygo device.
type Client struct {
	dev    *bluetooth.Device
	addr   string
	logger *logrus.Logger
}

func (c *Client) Addr() string {
	return c.addr
}

func (c *Client) DiscoverServices(uuids []string) ([]device.Service, error) {
	filter, err := parseUUIDs(uuids)
	if err != nil {
		return nil, err
	}
	svcs, err := c.dev.DiscoverServices(filter)
	result := make([]device.Service, 0, len(svcs))
	for i := range svcs {
		result = append(result, &Service{svc: svcs[i]})
	}
	return result, device.NormalizeError(err)
}

func (c *Client) DiscoverCharacteristics(svc device.Service, uuids []string) ([]device.Characteristic, error) {
	s, ok := svc.(*Service)
	if !ok {
		return nil, fmt.Errorf("service %s was not discovered by this client", svc.UUID())
	}
	filter, err := parseUUIDs(uuids)
	if err != nil {
		return nil, err
	}
	chars, err := s.svc.DiscoverCharacteristics(filter)
	result := make([]device.Characteristic, 0, len(chars))
	for i := range chars {
		result = append(result, &Characteristic{char: chars[i]})
	}
	return result, device.NormalizeError(err)
}

func (c *Client) Subscribe(ch device.Characteristic, handler func([]byte)) error {
	char, err := c.characteristic(ch)
	if err != nil {
		return err
	}
	return device.NormalizeError(char.char.EnableNotifications(handler))
}

// Unsubscribe disables notifications by clearing the handler.
func (c *Client) Unsubscribe(ch device.Characteristic) error {
	char, err := c.characteristic(ch)
	if err != nil {
		return err
	}
	return device.NormalizeError(char.char.EnableNotifications(nil))
}

func (c *Client) Write(ch device.Characteristic, data []byte, withResponse bool) error {
	char, err := c.characteristic(ch)
	if err != nil {
		return err
	}
	return device.NormalizeError(write(char.char, data, withResponse, c.logger))
}

func (c *Client) CancelConnection() error {
	c.logger.WithField("address", c.addr).Debug("Cancelling BLE connection")
	return device.NormalizeError(c.dev.Disconnect())
}

func (c *Client) characteristic(ch device.Characteristic) (*Characteristic, error) {
	char, ok := ch.(*Characteristic)
	if !ok {
		return nil, fmt.Errorf("characteristic %s was not discovered by this client", ch.UUID())
	}
	return char, nil
}

// Service wraps a discovered tinygo service.
type Service struct {
	svc bluetooth.DeviceService
}

func (s *Service) UUID() string {
	return device.NormalizeUUID(s.svc.UUID().String())
}

// Characteristic wraps a discovered tinygo characteristic.
type Characteristic struct {
	char bluetooth.DeviceCharacteristic
}

func (c *Characteristic) UUID() string {
	return device.NormalizeUUID(c.char.UUID().String())
}

// bluetoothBase is the Bluetooth SIG base UUID minus its leading 32 bits.
const bluetoothBase = "-0000-1000-8000-00805f9b34fb"

// canonicalUUID expands a 16, 32 or 128 bit UUID to the dashed 128-bit form.
func canonicalUUID(uuid string) (string, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(uuid)), "-", "")
	n = strings.TrimPrefix(n, "0x")
	switch len(n) {
	case 4:
		return "0000" + n + bluetoothBase, nil
	case 8:
		return n + bluetoothBase, nil
	case 32:
		return n[0:8] + "-" + n[8:12] + "-" + n[12:16] + "-" + n[16:20] + "-" + n[20:], nil
	default:
		return "", fmt.Errorf("invalid UUID %q", uuid)
	}
}

func parseUUIDs(uuids []string) ([]bluetooth.UUID, error) {
	if len(uuids) == 0 {
		return nil, nil
	}
	result := make([]bluetooth.UUID, 0, len(uuids))
	for _, u := range uuids {
		s, err := canonicalUUID(u)
		if err != nil {
			return nil, err
		}
		parsed, err := bluetooth.ParseUUID(s)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID %q: %w", u, err)
		}
		result = append(result, parsed)
	}
	return result, nil
}
