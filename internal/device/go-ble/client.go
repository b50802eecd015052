package goble

import (
	"fmt"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/granble/internal/device"
)

// Client implements device.Client over a go-ble client
type Client struct {
	client ble.Client
	logger *logrus.Logger
}

// NewClient wraps an already connected ble.Client
func NewClient(client ble.Client, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{client: client, logger: logger}
}

func (c *Client) Addr() string {
	if c.client.Addr() == nil {
		return ""
	}
	return c.client.Addr().String()
}

func (c *Client) DiscoverServices(uuids []string) ([]device.Service, error) {
	filter, err := parseUUIDs(uuids)
	if err != nil {
		return nil, err
	}

	svcs, err := c.client.DiscoverServices(filter)
	result := make([]device.Service, 0, len(svcs))
	for _, s := range svcs {
		result = append(result, &BLEService{svc: s})
	}
	return result, NormalizeError(err)
}

func (c *Client) DiscoverCharacteristics(svc device.Service, uuids []string) ([]device.Characteristic, error) {
	bs, ok := svc.(*BLEService)
	if !ok || bs.svc == nil {
		return nil, fmt.Errorf("service %s was not discovered by this client", svc.UUID())
	}
	filter, err := parseUUIDs(uuids)
	if err != nil {
		return nil, err
	}

	chars, err := c.client.DiscoverCharacteristics(filter, bs.svc)
	result := make([]device.Characteristic, 0, len(chars))
	for _, ch := range chars {
		result = append(result, &BLECharacteristic{char: ch})
	}
	return result, NormalizeError(err)
}

// Subscribe enables notifications on ch. Descriptors are discovered first:
// BlueZ needs the CCCD handle before it can enable notifications.
func (c *Client) Subscribe(ch device.Characteristic, handler func(data []byte)) error {
	bc, err := unwrapCharacteristic(ch)
	if err != nil {
		return err
	}

	if bc.CCCD == nil {
		if _, err := c.client.DiscoverDescriptors(nil, bc); err != nil {
			c.logger.WithFields(logrus.Fields{
				"char_uuid": ch.UUID(),
				"error":     err,
			}).Debug("Descriptor discovery failed before subscribe")
		}
	}

	return NormalizeError(c.client.Subscribe(bc, false, func(data []byte) {
		handler(data)
	}))
}

func (c *Client) Unsubscribe(ch device.Characteristic) error {
	bc, err := unwrapCharacteristic(ch)
	if err != nil {
		return err
	}
	return NormalizeError(c.client.Unsubscribe(bc, false))
}

func (c *Client) Write(ch device.Characteristic, data []byte, withResponse bool) error {
	bc, err := unwrapCharacteristic(ch)
	if err != nil {
		return err
	}
	return NormalizeError(c.client.WriteCharacteristic(bc, data, !withResponse))
}

func (c *Client) CancelConnection() error {
	return NormalizeError(c.client.CancelConnection())
}

func unwrapCharacteristic(ch device.Characteristic) (*ble.Characteristic, error) {
	bc, ok := ch.(*BLECharacteristic)
	if !ok || bc.char == nil {
		return nil, fmt.Errorf("characteristic %s was not discovered by this client", ch.UUID())
	}
	return bc.char, nil
}

// parseUUIDs converts UUID strings to a go-ble discovery filter.
// An empty list means no filter.
func parseUUIDs(uuids []string) ([]ble.UUID, error) {
	if len(uuids) == 0 {
		return nil, nil
	}
	filter := make([]ble.UUID, 0, len(uuids))
	for _, u := range uuids {
		parsed, err := ble.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID %q: %w", u, err)
		}
		filter = append(filter, parsed)
	}
	return filter, nil
}
