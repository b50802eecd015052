// Package mocks provides testify mocks for the device adapter boundary.
package mocks

import (
	"context"
	"sync"

	"github.com/srg/granble/internal/device"
	"github.com/stretchr/testify/mock"
)

// MockAdapter is a testify mock of device.Adapter.
type MockAdapter struct {
	mock.Mock
}

// NewMockAdapter registers AssertExpectations on test cleanup.
func NewMockAdapter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAdapter {
	m := &MockAdapter{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAdapter) Scan(ctx context.Context, handler func(device.Advertisement)) error {
	args := m.Called(ctx, handler)
	return args.Error(0)
}

func (m *MockAdapter) Dial(ctx context.Context, addr string) (device.Client, error) {
	args := m.Called(ctx, addr)
	c, _ := args.Get(0).(device.Client)
	return c, args.Error(1)
}

// MockClient is a testify mock of device.Client. Handlers passed to
// Subscribe are kept so tests can push notifications with Notify.
type MockClient struct {
	mock.Mock

	mu       sync.Mutex
	handlers map[string]func([]byte)
}

func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockClient) Addr() string {
	return m.Called().String(0)
}

func (m *MockClient) DiscoverServices(uuids []string) ([]device.Service, error) {
	args := m.Called(uuids)
	svcs, _ := args.Get(0).([]device.Service)
	return svcs, args.Error(1)
}

func (m *MockClient) DiscoverCharacteristics(svc device.Service, uuids []string) ([]device.Characteristic, error) {
	args := m.Called(svc, uuids)
	chars, _ := args.Get(0).([]device.Characteristic)
	return chars, args.Error(1)
}

func (m *MockClient) Subscribe(ch device.Characteristic, handler func([]byte)) error {
	args := m.Called(ch, handler)
	if args.Error(0) == nil {
		m.mu.Lock()
		if m.handlers == nil {
			m.handlers = make(map[string]func([]byte))
		}
		m.handlers[ch.UUID()] = handler
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *MockClient) Unsubscribe(ch device.Characteristic) error {
	args := m.Called(ch)
	m.mu.Lock()
	delete(m.handlers, ch.UUID())
	m.mu.Unlock()
	return args.Error(0)
}

func (m *MockClient) Write(ch device.Characteristic, data []byte, withResponse bool) error {
	return m.Called(ch, data, withResponse).Error(0)
}

func (m *MockClient) CancelConnection() error {
	return m.Called().Error(0)
}

// Notify delivers payloads to the handler subscribed on charUUID, in order.
// It reports false when nothing is subscribed.
func (m *MockClient) Notify(charUUID string, payloads ...[]byte) bool {
	m.mu.Lock()
	h := m.handlers[charUUID]
	m.mu.Unlock()
	if h == nil {
		return false
	}
	for _, p := range payloads {
		h(p)
	}
	return true
}

// Service is a fixed device.Service.
type Service string

func (s Service) UUID() string { return string(s) }

// Characteristic is a fixed device.Characteristic.
type Characteristic string

func (c Characteristic) UUID() string { return string(c) }

// Advertisement is a static device.Advertisement.
type Advertisement struct {
	Name          string
	Address       string
	Signal        int
	IsConnectable bool
	ServiceUUIDs  []string
}

func (a Advertisement) LocalName() string  { return a.Name }
func (a Advertisement) Addr() string       { return a.Address }
func (a Advertisement) RSSI() int          { return a.Signal }
func (a Advertisement) Connectable() bool  { return a.IsConnectable }
func (a Advertisement) Services() []string { return a.ServiceUUIDs }
