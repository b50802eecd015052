package testutils

import (
	"context"
	"time"

	"github.com/srg/granble/internal/device"
	"github.com/srg/granble/internal/testutils/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// Board handles as a real Granboard exposes them.
var (
	ScoringService = mocks.Service(device.ScoringServiceUUID)
	ThrowChar      = mocks.Characteristic(device.ThrowCharacteristicUUID)
)

// EventuallyTimeout bounds every wait on asynchronous board activity in tests.
const EventuallyTimeout = 2 * time.Second

// MockAdapterSuite provides a mocked adapter boundary: a MockAdapter, a
// MockClient it dials to, and a debug logger captured by a hook.
// Suites embed it and call its SetupTest/TearDownTest when overriding them.
type MockAdapterSuite struct {
	suite.Suite

	Helper  *TestHelper
	Adapter *mocks.MockAdapter
	Client  *mocks.MockClient

	Ctx    context.Context
	Cancel context.CancelFunc
}

func (s *MockAdapterSuite) SetupTest() {
	s.Helper = NewTestHelper(s.T())
	s.Adapter = mocks.NewMockAdapter(s.T())
	s.Client = mocks.NewMockClient(s.T())
	s.Ctx, s.Cancel = context.WithCancel(context.Background())
}

func (s *MockAdapterSuite) TearDownTest() {
	s.Cancel()
}

// ScanHandle exposes a running fake scan.
type ScanHandle struct {
	// Handler receives the adapter callback once the scan started.
	Handler <-chan func(device.Advertisement)
	// Returned is closed when the fake scan returns.
	Returned <-chan struct{}
}

// WaitHandler returns the advertisement handler of the running scan.
func (h ScanHandle) WaitHandler(s *MockAdapterSuite) func(device.Advertisement) {
	select {
	case fn := <-h.Handler:
		return fn
	case <-time.After(EventuallyTimeout):
		s.FailNow("scan was never started on the adapter")
		return nil
	}
}

// ExpectScan makes the next Scan report advs, then block until its context ends.
func (s *MockAdapterSuite) ExpectScan(advs ...device.Advertisement) ScanHandle {
	handlers := make(chan func(device.Advertisement), 1)
	returned := make(chan struct{})

	s.Adapter.On("Scan", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			defer close(returned)
			handler := args.Get(1).(func(device.Advertisement))
			for _, adv := range advs {
				handler(adv)
			}
			handlers <- handler
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil).
		Once()

	return ScanHandle{Handler: handlers, Returned: returned}
}

// ExpectBoardGATT wires Dial and discovery of the scoring service and throw
// characteristic of the board at addr, and the throw subscription.
func (s *MockAdapterSuite) ExpectBoardGATT(addr string) {
	s.Adapter.On("Dial", mock.Anything, addr).Return(s.Client, nil).Once()
	s.Client.On("DiscoverServices", []string{device.ScoringServiceUUID}).
		Return([]device.Service{ScoringService}, nil).Once()
	s.Client.On("DiscoverCharacteristics", ScoringService, []string{device.ThrowCharacteristicUUID}).
		Return([]device.Characteristic{ThrowChar}, nil).Once()
	s.Client.On("Subscribe", ThrowChar, mock.Anything).Return(nil).Once()
}

// ExpectBoardTeardown wires the unsubscribe and cancel of an active session.
func (s *MockAdapterSuite) ExpectBoardTeardown() {
	s.Client.On("Unsubscribe", ThrowChar).Return(nil).Once()
	s.Client.On("CancelConnection").Return(nil).Once()
}

// NotifyThrows pushes tokens through the throw subscription once it exists.
func (s *MockAdapterSuite) NotifyThrows(tokens ...string) {
	payloads := make([][]byte, 0, len(tokens))
	for _, t := range tokens {
		payloads = append(payloads, []byte(t))
	}
	s.Require().True(WaitFor(EventuallyTimeout, func() bool {
		return s.Client.Notify(device.ThrowCharacteristicUUID, payloads...)
	}), "throw subscription MUST be established")
}
