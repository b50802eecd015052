package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/granble/internal/device"
	"github.com/srg/granble/internal/testutils"
	"github.com/srg/granble/pkg/config"
)

// fixedNow stamps every JSON event in tests.
var fixedNow = time.Date(2024, 3, 9, 20, 15, 0, 0, time.UTC)

// syncBuffer is written by the dispatcher goroutine while the test polls it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CommandTestSuite runs the real command tree against the mocked adapter.
type CommandTestSuite struct {
	testutils.MockAdapterSuite

	stdout *syncBuffer
	stderr *syncBuffer
	exits  chan int

	// backend is the backend name the command asked the factory for.
	backend string
}

func (s *CommandTestSuite) SetupTest() {
	s.MockAdapterSuite.SetupTest()
	s.stdout = &syncBuffer{}
	s.stderr = &syncBuffer{}
	s.exits = make(chan int, 4)
	s.backend = ""

	origFactory, origExit, origNow := adapterFactory, exitFunc, now
	adapterFactory = func(cfg *config.Config, _ *logrus.Logger) (device.Adapter, error) {
		s.backend = cfg.Backend
		return s.Adapter, nil
	}
	exitFunc = func(code int) { s.exits <- code }
	now = func() time.Time { return fixedNow }

	s.T().Cleanup(func() {
		adapterFactory, exitFunc, now = origFactory, origExit, origNow
	})
}

// ExecuteCommand runs a cobra command with args, returns output and error
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	return s.ExecuteCommandContext(context.Background(), args...)
}

// ExecuteCommandContext is ExecuteCommand with a caller-controlled context.
func (s *CommandTestSuite) ExecuteCommandContext(ctx context.Context, args ...string) (string, error) {
	root := newRootCmd()
	root.SetOut(s.stdout)
	root.SetErr(s.stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	return s.stdout.String(), err
}

// StartCommand runs the command in the background; the returned channel
// yields its error once it returns.
func (s *CommandTestSuite) StartCommand(ctx context.Context, args ...string) <-chan error {
	done := make(chan error, 1)
	go func() {
		_, err := s.ExecuteCommandContext(ctx, args...)
		done <- err
	}()
	return done
}

// WaitCommand returns the error of a command started with StartCommand.
func (s *CommandTestSuite) WaitCommand(done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-time.After(testutils.EventuallyTimeout):
		s.FailNow("command did not return in time")
		return nil
	}
}

// WaitOutput waits until stdout contains substr.
func (s *CommandTestSuite) WaitOutput(substr string) {
	s.Require().True(testutils.WaitFor(testutils.EventuallyTimeout, func() bool {
		return strings.Contains(s.stdout.String(), substr)
	}), "output MUST contain %q, got:\n%s", substr, s.stdout.String())
}
