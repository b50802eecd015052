// Package shutdown bounds process exit on interrupt: a graceful board
// disconnect races a deadline timer and whichever finishes first exits.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/granble/internal/groutine"
)

// DefaultDeadline bounds how long a graceful disconnect may take.
const DefaultDeadline = 3 * time.Second

// Disconnector is the part of the session the coordinator drives.
type Disconnector interface {
	HasPeripheral() bool
	Disconnect(ctx context.Context, onDisconnected func()) error
}

// Outcome tells how Shutdown ended.
type Outcome int

const (
	// Immediate means there was no peripheral to release.
	Immediate Outcome = iota
	// Graceful means the disconnect completed before the deadline.
	Graceful
	// Forced means the deadline elapsed first.
	Forced
)

func (o Outcome) String() string {
	switch o {
	case Immediate:
		return "immediate"
	case Graceful:
		return "graceful"
	case Forced:
		return "forced"
	default:
		return "unknown"
	}
}

// Coordinator owns process termination.
type Coordinator struct {
	Target   Disconnector
	Deadline time.Duration
	// Exit terminates the process; os.Exit when nil.
	Exit   func(code int)
	Logger *logrus.Logger

	once    sync.Once
	outcome Outcome
}

// New returns a coordinator using os.Exit and DefaultDeadline when deadline is not positive.
func New(target Disconnector, deadline time.Duration, logger *logrus.Logger) *Coordinator {
	return &Coordinator{Target: target, Deadline: deadline, Logger: logger}
}

// Shutdown releases the board and exits. Only the first call does work;
// later calls return the first outcome.
func (c *Coordinator) Shutdown() Outcome {
	c.once.Do(func() {
		c.outcome = c.shutdown()
		c.exit(0)
	})
	return c.outcome
}

func (c *Coordinator) shutdown() Outcome {
	logger := c.logger()
	if c.Target == nil || !c.Target.HasPeripheral() {
		logger.Debug("No board connected, exiting")
		return Immediate
	}

	deadline := c.Deadline
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	logger.WithField("deadline", deadline).Info("Disconnecting from board")
	// closed when Disconnect returns, whether or not it reported completion
	disconnected := make(chan struct{})
	groutine.Go(ctx, "shutdown-disconnect", func(ctx context.Context) {
		defer close(disconnected)
		if err := c.Target.Disconnect(ctx, nil); err != nil {
			logger.WithField("error", err).Error("Disconnect failed during shutdown")
		}
	})

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case <-disconnected:
		logger.Info("Board disconnected, exiting")
		return Graceful
	case <-timer.C:
		logger.WithField("deadline", deadline).Warn("Board did not acknowledge disconnect in time, forcing exit")
		return Forced
	}
}

// Watch runs Shutdown on the first os.Interrupt. The returned stop function
// detaches the signal handler.
func (c *Coordinator) Watch(ctx context.Context) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	stopWatch := c.watch(ctx, sigs)
	return func() {
		signal.Stop(sigs)
		stopWatch()
	}
}

func (c *Coordinator) watch(ctx context.Context, sigs <-chan os.Signal) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	groutine.Go(ctx, "shutdown-signal", func(ctx context.Context) {
		defer close(done)
		select {
		case <-ctx.Done():
		case sig := <-sigs:
			c.logger().WithField("signal", sig.String()).Debug("Interrupt received")
			c.Shutdown()
		}
	})
	return func() {
		cancel()
		<-done
	}
}

func (c *Coordinator) exit(code int) {
	if c.Exit != nil {
		c.Exit(code)
		return
	}
	os.Exit(code)
}

func (c *Coordinator) logger() *logrus.Logger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}
