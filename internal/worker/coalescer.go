package worker

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"
)

var ErrPanic = errors.New("worker panicked")

// WorkFunction performs one pass of work. A returned error (or a panic) is
// reported but never stops the worker.
type WorkFunction = func() error

// FailureFunction is told about every failed pass.
type FailureFunction = func(err error)

// Coalescer runs a WorkFunction on a single goroutine whenever it is signalled.
// Requests land in a capacity-1 slot: signals that arrive while a request is
// already pending are dropped, so any burst of signals costs at most one extra
// pass.
type Coalescer struct {
	requests  chan struct{}
	work      WorkFunction
	onFailure FailureFunction
	logger    zerolog.Logger
}

func NewCoalescer(logger zerolog.Logger, work WorkFunction, onFailure FailureFunction) *Coalescer {
	return &Coalescer{
		requests:  make(chan struct{}, 1),
		work:      work,
		onFailure: onFailure,
		logger:    logger,
	}
}

// Signal never blocks. It reports false when the request was folded into one
// that is already pending.
func (c *Coalescer) Signal() bool {
	select {
	case c.requests <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run waits for signals and performs a pass for each one until the tomb starts
// dying. It is meant to be started with t.Go.
func (c *Coalescer) Run(t *tomb.Tomb) error {
	c.logger.Debug().Msg("worker started")
	for {
		select {
		case <-t.Dying():
			c.logger.Debug().Msg("worker exiting")
			return nil
		case <-c.requests:
			if err := c.runOnce(); err != nil {
				c.logger.Error().Err(err).Msg("worker pass failed")
				if c.onFailure != nil {
					c.onFailure(err)
				}
			}
		}
	}
}

func (c *Coalescer) runOnce() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return c.work()
}
