package worker

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"
)

const (
	waitFor = 2 * time.Second
	tick    = time.Millisecond
)

func startCoalescer(t *testing.T, c *Coalescer) *tomb.Tomb {
	t.Helper()
	tb := &tomb.Tomb{}
	tb.Go(func() error { return c.Run(tb) })
	t.Cleanup(func() {
		tb.Kill(nil)
		_ = tb.Wait()
	})
	return tb
}

func TestSignalsCoalesceWhilePending(t *testing.T) {
	var passes atomic.Int64
	c := NewCoalescer(zerolog.Nop(), func() error {
		passes.Add(1)
		return nil
	}, nil)

	// 1. Nothing is consuming yet, so only the first signal is queued.
	assert.True(t, c.Signal())
	assert.False(t, c.Signal())
	assert.False(t, c.Signal())

	// 2. Starting the worker drains exactly one pass.
	startCoalescer(t, c)
	assert.Eventually(t, func() bool { return passes.Load() == 1 }, waitFor, tick)
	assert.Never(t, func() bool { return passes.Load() > 1 }, 50*time.Millisecond, tick)
}

func TestSignalDuringPassQueuesOneMore(t *testing.T) {
	var passes atomic.Int64
	release := make(chan struct{})
	c := NewCoalescer(zerolog.Nop(), func() error {
		if passes.Add(1) == 1 {
			<-release
		}
		return nil
	}, nil)
	startCoalescer(t, c)

	require.True(t, c.Signal())
	assert.Eventually(t, func() bool { return passes.Load() == 1 }, waitFor, tick)

	// The first pass is blocked, the slot is free again: one more gets queued,
	// the rest are dropped.
	assert.True(t, c.Signal())
	assert.False(t, c.Signal())
	close(release)

	assert.Eventually(t, func() bool { return passes.Load() == 2 }, waitFor, tick)
	assert.Never(t, func() bool { return passes.Load() > 2 }, 50*time.Millisecond, tick)
}

func TestFailuresAreReportedAndWorkerSurvives(t *testing.T) {
	var passes atomic.Int64
	var failures []error
	failed := make(chan struct{}, 2)
	c := NewCoalescer(zerolog.Nop(), func() error {
		switch passes.Add(1) {
		case 1:
			panic("boom")
		case 2:
			return errors.New("bad pass")
		}
		return nil
	}, func(err error) {
		failures = append(failures, err)
		failed <- struct{}{}
	})
	startCoalescer(t, c)

	for i := 0; i < 2; i++ {
		c.Signal()
		select {
		case <-failed:
		case <-time.After(waitFor):
			t.Fatal("failure was not reported")
		}
	}

	c.Signal()
	assert.Eventually(t, func() bool { return passes.Load() == 3 }, waitFor, tick)

	require.Len(t, failures, 2)
	assert.ErrorIs(t, failures[0], ErrPanic)
	assert.EqualError(t, failures[1], "bad pass")
}

func TestRunExitsWhenTombDies(t *testing.T) {
	c := NewCoalescer(zerolog.Nop(), func() error { return nil }, nil)
	tb := &tomb.Tomb{}
	tb.Go(func() error { return c.Run(tb) })

	tb.Kill(nil)
	select {
	case <-tb.Dead():
	case <-time.After(waitFor):
		t.Fatal("worker did not exit")
	}
	assert.NoError(t, tb.Err())
}
