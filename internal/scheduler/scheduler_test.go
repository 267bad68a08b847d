package scheduler

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	idle  atomic.Int64
}

func (c *countingSweeper) Sweep(idle time.Duration) int {
	c.calls.Add(1)
	c.idle.Store(int64(idle))
	return 0
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerSweepsPeriodically(t *testing.T) {
	sw := &countingSweeper{}
	s := New(sw, 30*time.Minute, 50*time.Millisecond, quietLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return sw.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(30*time.Minute), sw.idle.Load())
}

func TestSchedulerDisabled(t *testing.T) {
	sw := &countingSweeper{}
	s := New(sw, 0, 10*time.Millisecond, quietLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, sw.calls.Load())
}
