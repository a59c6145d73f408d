package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsTaskPeriodically(t *testing.T) {
	var count atomic.Int32
	s := New(10*time.Millisecond, func() { count.Add(1) })

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return count.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopPreventsFurtherRuns(t *testing.T) {
	var count atomic.Int32
	s := New(10*time.Millisecond, func() { count.Add(1) })

	s.Start()
	time.Sleep(25 * time.Millisecond)
	s.Stop()

	after := count.Load()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, after, count.Load())
	assert.False(t, s.IsRunning())
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	s := New(time.Hour, func() {})

	s.Start()
	s.Start()

	assert.True(t, s.IsRunning())
	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := New(time.Hour, func() {})

	// Must not panic or block
	s.Stop()

	assert.False(t, s.IsRunning())
}
