package reconciler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeManager struct {
	calls   int32
	reaped  int
	maxAges []time.Duration
}

func (f *fakeManager) ReapSyncEntries(maxAge time.Duration) int {
	atomic.AddInt32(&f.calls, 1)
	f.maxAges = append(f.maxAges, maxAge)
	return f.reaped
}

func TestSweepCallsReapSyncEntriesWithConfiguredMaxAge(t *testing.T) {
	fm := &fakeManager{reaped: 3}
	r := New(fm, time.Hour, 10*time.Minute)

	r.sweep()

	assert.EqualValues(t, 1, atomic.LoadInt32(&fm.calls))
	assert.Equal(t, []time.Duration{10 * time.Minute}, fm.maxAges)
}

func TestStartRunsSweepsUntilStopped(t *testing.T) {
	fm := &fakeManager{reaped: 1}
	r := New(fm, 10*time.Millisecond, time.Minute)

	r.Start()
	time.Sleep(55 * time.Millisecond)
	r.Stop()

	calls := atomic.LoadInt32(&fm.calls)
	assert.GreaterOrEqual(t, calls, int32(2))

	// give a stray tick a moment to land, then confirm no more arrive
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, atomic.LoadInt32(&fm.calls))
}
