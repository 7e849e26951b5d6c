package process

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quicklaunch/quicklaunch/pkg/types"
)

func TestKeyDisambiguatesSyncRuns(t *testing.T) {
	assert.Equal(t, "app-1", Key("app-1", false))
	assert.Equal(t, "app-1:sync", Key("app-1", true))
}

func TestInsertAndGet(t *testing.T) {
	tbl := NewTable()
	tbl.Insert(&types.ProcessEntry{Key: "app-1", Status: types.StatusStarting})

	e, ok := tbl.Get("app-1")
	assert.True(t, ok)
	assert.Equal(t, types.StatusStarting, e.Status)
}

func TestCompareAndSwapStatusOnlySucceedsFromExpected(t *testing.T) {
	tbl := NewTable()
	tbl.Insert(&types.ProcessEntry{Key: "app-1", Status: types.StatusStarting})

	ok := tbl.CompareAndSwapStatus("app-1", types.StatusStarting, types.StatusRunning)
	assert.True(t, ok)

	// Now it's running, not starting, so a stale transition attempt fails.
	ok = tbl.CompareAndSwapStatus("app-1", types.StatusStarting, types.StatusRunning)
	assert.False(t, ok)
}

func TestExitObserverWinsRaceAgainstHealthPoll(t *testing.T) {
	tbl := NewTable()
	tbl.Insert(&types.ProcessEntry{Key: "app-1", Status: types.StatusStarting})

	// The exit observer marks the entry failed first.
	tbl.MarkExit("app-1", types.StatusFailed, 1, types.ExitStartupCrash)

	// A late health poll success must not be able to flip it back to running.
	ok := tbl.CompareAndSwapStatus("app-1", types.StatusStarting, types.StatusRunning)
	assert.False(t, ok)

	e, _ := tbl.Get("app-1")
	assert.Equal(t, types.StatusFailed, e.Status)
}

func TestAppendLogBoundsRingBuffer(t *testing.T) {
	tbl := NewTable()
	tbl.Insert(&types.ProcessEntry{Key: "app-1", Status: types.StatusStarting})

	for i := 0; i < maxLogLines+50; i++ {
		tbl.AppendLog("app-1", "stdout", "line")
	}
	e, _ := tbl.Get("app-1")
	assert.Len(t, e.Logs, maxLogLines)
}

func TestRecentLogsCapsCount(t *testing.T) {
	tbl := NewTable()
	tbl.Insert(&types.ProcessEntry{Key: "app-1", Status: types.StatusStarting})
	for i := 0; i < 5; i++ {
		tbl.AppendLog("app-1", "stdout", "line")
	}
	assert.Len(t, tbl.RecentLogs("app-1", 3), 3)
	assert.Len(t, tbl.RecentLogs("app-1", 10), 5)
}

func TestRemoveDeletesEntry(t *testing.T) {
	tbl := NewTable()
	tbl.Insert(&types.ProcessEntry{Key: "app-1", Status: types.StatusRunning})
	tbl.Remove("app-1")
	_, ok := tbl.Get("app-1")
	assert.False(t, ok)
}
