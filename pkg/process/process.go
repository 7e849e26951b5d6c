package process

import (
	"sync"
	"time"

	"github.com/quicklaunch/quicklaunch/pkg/metrics"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// maxLogLines bounds the per-process in-memory log ring. Callers asking
// for status/install/schedule responses cap further (10/20 lines) for
// their own payload size; this is the underlying storage bound.
const maxLogLines = 200

// Key builds the composite process-table key for an app, disambiguating
// a scheduled sync run from the app's own long-running server.
func Key(appID string, isSync bool) string {
	if isSync {
		return appID + ":sync"
	}
	return appID
}

// Table is the ProcessTable.
type Table struct {
	mu      sync.Mutex
	entries map[string]*types.ProcessEntry
}

// NewTable creates an empty ProcessTable.
func NewTable() *Table {
	return &Table{entries: map[string]*types.ProcessEntry{}}
}

// Insert adds a new entry, overwriting any previous entry under the
// same key (the caller is responsible for having rejected a still-live
// entry beforehand, per the LifecycleManager preflight).
func (t *Table) Insert(e *types.ProcessEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[e.Key] = e
	t.refreshGaugeLocked()
}

// Get returns the live entry for key, if any. The returned pointer is
// shared with the table; callers must not mutate it directly — use the
// Table's mutator methods, which hold the lock.
func (t *Table) Get(key string) (*types.ProcessEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	return e, ok
}

// List returns a snapshot slice of every tracked entry.
func (t *Table) List() []*types.ProcessEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*types.ProcessEntry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}

// Remove deletes the entry for key, if present.
func (t *Table) Remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
	t.refreshGaugeLocked()
}

// CompareAndSwapStatus transitions key from `from` to `to` only if its
// current status still equals `from`. This is how starting->running is
// made single-writer: the start handler's health-poll success calls
// CompareAndSwapStatus(key, starting, running), and a fast exit observer
// that already moved the entry to failed wins the race.
func (t *Table) CompareAndSwapStatus(key string, from, to types.ProcessStatus) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok || e.Status != from {
		return false
	}
	e.Status = to
	t.refreshGaugeLocked()
	return true
}

// SetStatus unconditionally sets the status, used for transitions that
// are always accepted: a terminal outcome (stopped/failed/completed)
// always wins regardless of what an in-flight health poll thinks it is
// doing.
func (t *Table) SetStatus(key string, status types.ProcessStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		e.Status = status
		t.refreshGaugeLocked()
	}
}

// MarkExit records a terminal exit outcome: status, exit code, and exit
// classification are all set together so a reader never observes one
// without the others.
func (t *Table) MarkExit(key string, status types.ProcessStatus, exitCode int, class types.ExitClass) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return
	}
	e.Status = status
	e.ExitCode = exitCode
	e.FinishedAt = time.Now()
	_ = class // surfaced via troubleshooting log by the caller, not stored on ProcessEntry
	t.refreshGaugeLocked()
}

// SetError records a classified startup-error message on key's entry,
// overwriting any previous one, so the latest well-known marker seen
// wins; start.go calls it for every matching output line, since a later
// line is more likely the proximate cause.
func (t *Table) SetError(key, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		e.Error = message
	}
}

// AppendLog appends one line to key's bounded log ring, evicting the
// oldest line once maxLogLines is exceeded.
func (t *Table) AppendLog(key, stream, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return
	}
	e.Logs = append(e.Logs, types.LogLine{Stream: stream, Text: text, Timestamp: time.Now()})
	if len(e.Logs) > maxLogLines {
		e.Logs = e.Logs[len(e.Logs)-maxLogLines:]
	}
}

// RecentLogs returns up to n of the most recent log lines for key.
func (t *Table) RecentLogs(key string, n int) []types.LogLine {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return nil
	}
	if len(e.Logs) <= n {
		out := make([]types.LogLine, len(e.Logs))
		copy(out, e.Logs)
		return out
	}
	out := make([]types.LogLine, n)
	copy(out, e.Logs[len(e.Logs)-n:])
	return out
}

// refreshGaugeLocked recomputes the processes-by-status gauge. Caller
// must hold t.mu.
func (t *Table) refreshGaugeLocked() {
	counts := map[types.ProcessStatus]int{}
	for _, e := range t.entries {
		counts[e.Status]++
	}
	metrics.ProcessesTotal.Reset()
	for status, n := range counts {
		metrics.ProcessesTotal.WithLabelValues(string(status)).Set(float64(n))
	}
}
