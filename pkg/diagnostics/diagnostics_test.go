package diagnostics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quicklaunch/quicklaunch/pkg/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(t.TempDir())
}

func writeFailure(t *testing.T, e *Engine, app, message string, ts time.Time) {
	t.Helper()
	require.NoError(t, e.WriteEvent(types.TroubleshootingEntry{
		Timestamp: ts,
		Level:     "ERROR",
		App:       app,
		Message:   message,
	}))
}

func TestWriteEventAppendsLine(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.WriteEvent(types.TroubleshootingEntry{
		Timestamp: time.Now(),
		Level:     "INFO",
		App:       "demo",
		Message:   "started",
	}))

	data, err := os.ReadFile(e.troubleshootingPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] [demo] started")
}

func TestWriteEventFoldsNormalTermination(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.WriteEvent(types.TroubleshootingEntry{
		Timestamp:         time.Now(),
		Level:             "INFO",
		App:               "demo",
		Message:           "exited with code 0",
		NormalTermination: true,
	}))

	lines, err := e.readTroubleshootingLines("demo")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].NormalTermination)
}

func TestAnalyzeNoFailuresReturnsNil(t *testing.T) {
	e := newTestEngine(t)
	rec, err := e.Analyze("demo")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAnalyzeWarningTier(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()
	for i := 0; i < 3; i++ {
		writeFailure(t, e, "demo", "port 3000 already in use", now.Add(-time.Duration(i)*time.Hour))
	}

	rec, err := e.Analyze("demo")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, types.TierWarning, rec.Tier)
	assert.False(t, rec.ShouldAutoTodo)
	assert.Equal(t, types.PatternPortInUse, rec.ErrorType)
	assert.Equal(t, 3, rec.RecentFailures)
}

func TestAnalyzeCriticalTierAutoTodo(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()
	for i := 0; i < 6; i++ {
		writeFailure(t, e, "demo", "process crashed unexpectedly", now.Add(-time.Duration(i)*time.Hour))
	}

	rec, err := e.Analyze("demo")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, types.TierCritical, rec.Tier)
	assert.True(t, rec.ShouldAutoTodo)
	assert.Equal(t, types.PatternCrash, rec.ErrorType)
}

func TestAnalyzeDiscountsFailuresBeforeResolution(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()
	for i := 0; i < 6; i++ {
		writeFailure(t, e, "demo", "port 3000 already in use", now.Add(-time.Duration(i+1)*time.Hour))
	}
	removed, err := e.RecordResolution(types.ResolutionRecord{
		App:         "demo",
		Issue:       "port 3000 already in use",
		ErrorType:   types.PatternPortInUse,
		Disposition: types.DispositionResolved,
		Date:        now.Add(-30 * time.Minute),
	})
	require.NoError(t, err)
	assert.False(t, removed) // no matching TODO line existed

	rec, err := e.Analyze("demo")
	require.NoError(t, err)
	assert.Nil(t, rec, "all failures predate the resolution and should be discounted")
}

func TestAnalyzeIgnoresOldFailures(t *testing.T) {
	e := newTestEngine(t)
	stale := time.Now().Add(-10 * 24 * time.Hour)
	for i := 0; i < 6; i++ {
		writeFailure(t, e, "demo", "module not found", stale.Add(-time.Duration(i)*time.Hour))
	}

	rec, err := e.Analyze("demo")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRecordResolutionClassifiesByKeyword(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.RecordResolution(types.ResolutionRecord{
		App:         "demo",
		Issue:       "path did not exist on disk",
		Disposition: types.DispositionResolved,
	})
	require.NoError(t, err)

	records, err := e.readResolutions()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.PatternPathNotFound, records[0].ErrorType)
}

func TestRecordResolutionRemovesMatchingTodo(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, os.WriteFile(e.todoPath, []byte("## High\n\n- [ ] fix port conflict on demo\n  > happens every morning\n"), 0o644))

	removed, err := e.RecordResolution(types.ResolutionRecord{
		App:         "demo",
		Issue:       "fix port conflict on demo",
		Disposition: types.DispositionResolved,
	})
	require.NoError(t, err)
	assert.True(t, removed)

	data, err := os.ReadFile(e.todoPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "fix port conflict on demo")
}

func TestMaybeAutoTodoCreatesSectionAndEntry(t *testing.T) {
	e := newTestEngine(t)
	rec := &types.Recommendation{
		App:            "demo",
		ErrorType:      types.PatternCrash,
		ShouldAutoTodo: true,
		Message:        "demo has crashed 6 times in the last 7 days.",
		Action:         "inspect logs",
	}
	require.NoError(t, e.MaybeAutoTodo(rec))

	data, err := os.ReadFile(e.todoPath)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, autoDetectedHeader)
	assert.Contains(t, content, "demo")
	assert.Contains(t, content, "inspect logs")
}

func TestMaybeAutoTodoIdempotentPerDay(t *testing.T) {
	e := newTestEngine(t)
	rec := &types.Recommendation{App: "demo", ShouldAutoTodo: true, Message: "m", Action: "a"}
	require.NoError(t, e.MaybeAutoTodo(rec))
	before, err := os.ReadFile(e.todoPath)
	require.NoError(t, err)

	require.NoError(t, e.MaybeAutoTodo(rec))
	after, err := os.ReadFile(e.todoPath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestMaybeAutoTodoSkipsWhenNotFlagged(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.MaybeAutoTodo(&types.Recommendation{App: "demo", ShouldAutoTodo: false}))
	_, err := os.Stat(e.todoPath)
	assert.True(t, os.IsNotExist(err))
}

func TestListTodosParsesSectionsAndMarkers(t *testing.T) {
	e := newTestEngine(t)
	content := `## High

- [ ] fix the thing
  > happens on cold start

## Parking Lot

- [ ] revisit later

## Next Session

- [ ] wire up metrics dashboard

## Auto-Detected Issues (from troubleshooting log)

### [2026-07-30] demo
demo has crashed 6 times in the last 7 days.
inspect logs

## Support Codes Reference

- [ ] QL-PORT-001 this should never be collected
`
	require.NoError(t, os.WriteFile(e.todoPath, []byte(content), 0o644))

	items, err := e.ListTodos()
	require.NoError(t, err)

	var texts []string
	for _, it := range items {
		texts = append(texts, it.Text)
	}
	assert.Contains(t, texts, "fix the thing")
	assert.Contains(t, texts, "revisit later")
	assert.Contains(t, texts, "wire up metrics dashboard")
	assert.Contains(t, texts, "[Auto] [2026-07-30] demo")
	assert.NotContains(t, texts, "QL-PORT-001 this should never be collected")

	for _, it := range items {
		switch it.Text {
		case "fix the thing":
			assert.Equal(t, "High", it.Priority)
			assert.Equal(t, "happens on cold start", it.Description)
		case "revisit later":
			assert.True(t, it.MarkedParking)
		case "wire up metrics dashboard":
			assert.True(t, it.MarkedForImplement)
		case "[Auto] [2026-07-30] demo":
			assert.True(t, it.IsAutoDetected)
		}
	}
}

func TestTriageParkingMovesItem(t *testing.T) {
	e := newTestEngine(t)
	content := "## High\n\n- [ ] fix the thing\n\n## Support Codes Reference\n\n- [ ] not a real todo\n"
	require.NoError(t, os.WriteFile(e.todoPath, []byte(content), 0o644))

	resolutions, err := e.Triage([]TriageRequest{{Text: "fix the thing", Action: ActionParking}})
	require.NoError(t, err)
	assert.Empty(t, resolutions)

	items, err := e.ListTodos()
	require.NoError(t, err)
	var found bool
	for _, it := range items {
		if it.Text == "fix the thing" {
			found = true
			assert.True(t, it.MarkedParking)
		}
	}
	assert.True(t, found)
}

func TestTriageImplementMovesToTopOfNextSession(t *testing.T) {
	e := newTestEngine(t)
	content := "## High\n\n- [ ] fix the thing\n- [ ] another item\n"
	require.NoError(t, os.WriteFile(e.todoPath, []byte(content), 0o644))

	_, err := e.Triage([]TriageRequest{{Text: "fix the thing", Action: ActionImplement}})
	require.NoError(t, err)

	items, err := e.ListTodos()
	require.NoError(t, err)
	var found bool
	for _, it := range items {
		if it.Text == "fix the thing" {
			found = true
			assert.True(t, it.MarkedForImplement)
		}
	}
	assert.True(t, found)
}

func TestTriageDontDoRecordsResolution(t *testing.T) {
	e := newTestEngine(t)
	content := "## High\n\n- [ ] fix the thing\n"
	require.NoError(t, os.WriteFile(e.todoPath, []byte(content), 0o644))

	resolutions, err := e.Triage([]TriageRequest{{Text: "fix the thing", Action: ActionDontDo}})
	require.NoError(t, err)
	require.Len(t, resolutions, 1)
	assert.Equal(t, types.DispositionCancelled, resolutions[0].Disposition)
	assert.Equal(t, types.PatternTODOTriaged, resolutions[0].ErrorType)

	items, err := e.ListTodos()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTriageDontDoAutoDetectedUsesAutoPattern(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.MaybeAutoTodo(&types.Recommendation{App: "demo", ShouldAutoTodo: true, Message: "m", Action: "a"}))

	items, err := e.ListTodos()
	require.NoError(t, err)
	require.Len(t, items, 1)

	resolutions, err := e.Triage([]TriageRequest{{Text: items[0].Text, Action: ActionDontDo}})
	require.NoError(t, err)
	require.Len(t, resolutions, 1)
	assert.Equal(t, types.PatternAutoDetectedResolved, resolutions[0].ErrorType)

	remaining, err := e.ListTodos()
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestEnsureSectionBeforeCreatesAtEndWhenBeforeHeaderMissing(t *testing.T) {
	lines := []string{"## High", "", "- [ ] a"}
	out, idx := ensureSectionBefore(lines, parkingHeader, supportCodesHeader)
	assert.Equal(t, parkingHeader, out[idx])
}

func TestRemoveFirstMatchingTodoLockedNoMatch(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, os.WriteFile(e.todoPath, []byte("## High\n\n- [ ] unrelated\n"), 0o644))
	removed, err := e.removeFirstMatchingTodoLocked("nothing like this")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestEngineNewUsesExpectedPaths(t *testing.T) {
	dir := t.TempDir()
	e := New(dir)
	assert.Equal(t, filepath.Join(dir, "troubleshooting.log"), e.troubleshootingPath)
	assert.Equal(t, filepath.Join(dir, "resolutions.log"), e.resolutionsPath)
	assert.Equal(t, filepath.Join(dir, "TODO.md"), e.todoPath)
}
