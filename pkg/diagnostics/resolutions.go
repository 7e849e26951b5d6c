package diagnostics

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// resolutionKeywords classifies an issue description by keyword when the
// caller didn't supply (or supplied UNKNOWN for) an ErrorType.
var resolutionKeywords = []struct {
	substr  string
	pattern types.FailurePattern
}{
	{"port", types.PatternPortInUse},
	{"not found", types.PatternPathNotFound},
	{"not exist", types.PatternPathNotFound},
	{"module", types.PatternMissingModule},
	{"crash", types.PatternCrash},
}

func classifyIssue(issue string) types.FailurePattern {
	lower := strings.ToLower(issue)
	for _, k := range resolutionKeywords {
		if strings.Contains(lower, k.substr) {
			return k.pattern
		}
	}
	return types.PatternUnknown
}

// RecordResolution appends a resolution record (auto-classifying its
// ErrorType by keyword when absent or UNKNOWN), then deletes the first
// unchecked TODO item whose text contains the issue, returning whether
// a TODO line was found and removed.
func (e *Engine) RecordResolution(rec types.ResolutionRecord) (todoRemoved bool, err error) {
	if rec.ErrorType == "" || rec.ErrorType == types.PatternUnknown {
		rec.ErrorType = classifyIssue(rec.Issue)
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.appendResolutionLocked(rec); err != nil {
		return false, err
	}

	removed, err := e.removeFirstMatchingTodoLocked(rec.Issue)
	if err != nil {
		return removed, err
	}
	return removed, nil
}

func (e *Engine) appendResolutionLocked(rec types.ResolutionRecord) error {
	record := fmt.Sprintf(
		"Date: %s\nApp: %s\nIssue: %s\nErrorType: %s\nDisposition: %s\nExplanation: %s\nNotes: %s\n---\n",
		rec.Date.Format(time.RFC3339), rec.App, rec.Issue, rec.ErrorType, rec.Disposition, rec.Explanation, rec.Notes,
	)
	f, err := os.OpenFile(e.resolutionsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return qlerr.Internal(fmt.Errorf("open resolutions log: %w", err))
	}
	defer f.Close()
	if _, err := f.WriteString(record); err != nil {
		return qlerr.Internal(fmt.Errorf("append resolutions log: %w", err))
	}
	return nil
}

// latestResolvedByType reads the resolutions log and returns, for every
// ErrorType with at least one "resolved" disposition, the latest such
// resolution's timestamp.
func (e *Engine) latestResolvedByType() (map[types.FailurePattern]time.Time, error) {
	records, err := e.readResolutions()
	if err != nil {
		return nil, err
	}
	out := map[types.FailurePattern]time.Time{}
	for _, r := range records {
		if r.Disposition != types.DispositionResolved {
			continue
		}
		if prev, ok := out[r.ErrorType]; !ok || r.Date.After(prev) {
			out[r.ErrorType] = r.Date
		}
	}
	return out, nil
}

// ListResolutions returns every recorded resolution, for the
// GET /api/resolutions endpoint.
func (e *Engine) ListResolutions() ([]types.ResolutionRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readResolutions()
}

func (e *Engine) readResolutions() ([]types.ResolutionRecord, error) {
	data, err := os.ReadFile(e.resolutionsPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, qlerr.Internal(fmt.Errorf("read resolutions log: %w", err))
	}

	var out []types.ResolutionRecord
	var cur types.ResolutionRecord
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "---" {
			if cur.App != "" || cur.Issue != "" {
				out = append(out, cur)
			}
			cur = types.ResolutionRecord{}
			continue
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "Date":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				cur.Date = t
			}
		case "App":
			cur.App = value
		case "Issue":
			cur.Issue = value
		case "ErrorType":
			cur.ErrorType = types.FailurePattern(value)
		case "Disposition":
			cur.Disposition = types.ResolutionDisposition(value)
		case "Explanation":
			cur.Explanation = value
		case "Notes":
			cur.Notes = value
		}
	}
	return out, nil
}
