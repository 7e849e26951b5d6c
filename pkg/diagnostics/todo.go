package diagnostics

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/quicklaunch/quicklaunch/pkg/metrics"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

const (
	autoDetectedHeader = "## Auto-Detected Issues (from troubleshooting log)"
	supportCodesHeader = "## Support Codes Reference"
	parkingHeader      = "## Parking Lot"
	nextSessionHeader  = "## Next Session"
)

var (
	priorityHeaderPattern = regexp.MustCompile(`^## (High|Medium|Low)$`)
	checkboxPattern       = regexp.MustCompile(`^- \[ \] (.+)$`)
	descriptionPattern    = regexp.MustCompile(`^  > (.+)$`)
)

// TriageAction is how a TODO item should be disposed of.
type TriageAction string

const (
	ActionParking   TriageAction = "parking"
	ActionImplement TriageAction = "implement"
	ActionDontDo    TriageAction = "dontdo"
)

// TodoItem is one inventoried TODO.md entry.
type TodoItem struct {
	Text               string `json:"text"`
	Description        string `json:"description,omitempty"`
	Priority           string `json:"priority,omitempty"`
	MarkedParking      bool   `json:"markedParking,omitempty"`
	MarkedForImplement bool   `json:"markedForImplement,omitempty"`
	IsAutoDetected     bool   `json:"isAutoDetected,omitempty"`
}

// TriageRequest disposes of one TODO item.
type TriageRequest struct {
	Text     string
	Priority string
	Action   TriageAction
}

func (e *Engine) readTodoLines() ([]string, error) {
	data, err := os.ReadFile(e.todoPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, qlerr.Internal(fmt.Errorf("read TODO.md: %w", err))
	}
	return strings.Split(string(data), "\n"), nil
}

func (e *Engine) writeTodoLocked(lines []string) error {
	content := strings.Join(lines, "\n")
	if err := os.WriteFile(e.todoPath, []byte(content), 0o644); err != nil {
		return qlerr.Internal(fmt.Errorf("write TODO.md: %w", err))
	}
	return nil
}

// ListTodos scans TODO.md and returns every entry it finds, human- and
// auto-written alike.
func (e *Engine) ListTodos() ([]TodoItem, error) {
	e.mu.Lock()
	lines, err := e.readTodoLines()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var items []TodoItem
	currentPriority := ""
	markedParking := false
	markedForImplement := false
	stopped := false
	inAuto := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case line == parkingHeader:
			markedParking, markedForImplement, stopped, inAuto = true, false, false, false
			continue
		case line == nextSessionHeader:
			markedParking, markedForImplement, stopped, inAuto = false, true, false, false
			continue
		case line == supportCodesHeader:
			stopped, inAuto = true, false
			continue
		case line == autoDetectedHeader:
			stopped, inAuto = true, true
			continue
		case strings.HasPrefix(line, "## "):
			markedParking, markedForImplement, stopped, inAuto = false, false, false, false
			if m := priorityHeaderPattern.FindStringSubmatch(line); m != nil {
				currentPriority = m[1]
			}
			continue
		}

		if inAuto && strings.HasPrefix(line, "### ") {
			items = append(items, TodoItem{
				Text:           "[Auto] " + strings.TrimPrefix(line, "### "),
				Priority:       "High",
				IsAutoDetected: true,
			})
			continue
		}
		if stopped {
			continue
		}
		if m := checkboxPattern.FindStringSubmatch(line); m != nil {
			item := TodoItem{
				Text:               m[1],
				Priority:           currentPriority,
				MarkedParking:      markedParking,
				MarkedForImplement: markedForImplement,
			}
			if i+1 < len(lines) {
				if dm := descriptionPattern.FindStringSubmatch(lines[i+1]); dm != nil {
					item.Description = dm[1]
				}
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// MaybeAutoTodo inserts an auto-detected issue into TODO.md's
// Auto-Detected Issues section, at most once per app per day.
func (e *Engine) MaybeAutoTodo(rec *types.Recommendation) error {
	if rec == nil || !rec.ShouldAutoTodo {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	lines, err := e.readTodoLines()
	if err != nil {
		return err
	}
	marker := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02"), rec.App)
	if strings.Contains(strings.Join(lines, "\n"), marker) {
		return nil
	}

	lines, headerIdx := ensureSectionBefore(lines, autoDetectedHeader, supportCodesHeader)
	end := sectionContentEnd(lines, headerIdx)
	entry := []string{"### " + marker, rec.Message, rec.Action, ""}
	lines = spliceLines(lines, end, entry)
	if err := e.writeTodoLocked(lines); err != nil {
		return err
	}
	metrics.AutoTodosTotal.WithLabelValues(rec.App).Inc()
	return nil
}

// Triage applies a batch of disposition requests, returning any
// resolution records written for "dontdo" dispositions.
func (e *Engine) Triage(requests []TriageRequest) ([]types.ResolutionRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	lines, err := e.readTodoLines()
	if err != nil {
		return nil, err
	}

	var resolutions []types.ResolutionRecord
	for _, req := range requests {
		var removed bool
		lines, removed = removeItem(lines, req.Text)
		if !removed {
			continue
		}
		switch req.Action {
		case ActionParking:
			headerIdx := 0
			lines, headerIdx = ensureSectionBefore(lines, parkingHeader, supportCodesHeader)
			end := sectionContentEnd(lines, headerIdx)
			lines = spliceLines(lines, end, []string{"- [ ] " + req.Text})
		case ActionImplement:
			headerIdx := 0
			lines, headerIdx = ensureSectionAtTop(lines, nextSessionHeader)
			lines = spliceLines(lines, headerIdx+1, []string{"- [ ] " + req.Text})
		case ActionDontDo:
			errType := types.PatternTODOTriaged
			if strings.HasPrefix(req.Text, "[Auto] ") {
				errType = types.PatternAutoDetectedResolved
			}
			rec := types.ResolutionRecord{
				Date:        time.Now(),
				Issue:       req.Text,
				ErrorType:   errType,
				Disposition: types.DispositionCancelled,
			}
			if err := e.appendResolutionLocked(rec); err != nil {
				return resolutions, err
			}
			resolutions = append(resolutions, rec)
		}
	}

	if err := e.writeTodoLocked(lines); err != nil {
		return resolutions, err
	}
	return resolutions, nil
}

// removeFirstMatchingTodoLocked deletes the first unchecked TODO line
// whose text contains issue, used by RecordResolution. Caller must hold
// e.mu.
func (e *Engine) removeFirstMatchingTodoLocked(issue string) (bool, error) {
	lines, err := e.readTodoLines()
	if err != nil {
		return false, err
	}
	for i, line := range lines {
		m := checkboxPattern.FindStringSubmatch(line)
		if m == nil || !strings.Contains(m[1], issue) {
			continue
		}
		end := i + 1
		if end < len(lines) && descriptionPattern.MatchString(lines[end]) {
			end++
		}
		newLines := append(append([]string{}, lines[:i]...), lines[end:]...)
		if err := e.writeTodoLocked(newLines); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// removeItem deletes either a checkbox line matching text or, for an
// "[Auto] "-prefixed text, the "### " block it names (up to the next
// "## " or "### " heading).
func removeItem(lines []string, text string) ([]string, bool) {
	if strings.HasPrefix(text, "[Auto] ") {
		header := "### " + strings.TrimPrefix(text, "[Auto] ")
		for i, line := range lines {
			if line != header {
				continue
			}
			end := i + 1
			for end < len(lines) && !strings.HasPrefix(lines[end], "## ") && !strings.HasPrefix(lines[end], "### ") {
				end++
			}
			return append(append([]string{}, lines[:i]...), lines[end:]...), true
		}
		return lines, false
	}
	for i, line := range lines {
		m := checkboxPattern.FindStringSubmatch(line)
		if m == nil || m[1] != text {
			continue
		}
		end := i + 1
		if end < len(lines) && descriptionPattern.MatchString(lines[end]) {
			end++
		}
		return append(append([]string{}, lines[:i]...), lines[end:]...), true
	}
	return lines, false
}

func sectionHeaderIndex(lines []string, header string) int {
	for i, l := range lines {
		if l == header {
			return i
		}
	}
	return -1
}

func sectionContentEnd(lines []string, headerIdx int) int {
	for i := headerIdx + 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "## ") {
			return i
		}
	}
	return len(lines)
}

// ensureSectionBefore returns lines with header present, creating it
// (with a blank separator line) immediately before beforeHeader if that
// section exists, else appending it at the end of the document.
func ensureSectionBefore(lines []string, header, beforeHeader string) ([]string, int) {
	if idx := sectionHeaderIndex(lines, header); idx != -1 {
		return lines, idx
	}
	insertAt := len(lines)
	if idx := sectionHeaderIndex(lines, beforeHeader); idx != -1 {
		insertAt = idx
	}
	block := []string{header, ""}
	if insertAt > 0 && insertAt <= len(lines) && insertAt > 0 && lines[insertAt-1] != "" {
		block = append([]string{""}, block...)
	}
	return spliceLines(lines, insertAt, block), insertAt + len(block) - 2
}

// ensureSectionAtTop returns lines with header present, creating it (if
// absent) immediately before the first "## " heading in the document,
// or at the very top if there is none.
func ensureSectionAtTop(lines []string, header string) ([]string, int) {
	if idx := sectionHeaderIndex(lines, header); idx != -1 {
		return lines, idx
	}
	insertAt := len(lines)
	for i, l := range lines {
		if strings.HasPrefix(l, "## ") {
			insertAt = i
			break
		}
	}
	block := []string{header, ""}
	return spliceLines(lines, insertAt, block), insertAt
}

// spliceLines inserts extra at position pos in lines.
func spliceLines(lines []string, pos int, extra []string) []string {
	out := make([]string, 0, len(lines)+len(extra))
	out = append(out, lines[:pos]...)
	out = append(out, extra...)
	out = append(out, lines[pos:]...)
	return out
}
