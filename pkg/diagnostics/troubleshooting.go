package diagnostics

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// troubleshootingLinePattern matches one written line:
// "[ISO] [LEVEL] [App] message {json}".
var troubleshootingLinePattern = regexp.MustCompile(`^\[([^\]]+)\] \[(INFO|WARN|ERROR)\] \[([^\]]*)\] (.*?)(?:\s(\{.*\}))?$`)

// WriteEvent appends one structured line to the troubleshooting log.
// normalTermination is folded into the JSON details so pattern analysis
// can discount the line without re-deriving it from the exit code.
func (e *Engine) WriteEvent(entry types.TroubleshootingEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	details := map[string]any{}
	for k, v := range entry.Details {
		details[k] = v
	}
	if entry.NormalTermination {
		details["normalTermination"] = true
	}

	detailsJSON := "{}"
	if len(details) > 0 {
		data, err := json.Marshal(details)
		if err != nil {
			return qlerr.Internal(fmt.Errorf("marshal troubleshooting details: %w", err))
		}
		detailsJSON = string(data)
	}

	line := fmt.Sprintf("[%s] [%s] [%s] %s %s\n",
		entry.Timestamp.Format(time.RFC3339), entry.Level, entry.App, entry.Message, detailsJSON)

	f, err := os.OpenFile(e.troubleshootingPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return qlerr.Internal(fmt.Errorf("open troubleshooting log: %w", err))
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return qlerr.Internal(fmt.Errorf("append troubleshooting log: %w", err))
	}
	return nil
}

// troubleshootingLine is one parsed line of the troubleshooting log.
type troubleshootingLine struct {
	Timestamp         time.Time
	Level             string
	App               string
	Message           string
	NormalTermination bool
}

// readTroubleshootingLines reads and parses every line of the log for
// one app. Malformed lines are skipped rather than failing the whole
// read, since the log is hand-append-only and may contain partial
// writes from a prior crash.
func (e *Engine) readTroubleshootingLines(appID string) ([]troubleshootingLine, error) {
	data, err := os.ReadFile(e.troubleshootingPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, qlerr.Internal(fmt.Errorf("read troubleshooting log: %w", err))
	}

	var out []troubleshootingLine
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := troubleshootingLinePattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		app := m[3]
		if appID != "" && app != appID {
			continue
		}
		ts, err := time.Parse(time.RFC3339, m[1])
		if err != nil {
			continue
		}
		normal := false
		if m[5] != "" {
			var details map[string]any
			if json.Unmarshal([]byte(m[5]), &details) == nil {
				if v, ok := details["normalTermination"].(bool); ok {
					normal = v
				}
			}
		}
		out = append(out, troubleshootingLine{
			Timestamp:         ts,
			Level:             m[2],
			App:               app,
			Message:           m[4],
			NormalTermination: normal,
		})
	}
	return out, nil
}
