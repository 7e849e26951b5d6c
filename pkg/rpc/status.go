package rpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/quicklaunch/quicklaunch/pkg/process"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// statusLogLines is the ring-buffer cap for GET /api/status: the last
// 10 lines, small enough to fold into a status sweep over every app.
const statusLogLines = 10

// StatusEntry is one app's entry in the GET /api/status map.
type StatusEntry struct {
	Running    bool            `json:"running"`
	Port       int             `json:"port,omitempty"`
	Name       string          `json:"name"`
	PID        int             `json:"pid,omitempty"`
	Status     string          `json:"status"`
	RecentLogs []types.LogLine `json:"recentLogs"`
	StartTime  time.Time       `json:"startTime,omitempty"`
	External   bool            `json:"external,omitempty"`
}

// Status implements GET /api/status: every configured app's live
// state, plus any externally-detected occupant of its port.
func (h *Handlers) Status() (map[string]StatusEntry, *qlerr.Error) {
	doc := h.Store.Document()
	out := make(map[string]StatusEntry, len(doc.Apps))

	for _, app := range doc.Apps {
		entry, ok := h.Manager.Entry(process.Key(app.ID, false))
		if !ok {
			external := app.Port > 0 && h.Manager.DetectExternal(app)
			out[app.ID] = StatusEntry{
				Running:  false,
				Port:     app.Port,
				Name:     app.Name,
				Status:   string(types.StatusStopped),
				External: external,
			}
			continue
		}
		external := entry.Status == types.StatusExternal
		if entry.Status.IsTerminal() && app.Port > 0 {
			external = h.Manager.DetectExternal(app)
		}
		out[app.ID] = StatusEntry{
			Running:    entry.Status == types.StatusRunning || entry.Status == types.StatusStarting,
			Port:       entry.Port,
			Name:       entry.DisplayName,
			PID:        entry.PID,
			Status:     string(entry.Status),
			RecentLogs: h.Manager.RecentLogs(entry.Key, statusLogLines),
			StartTime:  entry.StartTime,
			External:   external,
		}
	}
	return out, nil
}

// HistoryResponse is the GET /api/history/:id payload.
type HistoryResponse struct {
	Attempts  []types.StartupAttempt `json:"attempts"`
	LastError string                 `json:"lastError,omitempty"`
}

// History implements GET /api/history/:id.
func (h *Handlers) History(appID string) (HistoryResponse, *qlerr.Error) {
	history := h.Manager.History(appID)
	resp := HistoryResponse{Attempts: history.Attempts}
	for i := len(history.Attempts) - 1; i >= 0; i-- {
		attempt := history.Attempts[i]
		if attempt.Result == types.StartupFailed || attempt.Result == types.StartupNeedsInstall {
			resp.LastError = fmt.Sprintf("%s: %s", attempt.Result, strings.Join(attempt.Steps, ", "))
			break
		}
	}
	return resp, nil
}
