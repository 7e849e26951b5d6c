package rpc

import (
	"github.com/quicklaunch/quicklaunch/pkg/process"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/schedule"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// scheduleLogLines is the ring-buffer cap for the schedule status
// endpoint: the last 20 lines.
const scheduleLogLines = 20

// ScheduleResponse is the GET /api/schedule/:id payload.
type ScheduleResponse struct {
	Schedule        string `json:"schedule"`
	ScheduleEnabled bool   `json:"scheduleEnabled"`
	RunIfMissed     bool   `json:"runIfMissed"`
	ScheduleCommand string `json:"scheduleCommand,omitempty"`
	Description     string `json:"description,omitempty"`
}

// GetSchedule implements GET /api/schedule/:id.
func (h *Handlers) GetSchedule(appID string) (ScheduleResponse, *qlerr.Error) {
	app, qerr := h.mustGetApp(appID)
	if qerr != nil {
		return ScheduleResponse{}, qerr
	}
	resp := ScheduleResponse{
		Schedule: app.Schedule, ScheduleEnabled: app.ScheduleEnabled,
		RunIfMissed: app.RunIfMissed, ScheduleCommand: app.ScheduleCommand,
	}
	if app.Schedule != "" {
		resp.Description = schedule.Describe(app.Schedule)
	}
	return resp, nil
}

// SetScheduleEnabled implements POST /api/schedule/:id/enable.
func (h *Handlers) SetScheduleEnabled(appID string, enabled bool) (*types.AppConfig, *qlerr.Error) {
	updated, err := h.Store.UpdateApp(appID, func(a *types.AppConfig) {
		a.ScheduleEnabled = enabled
	})
	if err != nil {
		return nil, asQLError(err)
	}
	h.reconcileSchedule(updated)
	return updated, nil
}

// RunSchedule implements POST /api/schedule/:id/run.
func (h *Handlers) RunSchedule(appID string) *qlerr.Error {
	app, qerr := h.mustGetApp(appID)
	if qerr != nil {
		return qerr
	}
	return h.Scheduler.RunNow(app)
}

// ScheduleStatusResponse is the GET /api/schedule/:id/status payload.
type ScheduleStatusResponse struct {
	LastRun      *types.ScheduleState `json:"lastRun,omitempty"`
	Logs         []types.LogLine      `json:"logs"`
	CurrentState string               `json:"currentState,omitempty"`
}

// ScheduleStatus implements GET /api/schedule/:id/status.
func (h *Handlers) ScheduleStatus(appID string) (ScheduleStatusResponse, *qlerr.Error) {
	state, found, err := h.Scheduler.Status(appID)
	if err != nil {
		return ScheduleStatusResponse{}, asQLError(err)
	}
	resp := ScheduleStatusResponse{}
	if found {
		resp.LastRun = state
	}
	if entry, ok := h.Manager.Entry(process.Key(appID, true)); ok {
		resp.Logs = h.Manager.RecentLogs(entry.Key, scheduleLogLines)
		resp.CurrentState = string(entry.Status)
	}
	return resp, nil
}

// ScheduleUpdate carries the subset of AppConfig a PUT
// /api/schedule/:id caller may change.
type ScheduleUpdate struct {
	Schedule        *string `json:"schedule,omitempty"`
	ScheduleEnabled *bool   `json:"scheduleEnabled,omitempty"`
	RunIfMissed     *bool   `json:"runIfMissed,omitempty"`
	ScheduleCommand *string `json:"scheduleCommand,omitempty"`
}

// UpdateSchedule implements PUT /api/schedule/:id.
func (h *Handlers) UpdateSchedule(appID string, update ScheduleUpdate) (*types.AppConfig, *qlerr.Error) {
	updated, err := h.Store.UpdateApp(appID, func(a *types.AppConfig) {
		if update.Schedule != nil {
			a.Schedule = *update.Schedule
		}
		if update.ScheduleEnabled != nil {
			a.ScheduleEnabled = *update.ScheduleEnabled
		}
		if update.RunIfMissed != nil {
			a.RunIfMissed = *update.RunIfMissed
		}
		if update.ScheduleCommand != nil {
			a.ScheduleCommand = *update.ScheduleCommand
		}
	})
	if err != nil {
		return nil, asQLError(err)
	}
	h.reconcileSchedule(updated)
	return updated, nil
}

// ScheduleListItem is one app's entry in GET /api/schedules.
type ScheduleListItem struct {
	AppID           string `json:"appId"`
	Schedule        string `json:"schedule"`
	ScheduleEnabled bool   `json:"scheduleEnabled"`
	Description     string `json:"description,omitempty"`
}

// ListSchedules implements GET /api/schedules.
func (h *Handlers) ListSchedules() ([]ScheduleListItem, *qlerr.Error) {
	doc := h.Store.Document()
	var out []ScheduleListItem
	for _, app := range doc.Apps {
		if app.Schedule == "" {
			continue
		}
		out = append(out, ScheduleListItem{
			AppID: app.ID, Schedule: app.Schedule, ScheduleEnabled: app.ScheduleEnabled,
			Description: schedule.Describe(app.Schedule),
		})
	}
	return out, nil
}
