package rpc

import (
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// AppsResponse is the GET /api/apps payload.
type AppsResponse struct {
	Apps          []*types.AppConfig `json:"apps"`
	ReservedPorts map[string]string  `json:"reservedPorts"`
}

// ListApps implements GET /api/apps.
func (h *Handlers) ListApps() (AppsResponse, *qlerr.Error) {
	doc := h.Store.Document()
	return AppsResponse{Apps: doc.Apps, ReservedPorts: doc.ReservedPorts}, nil
}

// AddApp implements POST /api/apps. On a port conflict the returned
// error carries a "suggestedPort" detail so the caller can offer it
// back to the user.
func (h *Handlers) AddApp(app types.AppConfig) (*types.AppConfig, *qlerr.Error) {
	if err := h.Store.AddApp(&app); err != nil {
		qerr := asQLError(err)
		h.attachSuggestedPort(qerr, app.Port)
		return nil, qerr
	}
	if app.Schedule != "" && app.ScheduleEnabled {
		h.reconcileSchedule(&app)
	}
	return &app, nil
}

// AppPatch carries only the fields a PUT /api/apps/:id caller supplied;
// nil pointers are left untouched.
type AppPatch struct {
	Name                *string `json:"name,omitempty"`
	Description         *string `json:"description,omitempty"`
	Port                *int    `json:"port,omitempty"`
	Path                *string `json:"path,omitempty"`
	Command             *string `json:"command,omitempty"`
	Icon                *string `json:"icon,omitempty"`
	IconPath            *string `json:"iconPath,omitempty"`
	Colors              *string `json:"colors,omitempty"`
	HealthCheckURL      *string `json:"healthCheckUrl,omitempty"`
	StartupTimeoutMS    *int    `json:"startupTimeout,omitempty"`
	AutoRestart         *bool   `json:"autoRestart,omitempty"`
	MaxRestartAttempts  *int    `json:"maxRestartAttempts,omitempty"`
	Schedule            *string `json:"schedule,omitempty"`
	ScheduleEnabled     *bool   `json:"scheduleEnabled,omitempty"`
	RunIfMissed         *bool   `json:"runIfMissed,omitempty"`
	ScheduleCommand     *string `json:"scheduleCommand,omitempty"`
}

// apply mutates target in place with every field the caller supplied.
func (p AppPatch) apply(target *types.AppConfig) {
	if p.Name != nil {
		target.Name = *p.Name
	}
	if p.Description != nil {
		target.Description = *p.Description
	}
	if p.Port != nil {
		target.Port = *p.Port
	}
	if p.Path != nil {
		target.Path = *p.Path
	}
	if p.Command != nil {
		target.Command = *p.Command
	}
	if p.Icon != nil {
		target.Icon = *p.Icon
	}
	if p.IconPath != nil {
		target.IconPath = *p.IconPath
	}
	if p.Colors != nil {
		target.Colors = *p.Colors
	}
	if p.HealthCheckURL != nil {
		target.HealthCheckURL = *p.HealthCheckURL
	}
	if p.StartupTimeoutMS != nil {
		target.StartupTimeoutMS = *p.StartupTimeoutMS
	}
	if p.AutoRestart != nil {
		target.AutoRestart = *p.AutoRestart
	}
	if p.MaxRestartAttempts != nil {
		target.MaxRestartAttempts = *p.MaxRestartAttempts
	}
	if p.Schedule != nil {
		target.Schedule = *p.Schedule
	}
	if p.ScheduleEnabled != nil {
		target.ScheduleEnabled = *p.ScheduleEnabled
	}
	if p.RunIfMissed != nil {
		target.RunIfMissed = *p.RunIfMissed
	}
	if p.ScheduleCommand != nil {
		target.ScheduleCommand = *p.ScheduleCommand
	}
}

// UpdateApp implements PUT /api/apps/:id: the id is immutable and a
// changed port is re-validated by the store against the same
// invariants AddApp enforces.
func (h *Handlers) UpdateApp(id string, patch AppPatch) (*types.AppConfig, *qlerr.Error) {
	var requestedPort int
	updated, err := h.Store.UpdateApp(id, func(a *types.AppConfig) {
		patch.apply(a)
		requestedPort = a.Port
	})
	if err != nil {
		qerr := asQLError(err)
		h.attachSuggestedPort(qerr, requestedPort)
		return nil, qerr
	}
	h.reconcileSchedule(updated)
	return updated, nil
}

// RemoveApp implements DELETE /api/apps/:id.
func (h *Handlers) RemoveApp(id string) *qlerr.Error {
	if err := h.Store.RemoveApp(id); err != nil {
		return asQLError(err)
	}
	return nil
}

// MigrateResult is one item's outcome in a bulk migrate request.
type MigrateResult struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "imported" | "skipped"
	Reason string `json:"reason,omitempty"`
}

// MigrateResponse is the POST /api/apps/migrate payload.
type MigrateResponse struct {
	Results []MigrateResult `json:"results"`
}

// MigrateApps implements POST /api/apps/migrate: a best-effort bulk
// import where one item's conflict never aborts the rest of the batch.
func (h *Handlers) MigrateApps(apps []types.AppConfig) (MigrateResponse, *qlerr.Error) {
	resp := MigrateResponse{Results: make([]MigrateResult, 0, len(apps))}
	for _, app := range apps {
		appCopy := app
		if err := h.Store.AddApp(&appCopy); err != nil {
			resp.Results = append(resp.Results, MigrateResult{ID: appCopy.ID, Status: "skipped", Reason: err.Error()})
			continue
		}
		resp.Results = append(resp.Results, MigrateResult{ID: appCopy.ID, Status: "imported"})
	}
	return resp, nil
}

// asQLError narrows a plain error (every collaborator here only ever
// returns *qlerr.Error or nil, per their own doc comments) back to the
// concrete type.
func asQLError(err error) *qlerr.Error {
	var qerr *qlerr.Error
	if qlerr.As(err, &qerr) {
		return qerr
	}
	return qlerr.Internal(err)
}

// attachSuggestedPort adds a suggestedPort detail to a port-conflict
// error so callers can offer it back to the user without a second
// round trip.
func (h *Handlers) attachSuggestedPort(qerr *qlerr.Error, port int) {
	if qerr == nil || qerr.Kind != qlerr.KindPortInUse || port <= 0 {
		return
	}
	qerr.WithDetail("suggestedPort", h.Broker.Suggest(port+1))
}
