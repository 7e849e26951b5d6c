package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/quicklaunch/quicklaunch/pkg/lifecycle"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// installLogLines is the ring-buffer cap for GET /api/install/:id: the
// last 20 lines, matching the other bounded-log endpoints.
const installLogLines = 20

func (h *Handlers) mustGetApp(appID string) (*types.AppConfig, *qlerr.Error) {
	app, ok := h.Store.GetApp(appID)
	if !ok {
		return nil, qlerr.Internal(fmt.Errorf("app %q not found", appID))
	}
	return app, nil
}

// CheckDepsResponse is the POST /api/check-deps payload.
type CheckDepsResponse struct {
	NeedsInstall    bool   `json:"needsInstall"`
	HasPackageJSON  bool   `json:"hasPackageJson"`
	PackageManager  string `json:"packageManager"`
}

// CheckDeps implements POST /api/check-deps.
func (h *Handlers) CheckDeps(appID string) (CheckDepsResponse, *qlerr.Error) {
	app, qerr := h.mustGetApp(appID)
	if qerr != nil {
		return CheckDepsResponse{}, qerr
	}
	needsInstall, hasManifest, manager := h.Manager.CheckDependencies(*app)
	return CheckDepsResponse{NeedsInstall: needsInstall, HasPackageJSON: hasManifest, PackageManager: manager}, nil
}

// InstallStartedResponse is the POST /api/install payload.
type InstallStartedResponse struct {
	Status         string `json:"status"`
	PackageManager string `json:"packageManager"`
}

// StartInstall implements POST /api/install.
func (h *Handlers) StartInstall(appID string) (InstallStartedResponse, *qlerr.Error) {
	app, qerr := h.mustGetApp(appID)
	if qerr != nil {
		return InstallStartedResponse{}, qerr
	}
	_, _, manager := h.Manager.CheckDependencies(*app)
	if _, qerr := h.Manager.StartInstall(*app, manager); qerr != nil {
		return InstallStartedResponse{}, qerr
	}
	return InstallStartedResponse{Status: "started", PackageManager: manager}, nil
}

// InstallStatusResponse is the GET /api/install/:id payload.
type InstallStatusResponse struct {
	Status   string          `json:"status"`
	Logs     []types.LogLine `json:"logs"`
	ExitCode *int            `json:"exitCode,omitempty"`
	Duration *int64          `json:"duration,omitempty"` // milliseconds
}

// InstallStatus implements GET /api/install/:id.
func (h *Handlers) InstallStatus(appID string) (InstallStatusResponse, *qlerr.Error) {
	entry, ok := h.Manager.InstallStatus(appID)
	if !ok {
		return InstallStatusResponse{}, qlerr.Internal(fmt.Errorf("no install found for %q", appID))
	}
	resp := InstallStatusResponse{
		Status: string(entry.Status),
		Logs:   h.Manager.RecentLogs(entry.Key, installLogLines),
	}
	if entry.Status.IsTerminal() {
		code := entry.ExitCode
		resp.ExitCode = &code
		if !entry.StartTime.IsZero() {
			ms := time.Since(entry.StartTime).Milliseconds()
			resp.Duration = &ms
		}
	}
	return resp, nil
}

// StartAppRequest is the POST /api/start payload.
type StartAppRequest struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Port               int    `json:"port"`
	Path               string `json:"path"`
	Command            string `json:"command"`
	Retry              bool   `json:"retry,omitempty"`
	OverridePort       int    `json:"overridePort,omitempty"`
	HealthCheckURL     string `json:"healthCheckUrl,omitempty"`
	StartupTimeoutMS   int    `json:"startupTimeout,omitempty"`
	AutoRestart        bool   `json:"autoRestart,omitempty"`
	MaxRestartAttempts int    `json:"maxRestartAttempts,omitempty"`
}

// StartAppResponse is the success envelope for POST /api/start. It is
// also populated (partially) on failure, since lifecycle.Start returns
// a best-effort result alongside its error — pkg/httpapi folds the two
// together into the structured failure envelope.
type StartAppResponse struct {
	Key      string                `json:"key"`
	Status   types.ProcessStatus   `json:"status"`
	Port     int                   `json:"port,omitempty"`
	PID      int                   `json:"pid,omitempty"`
	Elapsed  int64                 `json:"elapsed,omitempty"`
	Warning  string                `json:"warning,omitempty"`
	Analysis *types.Recommendation `json:"analysis,omitempty"`
	Logs     []types.LogLine       `json:"logs,omitempty"`
}

// Start implements POST /api/start.
func (h *Handlers) Start(ctx context.Context, req StartAppRequest) (*StartAppResponse, *qlerr.Error) {
	app := types.AppConfig{
		ID:                 req.ID,
		Name:               req.Name,
		Port:               req.Port,
		Path:               req.Path,
		Command:            req.Command,
		HealthCheckURL:     req.HealthCheckURL,
		StartupTimeoutMS:   req.StartupTimeoutMS,
		AutoRestart:        req.AutoRestart,
		MaxRestartAttempts: req.MaxRestartAttempts,
	}
	result, qerr := h.Manager.Start(ctx, lifecycle.StartRequest{
		App:          app,
		Retry:        req.Retry,
		OverridePort: req.OverridePort,
	})
	if result == nil {
		return nil, qerr
	}
	resp := &StartAppResponse{
		Key: result.Key, Status: result.Status, Port: result.Port, PID: result.PID,
		Elapsed: result.Elapsed, Warning: result.Warning, Analysis: result.Analysis,
		Logs: result.Logs,
	}
	return resp, qerr
}

// Stop implements POST /api/stop.
func (h *Handlers) Stop(appID string) *qlerr.Error {
	return h.Manager.Stop(appID, false)
}
