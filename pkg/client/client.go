// Package client is the QuickLaunch CLI's HTTP client: a thin wrapper
// over net/http that calls the pkg/httpapi JSON surface and decodes
// responses back into the pkg/rpc wire types, so cmd/quicklaunch's
// subcommands never construct requests by hand.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quicklaunch/quicklaunch/pkg/portbroker"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/rpc"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// defaultTimeout bounds every call this client makes; RunNow and
// install kick-off calls only start work server-side and return
// immediately, so ten seconds is generous even for the slowest of
// them.
const defaultTimeout = 10 * time.Second

// Client wraps the QuickLaunch HTTP API for CLI usage.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the supervisor listening at addr,
// e.g. "http://127.0.0.1:8000".
func NewClient(addr string) *Client {
	return &Client{
		baseURL: addr,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// APIError is returned when the server responds with a non-2xx status;
// it carries the decoded qlerr envelope so CLI commands can print the
// same suggestion/troubleshooting text a browser-based client would.
type APIError struct {
	StatusCode int
	Code       string
	Kind       qlerr.Kind
	Message    string
	Suggestion string
}

func (e *APIError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type wireErrorBody struct {
	Code       string     `json:"code"`
	Kind       qlerr.Kind `json:"kind"`
	Message    string     `json:"message"`
	Suggestion string     `json:"suggestion,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var wireErr wireErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&wireErr)
		return &APIError{StatusCode: resp.StatusCode, Code: wireErr.Code, Kind: wireErr.Kind, Message: wireErr.Message, Suggestion: wireErr.Suggestion}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Status calls GET /api/status.
func (c *Client) Status(ctx context.Context) (map[string]rpc.StatusEntry, error) {
	var out map[string]rpc.StatusEntry
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &out)
	return out, err
}

// History calls GET /api/history/:id.
func (c *Client) History(ctx context.Context, appID string) (rpc.HistoryResponse, error) {
	var out rpc.HistoryResponse
	err := c.do(ctx, http.MethodGet, "/api/history/"+url.PathEscape(appID), nil, nil, &out)
	return out, err
}

// ListApps calls GET /api/apps.
func (c *Client) ListApps(ctx context.Context) (rpc.AppsResponse, error) {
	var out rpc.AppsResponse
	err := c.do(ctx, http.MethodGet, "/api/apps", nil, nil, &out)
	return out, err
}

// AddApp calls POST /api/apps.
func (c *Client) AddApp(ctx context.Context, app types.AppConfig) (*types.AppConfig, error) {
	var out types.AppConfig
	err := c.do(ctx, http.MethodPost, "/api/apps", nil, app, &out)
	return &out, err
}

// UpdateApp calls PUT /api/apps/:id.
func (c *Client) UpdateApp(ctx context.Context, id string, patch rpc.AppPatch) (*types.AppConfig, error) {
	var out types.AppConfig
	err := c.do(ctx, http.MethodPut, "/api/apps/"+url.PathEscape(id), nil, patch, &out)
	return &out, err
}

// RemoveApp calls DELETE /api/apps/:id.
func (c *Client) RemoveApp(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/apps/"+url.PathEscape(id), nil, nil, nil)
}

// MigrateApps calls POST /api/apps/migrate.
func (c *Client) MigrateApps(ctx context.Context, apps []types.AppConfig) (rpc.MigrateResponse, error) {
	var out rpc.MigrateResponse
	err := c.do(ctx, http.MethodPost, "/api/apps/migrate", nil, apps, &out)
	return out, err
}

// CheckPort calls GET /api/ports/check/:port.
func (c *Client) CheckPort(ctx context.Context, port int, excludeAppID string) (portbroker.CheckResult, error) {
	q := url.Values{}
	if excludeAppID != "" {
		q.Set("exclude", excludeAppID)
	}
	var out portbroker.CheckResult
	err := c.do(ctx, http.MethodGet, "/api/ports/check/"+strconv.Itoa(port), q, nil, &out)
	return out, err
}

// SuggestPort calls GET /api/ports/suggest.
func (c *Client) SuggestPort(ctx context.Context, base int) (int, error) {
	q := url.Values{"base": {strconv.Itoa(base)}}
	var out struct {
		Port int `json:"port"`
	}
	err := c.do(ctx, http.MethodGet, "/api/ports/suggest", q, nil, &out)
	return out.Port, err
}

// ReservePort calls POST /api/ports/reserve.
func (c *Client) ReservePort(ctx context.Context, port int, label string) error {
	return c.do(ctx, http.MethodPost, "/api/ports/reserve", nil, map[string]any{"port": port, "label": label}, nil)
}

// UnreservePort calls DELETE /api/ports/reserve/:port.
func (c *Client) UnreservePort(ctx context.Context, port int) error {
	return c.do(ctx, http.MethodDelete, "/api/ports/reserve/"+strconv.Itoa(port), nil, nil, nil)
}

// CheckDeps calls POST /api/check-deps.
func (c *Client) CheckDeps(ctx context.Context, appID string) (rpc.CheckDepsResponse, error) {
	var out rpc.CheckDepsResponse
	err := c.do(ctx, http.MethodPost, "/api/check-deps", nil, map[string]string{"id": appID}, &out)
	return out, err
}

// StartInstall calls POST /api/install.
func (c *Client) StartInstall(ctx context.Context, appID string) (rpc.InstallStartedResponse, error) {
	var out rpc.InstallStartedResponse
	err := c.do(ctx, http.MethodPost, "/api/install", nil, map[string]string{"id": appID}, &out)
	return out, err
}

// InstallStatus calls GET /api/install/:id.
func (c *Client) InstallStatus(ctx context.Context, appID string) (rpc.InstallStatusResponse, error) {
	var out rpc.InstallStatusResponse
	err := c.do(ctx, http.MethodGet, "/api/install/"+url.PathEscape(appID), nil, nil, &out)
	return out, err
}

// Start calls POST /api/start.
func (c *Client) Start(ctx context.Context, req rpc.StartAppRequest) (*rpc.StartAppResponse, error) {
	var out rpc.StartAppResponse
	err := c.do(ctx, http.MethodPost, "/api/start", nil, req, &out)
	return &out, err
}

// Stop calls POST /api/stop.
func (c *Client) Stop(ctx context.Context, appID string) error {
	return c.do(ctx, http.MethodPost, "/api/stop", nil, map[string]string{"id": appID}, nil)
}

// GetSchedule calls GET /api/schedule/:id.
func (c *Client) GetSchedule(ctx context.Context, appID string) (rpc.ScheduleResponse, error) {
	var out rpc.ScheduleResponse
	err := c.do(ctx, http.MethodGet, "/api/schedule/"+url.PathEscape(appID), nil, nil, &out)
	return out, err
}

// SetScheduleEnabled calls POST /api/schedule/:id/enable.
func (c *Client) SetScheduleEnabled(ctx context.Context, appID string, enabled bool) (*types.AppConfig, error) {
	var out types.AppConfig
	err := c.do(ctx, http.MethodPost, "/api/schedule/"+url.PathEscape(appID)+"/enable", nil, map[string]bool{"enabled": enabled}, &out)
	return &out, err
}

// RunSchedule calls POST /api/schedule/:id/run.
func (c *Client) RunSchedule(ctx context.Context, appID string) error {
	return c.do(ctx, http.MethodPost, "/api/schedule/"+url.PathEscape(appID)+"/run", nil, nil, nil)
}

// ScheduleStatus calls GET /api/schedule/:id/status.
func (c *Client) ScheduleStatus(ctx context.Context, appID string) (rpc.ScheduleStatusResponse, error) {
	var out rpc.ScheduleStatusResponse
	err := c.do(ctx, http.MethodGet, "/api/schedule/"+url.PathEscape(appID)+"/status", nil, nil, &out)
	return out, err
}

// UpdateSchedule calls PUT /api/schedule/:id.
func (c *Client) UpdateSchedule(ctx context.Context, appID string, update rpc.ScheduleUpdate) (*types.AppConfig, error) {
	var out types.AppConfig
	err := c.do(ctx, http.MethodPut, "/api/schedule/"+url.PathEscape(appID), nil, update, &out)
	return &out, err
}

// ListSchedules calls GET /api/schedules.
func (c *Client) ListSchedules(ctx context.Context) ([]rpc.ScheduleListItem, error) {
	var out []rpc.ScheduleListItem
	err := c.do(ctx, http.MethodGet, "/api/schedules", nil, nil, &out)
	return out, err
}

// Todos calls GET /api/todos.
func (c *Client) Todos(ctx context.Context) (rpc.TodosResponse, error) {
	var out rpc.TodosResponse
	err := c.do(ctx, http.MethodGet, "/api/todos", nil, nil, &out)
	return out, err
}

// Triage calls POST /api/triage.
func (c *Client) Triage(ctx context.Context, items []rpc.TriageItem) (rpc.TriageCounts, error) {
	var out rpc.TriageCounts
	err := c.do(ctx, http.MethodPost, "/api/triage", nil, map[string]any{"items": items}, &out)
	return out, err
}

// ListResolutions calls GET /api/resolutions.
func (c *Client) ListResolutions(ctx context.Context) ([]types.ResolutionRecord, error) {
	var out []types.ResolutionRecord
	err := c.do(ctx, http.MethodGet, "/api/resolutions", nil, nil, &out)
	return out, err
}

// RecordResolution calls POST /api/resolutions.
func (c *Client) RecordResolution(ctx context.Context, rec types.ResolutionRecord) (rpc.RecordResolutionResponse, error) {
	var out rpc.RecordResolutionResponse
	err := c.do(ctx, http.MethodPost, "/api/resolutions", nil, rec, &out)
	return out, err
}
