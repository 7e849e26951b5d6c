package lifecycle

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/quicklaunch/quicklaunch/pkg/healthprobe"
	"github.com/quicklaunch/quicklaunch/pkg/metrics"
	"github.com/quicklaunch/quicklaunch/pkg/proctree"
	"github.com/quicklaunch/quicklaunch/pkg/process"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// postSpawnGrace is how long Start waits after a successful exec before
// checking whether the child already exited, catching the common
// immediate-crash case without waiting out the full health-check
// deadline.
const postSpawnGrace = 500 * time.Millisecond

// crashLogLines bounds how many recent output lines ride along with an
// immediate-crash response.
const crashLogLines = 20

// startupErrorMarkers are substrings that, when seen in a spawned
// process's stdout/stderr during startup, identify a well-known failure
// mode worth attributing directly rather than leaving the caller to
// read the raw log.
var startupErrorMarkers = []string{
	"EADDRINUSE",
	"Cannot find module",
	"ENOENT",
}

// classifyStartupError reports the first known marker found in line, or
// "" if none match.
func classifyStartupError(line string) string {
	for _, marker := range startupErrorMarkers {
		if strings.Contains(line, marker) {
			return marker
		}
	}
	return ""
}

// Start runs the full preflight chain and, on success, spawns the
// process and waits for it to report healthy.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*StartResult, *qlerr.Error) {
	app := req.App
	key := process.Key(app.ID, req.Sync)
	command := app.Command
	if req.Sync {
		command = app.ScheduleCommand
	}

	if existing, ok := m.table.Get(key); ok {
		if existing.Status == types.StatusRunning || existing.Status == types.StatusStarting {
			return nil, qlerr.Internal(fmt.Errorf("%s is already %s", app.ID, existing.Status))
		}
		if existing.Status.IsTerminal() {
			m.table.Remove(key)
		}
	}

	var analysis *types.Recommendation
	if m.diag != nil {
		if rec, err := m.diag.Analyze(app.ID); err == nil && rec != nil {
			analysis = rec
			if rec.ShouldAutoTodo {
				_ = m.diag.MaybeAutoTodo(rec)
			}
		}
	}

	// A scheduled sync task never binds a port: it runs under its own
	// ":sync" key alongside the hybrid app's long-running server, which
	// owns app.Port.
	port := 0
	if !req.Sync {
		port = app.Port
		if req.OverridePort > 0 {
			port = req.OverridePort
		}
	}
	if port > 0 {
		resolved, qerr := m.resolvePort(app.ID, port, req.Retry)
		if qerr != nil {
			m.recordHistory(app.ID, failedAttempt("port-check"))
			m.writeEvent("ERROR", app.ID, qerr.Message, map[string]any{"supportCode": qerr.Code}, false)
			return nil, qerr
		}
		port = resolved
	}

	if info, err := os.Stat(app.Path); err != nil || !info.IsDir() {
		qerr := qlerr.PathNotFound(app.Path, err)
		m.recordHistory(app.ID, failedAttempt("path-check"))
		m.writeEvent("ERROR", app.ID, qerr.Message, nil, false)
		return nil, qerr
	}

	argv := strings.Fields(command)
	if len(argv) == 0 {
		qerr := qlerr.Internal(fmt.Errorf("%s has no command configured", app.ID))
		return nil, qerr
	}

	if manager, ok := detectPackageManager(m.detectors, argv); ok {
		manifest := filepath.Join(app.Path, "package.json")
		if _, err := os.Stat(manifest); err != nil {
			qerr := qlerr.MissingManifest(manifest)
			m.recordHistory(app.ID, needsInstallAttempt("manifest-check"))
			m.writeEvent("ERROR", app.ID, qerr.Message, nil, false)
			return nil, qerr
		}
		depDir := filepath.Join(app.Path, "node_modules")
		if _, err := os.Stat(depDir); err != nil {
			inferred := lockfileManager(app.Path, pathExists)
			if inferred == "npm" {
				inferred = manager
			}
			qerr := qlerr.MissingDependencies(app.Path, inferred)
			m.recordHistory(app.ID, needsInstallAttempt("dependency-check"))
			m.writeEvent("ERROR", app.ID, qerr.Message, nil, false)
			return nil, qerr
		}
	}

	entry, cmd, err := m.spawn(app, argv, port, req)
	if err != nil {
		qerr := qlerr.Internal(err)
		m.recordHistory(app.ID, failedAttempt("spawn"))
		m.writeEvent("ERROR", app.ID, qerr.Message, nil, false)
		return nil, qerr
	}
	m.table.Insert(entry)

	go m.observe(cmd, entry)

	time.Sleep(postSpawnGrace)
	if e, ok := m.table.Get(key); ok && e.Status == types.StatusFailed {
		m.recordHistory(app.ID, failedAttempt("immediate-crash"))
		logs := m.table.RecentLogs(key, crashLogLines)
		return &StartResult{Key: key, Status: e.Status, Port: port, Analysis: analysis, Logs: logs},
			qlerr.ImmediateCrash(app.ID, e.ExitCode, e.Error, logs)
	}

	if port == 0 {
		m.recordHistory(app.ID, types.StartupAttempt{Timestamp: time.Now(), Steps: []string{"spawned"}, Result: types.StartupSuccess})
		return &StartResult{Key: key, Status: types.StatusStarting, PID: entry.PID, Analysis: analysis}, nil
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	m.setCancel(key, cancel)
	start := time.Now()
	result := m.prober.WaitForHealthy(pollCtx, port, healthprobe.Options{
		HealthPath:       app.HealthCheckURL,
		StartupTimeoutMS: app.StartupTimeoutMS,
	})
	m.popCancel(key)
	outcome := "healthy"
	if !result.Healthy {
		outcome = "timeout"
	}
	metrics.HealthProbesTotal.WithLabelValues(app.ID, outcome).Add(float64(result.Attempts))
	metrics.HealthProbeDuration.WithLabelValues(app.ID).Observe(result.Elapsed.Seconds())

	if result.Healthy {
		m.table.CompareAndSwapStatus(key, types.StatusStarting, types.StatusRunning)
		metrics.StartupDuration.WithLabelValues(app.ID).Observe(time.Since(start).Seconds())
		m.recordHistory(app.ID, types.StartupAttempt{Timestamp: time.Now(), Steps: []string{"spawned", "healthy"}, Result: types.StartupSuccess})
		return &StartResult{Key: key, Status: types.StatusRunning, Port: port, PID: entry.PID, Elapsed: result.Elapsed.Milliseconds(), Analysis: analysis}, nil
	}

	if e, ok := m.table.Get(key); ok && e.Status.IsTerminal() {
		return &StartResult{Key: key, Status: e.Status, Port: port, Analysis: analysis}, qlerr.StartupCrash(app.ID, e.ExitCode)
	}

	m.recordHistory(app.ID, types.StartupAttempt{Timestamp: time.Now(), Steps: []string{"spawned", "health-timeout"}, Result: types.StartupPartial})
	m.writeEvent("WARN", app.ID, "health check timed out; app left starting", map[string]any{"port": port}, false)
	return &StartResult{
		Key: key, Status: types.StatusStarting, Port: port, PID: entry.PID,
		Elapsed: result.Elapsed.Milliseconds(), Analysis: analysis,
		Warning: "health check timed out before the deadline; the app may still become healthy",
	}, nil
}

func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func failedAttempt(step string) types.StartupAttempt {
	return types.StartupAttempt{Timestamp: time.Now(), Steps: []string{step}, Result: types.StartupFailed}
}

func needsInstallAttempt(step string) types.StartupAttempt {
	return types.StartupAttempt{Timestamp: time.Now(), Steps: []string{step}, Result: types.StartupNeedsInstall}
}

// resolvePort runs the port-check branch of the preflight chain,
// folding in the caller-requested retry-and-free path.
func (m *Manager) resolvePort(appID string, port int, retry bool) (int, *qlerr.Error) {
	check := m.broker.Check(port, appID)
	if check.Available {
		return port, nil
	}

	if !check.SystemInUse {
		return 0, qlerr.PortReservedElsewhere(port, check.RegistryUsedBy)
	}

	if !retry {
		occupant := ""
		if occ, _ := m.broker.Identify(port); occ != nil {
			occupant = occ.Name
		}
		qerr := qlerr.PortInUse(port, occupant)
		qerr.WithDetail("suggestedPort", check.SuggestedPort)
		return 0, qerr
	}

	if err := m.broker.FreePort(port); err != nil {
		return 0, qlerr.PortInUseAfterRetry(port)
	}
	time.Sleep(500 * time.Millisecond)
	if m.broker.IsPortInUse(port) {
		return 0, qlerr.PortInUseAfterRetry(port)
	}
	return port, nil
}

// spawn execs the configured command and inserts a "starting" entry.
// It does not wait for the process to become healthy.
func (m *Manager) spawn(app types.AppConfig, argv []string, port int, req StartRequest) (*types.ProcessEntry, *exec.Cmd, error) {
	wrapped := shellWrap(argv)
	cmd := exec.Command(wrapped[0], wrapped[1:]...)
	cmd.Dir = app.Path
	cmd.Env = os.Environ()
	cmd.SysProcAttr = proctree.Spawn()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	key := process.Key(app.ID, req.Sync)
	entry := &types.ProcessEntry{
		Key:           key,
		AppID:         app.ID,
		Port:          port,
		DisplayName:   app.Name,
		Status:        types.StatusStarting,
		PID:           cmd.Process.Pid,
		StartTime:     time.Now(),
		Config:        app,
		IsScheduled:   req.Scheduled,
		IsManual:      req.Manual,
		IsSyncProcess: req.Sync,
	}

	go m.pipeLines(key, "stdout", stdout)
	go m.pipeLines(key, "stderr", stderr)

	return entry, cmd, nil
}

func (m *Manager) pipeLines(key, stream string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		m.table.AppendLog(key, stream, line)
		if marker := classifyStartupError(line); marker != "" {
			m.table.SetError(key, fmt.Sprintf("%s: %s", marker, line))
		}
	}
}
