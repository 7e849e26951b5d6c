package lifecycle

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/quicklaunch/quicklaunch/pkg/proctree"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

// installSuffix disambiguates an install run's table entry from the
// app's own server/sync entries.
const installSuffix = ":install"

// CheckDependencies inspects an app's path without touching its
// process table entry, for the POST /api/check-deps endpoint.
func (m *Manager) CheckDependencies(app types.AppConfig) (needsInstall, hasPackageJSON bool, packageManager string) {
	manifest := filepath.Join(app.Path, "package.json")
	hasPackageJSON = pathExists(manifest)

	manager := lockfileManager(app.Path, pathExists)
	if manager == "npm" {
		if detected, ok := detectPackageManager(m.detectors, splitCommand(app.Command)); ok {
			manager = detected
		}
	}

	depDir := filepath.Join(app.Path, "node_modules")
	needsInstall = hasPackageJSON && !pathExists(depDir)
	return needsInstall, hasPackageJSON, manager
}

// StartInstall spawns "<packageManager> install" under app.Path and
// tracks it in the process table under "<appId>:install", returning
// immediately without waiting for completion.
func (m *Manager) StartInstall(app types.AppConfig, packageManager string) (string, *qlerr.Error) {
	key := app.ID + installSuffix
	if e, ok := m.table.Get(key); ok && !e.Status.IsTerminal() {
		return "", qlerr.Internal(fmt.Errorf("an install is already running for %s", app.ID))
	}
	if packageManager == "" {
		packageManager = "npm"
	}

	argv := shellWrap([]string{packageManager, "install"})
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = app.Path
	cmd.Env = os.Environ()
	cmd.SysProcAttr = proctree.Spawn()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", qlerr.Internal(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", qlerr.Internal(err)
	}
	if err := cmd.Start(); err != nil {
		return "", qlerr.Internal(err)
	}

	entry := &types.ProcessEntry{
		Key:         key,
		AppID:       app.ID,
		DisplayName: app.Name + " (install)",
		Status:      types.StatusRunning,
		PID:         cmd.Process.Pid,
		StartTime:   time.Now(),
		Config:      app,
	}
	m.table.Insert(entry)

	go m.pipeLines(key, "stdout", stdout)
	go m.pipeLines(key, "stderr", stderr)
	go m.observeInstall(cmd, entry)

	return key, nil
}

// observeInstall waits for an install command to exit and records a
// terminal status, without any of Start's restart/health-poll policy.
func (m *Manager) observeInstall(cmd *exec.Cmd, entry *types.ProcessEntry) {
	err := cmd.Wait()
	exitCode := exitCodeOf(err)
	status := types.StatusCompleted
	if exitCode != 0 {
		status = types.StatusFailed
	}
	m.table.MarkExit(entry.Key, status, exitCode, types.ExitNormal)
}

// InstallStatus returns the live entry for an install run, if any.
func (m *Manager) InstallStatus(appID string) (*types.ProcessEntry, bool) {
	return m.table.Get(appID + installSuffix)
}
