package diagnostics

import (
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quicklaunch/quicklaunch/pkg/log"
)

// Engine is the DiagnosticsEngine: it owns the troubleshooting log, the
// resolutions log, and TODO.md, all under one working directory.
type Engine struct {
	troubleshootingPath string
	resolutionsPath     string
	todoPath            string

	mu  sync.Mutex
	log zerolog.Logger
}

// New wires an Engine whose three files live under dir.
func New(dir string) *Engine {
	return &Engine{
		troubleshootingPath: filepath.Join(dir, "troubleshooting.log"),
		resolutionsPath:     filepath.Join(dir, "resolutions.log"),
		todoPath:            filepath.Join(dir, "TODO.md"),
		log:                 log.WithComponent("diagnostics"),
	}
}
