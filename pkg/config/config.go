package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quicklaunch/quicklaunch/pkg/log"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

const supervisorPort = 8000

// Store is the ConfigStore: it owns the on-disk config document and
// serializes writes to it. Writes take the lock; reads return a
// best-effort snapshot of whatever was last persisted.
type Store struct {
	mu   sync.Mutex
	path string
	doc  types.ConfigDocument
}

// NewStore creates a Store bound to path but does not touch disk; call
// Load before use.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the config document from disk. If it does not exist, a new
// document containing only the supervisor's own port reservation is
// created and written.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.doc = defaultDocument()
		return s.writeLocked()
	}
	if err != nil {
		return qlerr.FileNotFound(s.path, err)
	}

	var doc types.ConfigDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return qlerr.Internal(fmt.Errorf("parse config document %s: %w", s.path, err))
	}
	if doc.ReservedPorts == nil {
		doc.ReservedPorts = map[string]string{}
	}
	if _, ok := doc.ReservedPorts[strconv.Itoa(supervisorPort)]; !ok {
		doc.ReservedPorts[strconv.Itoa(supervisorPort)] = "QuickLaunch supervisor"
	}
	s.doc = doc
	return nil
}

func defaultDocument() types.ConfigDocument {
	return types.ConfigDocument{
		Version: 1,
		Apps:    []*types.AppConfig{},
		ReservedPorts: map[string]string{
			strconv.Itoa(supervisorPort): "QuickLaunch supervisor",
		},
	}
}

// writeLocked serializes the in-memory document and atomically replaces
// the file on disk via a temp-file-then-rename, so a reader never
// observes a partially written document. Caller must hold s.mu.
func (s *Store) writeLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return qlerr.Internal(fmt.Errorf("marshal config document: %w", err))
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return qlerr.Internal(fmt.Errorf("create config dir %s: %w", dir, err))
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json.tmp")
	if err != nil {
		return qlerr.Internal(fmt.Errorf("create temp config file: %w", err))
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return qlerr.Internal(fmt.Errorf("write temp config file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return qlerr.Internal(fmt.Errorf("close temp config file: %w", err))
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return qlerr.Internal(fmt.Errorf("rename config file into place: %w", err))
	}
	return nil
}

// Document returns a deep-enough copy of the current document for
// read-only use. Mutating the returned apps' slice does not affect the
// store.
func (s *Store) Document() types.ConfigDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps := make([]*types.AppConfig, len(s.doc.Apps))
	for i, a := range s.doc.Apps {
		cp := *a
		apps[i] = &cp
	}
	ports := make(map[string]string, len(s.doc.ReservedPorts))
	for k, v := range s.doc.ReservedPorts {
		ports[k] = v
	}
	return types.ConfigDocument{Version: s.doc.Version, Apps: apps, ReservedPorts: ports}
}

// GetApp returns a copy of the app with the given id.
func (s *Store) GetApp(id string) (*types.AppConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.doc.Apps {
		if a.ID == id {
			cp := *a
			return &cp, true
		}
	}
	return nil, false
}

// AddApp validates and inserts a new app, assigning an id via uuid if
// the caller did not supply one. Returns a *qlerr.Error of
// KindPortInUse on a port conflict; the suggested alternative port is
// attached by pkg/rpc, not here.
func (s *Store) AddApp(app *types.AppConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	for _, a := range s.doc.Apps {
		if a.ID == app.ID {
			return qlerr.Internal(fmt.Errorf("app id %q already exists", app.ID))
		}
	}
	if app.StartupTimeoutMS <= 0 {
		app.StartupTimeoutMS = 30000
	}
	if app.MaxRestartAttempts <= 0 {
		app.MaxRestartAttempts = 3
	}

	if err := s.checkPortLocked(app.Port, app.ID); err != nil {
		return err
	}

	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now
	s.doc.Apps = append(s.doc.Apps, app)
	if err := s.writeLocked(); err != nil {
		return err
	}
	log.WithComponent("config").Info().Str("app_id", app.ID).Msg("app added")
	return nil
}

// checkPortLocked enforces the invariant that every app's port is
// neither reserved nor claimed by a different app. excludeAppID is the
// app whose own prior port assignment should not conflict with itself.
func (s *Store) checkPortLocked(port int, excludeAppID string) error {
	if port == 0 {
		return nil
	}
	if label, ok := s.doc.ReservedPorts[strconv.Itoa(port)]; ok {
		return qlerr.PortReservedElsewhere(port, label)
	}
	for _, a := range s.doc.Apps {
		if a.ID != excludeAppID && a.Port == port {
			return qlerr.PortReservedElsewhere(port, a.Name)
		}
	}
	return nil
}

// UpdateApp applies a partial update. The id is immutable; a changed
// port is re-validated against the same invariants as AddApp.
func (s *Store) UpdateApp(id string, patch func(*types.AppConfig)) (*types.AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *types.AppConfig
	for _, a := range s.doc.Apps {
		if a.ID == id {
			target = a
			break
		}
	}
	if target == nil {
		return nil, qlerr.Internal(fmt.Errorf("app %q not found", id))
	}

	before := *target
	patch(target)
	target.ID = before.ID // id is immutable regardless of what patch did

	if target.Port != before.Port {
		if err := s.checkPortLocked(target.Port, id); err != nil {
			*target = before
			return nil, err
		}
	}
	target.UpdatedAt = time.Now()

	if err := s.writeLocked(); err != nil {
		*target = before
		return nil, err
	}
	cp := *target
	return &cp, nil
}

// RemoveApp deletes the app with the given id.
func (s *Store) RemoveApp(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, a := range s.doc.Apps {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return qlerr.Internal(fmt.Errorf("app %q not found", id))
	}
	s.doc.Apps = append(s.doc.Apps[:idx], s.doc.Apps[idx+1:]...)
	return s.writeLocked()
}

// ReservePort adds a reservation, rejecting it if the port is already
// reserved or already assigned to an app.
func (s *Store) ReservePort(port int, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPortLocked(port, ""); err != nil {
		return err
	}
	s.doc.ReservedPorts[strconv.Itoa(port)] = label
	return s.writeLocked()
}

// UnreservePort removes a reservation. Port 8000 (the supervisor) may
// never be removed.
func (s *Store) UnreservePort(port int) error {
	if port == supervisorPort {
		return qlerr.Internal(fmt.Errorf("port %d is the supervisor's own reservation and cannot be removed", supervisorPort))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.doc.ReservedPorts, strconv.Itoa(port))
	return s.writeLocked()
}
