package portbroker

import (
	"fmt"
	"net"
	"strconv"
	"time"

	gopsnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/quicklaunch/quicklaunch/pkg/config"
	"github.com/quicklaunch/quicklaunch/pkg/log"
	"github.com/quicklaunch/quicklaunch/pkg/metrics"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
)

const maxPort = 65535

// RegistryReason explains why the registry considers a port unavailable.
type RegistryReason string

const (
	ReasonReserved RegistryReason = "reserved"
	ReasonApp      RegistryReason = "app"
)

// CheckResult is the outcome of Broker.Check.
type CheckResult struct {
	RegistryAvailable bool
	RegistryReason    RegistryReason
	RegistryUsedBy    string
	SystemInUse       bool
	Available         bool
	SuggestedPort     int
}

// Occupant identifies the process bound to a port.
type Occupant struct {
	PID  int32
	Name string
}

// Broker is the PortBroker.
type Broker struct {
	store *config.Store
}

// New creates a Broker backed by the given ConfigStore.
func New(store *config.Store) *Broker {
	return &Broker{store: store}
}

// Check reconciles registry reservations, app port assignments, and
// live OS occupancy for a port. excludeAppID lets a caller check its
// own app's currently-declared port without it conflicting with itself.
func (b *Broker) Check(port int, excludeAppID string) CheckResult {
	doc := b.store.Document()

	result := CheckResult{RegistryAvailable: true}
	if label, ok := doc.ReservedPorts[strconv.Itoa(port)]; ok {
		result.RegistryAvailable = false
		result.RegistryReason = ReasonReserved
		result.RegistryUsedBy = label
	} else {
		for _, a := range doc.Apps {
			if a.ID != excludeAppID && a.Port == port {
				result.RegistryAvailable = false
				result.RegistryReason = ReasonApp
				result.RegistryUsedBy = a.Name
				break
			}
		}
	}

	result.SystemInUse = b.IsPortInUse(port)
	result.Available = result.RegistryAvailable && !result.SystemInUse

	outcome := "available"
	if !result.Available {
		outcome = "unavailable"
	}
	metrics.PortChecksTotal.WithLabelValues(outcome).Inc()

	if !result.Available {
		result.SuggestedPort = b.Suggest(port + 1)
	}
	return result
}

// Suggest returns the smallest port >= basePort that is neither
// reserved nor assigned to any app in the config. It does not probe the
// OS — a suggestion is a hint, not a guarantee the port is free.
func (b *Broker) Suggest(basePort int) int {
	if basePort <= 0 {
		basePort = 5174
	}
	doc := b.store.Document()
	taken := map[int]bool{}
	for p := range doc.ReservedPorts {
		n, err := strconv.Atoi(p)
		if err == nil {
			taken[n] = true
		}
	}
	for _, a := range doc.Apps {
		if a.Port != 0 {
			taken[a.Port] = true
		}
	}
	for p := basePort; p <= maxPort; p++ {
		if !taken[p] {
			return p
		}
	}
	return 0
}

// IsPortInUse tests OS-level occupancy by attempting to bind the port.
func (b *Broker) IsPortInUse(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return true
	}
	ln.Close()
	return false
}

// Identify attributes the process bound to a port, where the platform
// exposes that information via gopsutil's connection table.
func (b *Broker) Identify(port int) (*Occupant, error) {
	conns, err := gopsnet.Connections("inet")
	if err != nil {
		return nil, qlerr.Internal(fmt.Errorf("enumerate connections: %w", err))
	}
	for _, c := range conns {
		if int(c.Laddr.Port) != port || c.Pid == 0 {
			continue
		}
		name := ""
		if proc, err := process.NewProcess(c.Pid); err == nil {
			if n, err := proc.Name(); err == nil {
				name = n
			}
		}
		return &Occupant{PID: c.Pid, Name: name}, nil
	}
	return nil, nil
}

// FreePort forcibly terminates the process bound to port.
func (b *Broker) FreePort(port int) error {
	occ, err := b.Identify(port)
	if err != nil {
		return err
	}
	if occ == nil {
		return qlerr.Internal(fmt.Errorf("no process found bound to port %d", port))
	}
	proc, err := process.NewProcess(occ.PID)
	if err != nil {
		return qlerr.Internal(fmt.Errorf("look up pid %d: %w", occ.PID, err))
	}
	if err := proc.Kill(); err != nil {
		return qlerr.Internal(fmt.Errorf("kill pid %d: %w", occ.PID, err))
	}
	log.WithComponent("portbroker").Warn().Int("port", port).Int32("pid", occ.PID).Msg("freed port by force-killing occupant")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !b.IsPortInUse(port) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return qlerr.PortInUse(port, occ.Name)
}
