package rpc

import (
	"github.com/quicklaunch/quicklaunch/pkg/portbroker"
	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
)

// CheckPort implements GET /api/ports/check/:port?exclude=.
func (h *Handlers) CheckPort(port int, excludeAppID string) (portbroker.CheckResult, *qlerr.Error) {
	return h.Broker.Check(port, excludeAppID), nil
}

// SuggestPort implements GET /api/ports/suggest?base=.
func (h *Handlers) SuggestPort(base int) (int, *qlerr.Error) {
	return h.Broker.Suggest(base), nil
}

// ReservePort implements POST /api/ports/reserve.
func (h *Handlers) ReservePort(port int, label string) *qlerr.Error {
	if err := h.Store.ReservePort(port, label); err != nil {
		return asQLError(err)
	}
	return nil
}

// UnreservePort implements DELETE /api/ports/reserve/:port.
func (h *Handlers) UnreservePort(port int) *qlerr.Error {
	if err := h.Store.UnreservePort(port); err != nil {
		return asQLError(err)
	}
	return nil
}
