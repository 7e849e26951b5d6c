package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/rpc"
)

func parsePort(w http.ResponseWriter, s string) (int, bool) {
	port, err := strconv.Atoi(s)
	if err != nil {
		writeError(w, qlerr.Internal(err))
		return 0, false
	}
	return port, true
}

func checkPortHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		port, ok := parsePort(w, chi.URLParam(r, "port"))
		if !ok {
			return
		}
		exclude := r.URL.Query().Get("exclude")
		resp, qerr := h.CheckPort(port, exclude)
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func suggestPortHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base, _ := strconv.Atoi(r.URL.Query().Get("base"))
		resp, qerr := h.SuggestPort(base)
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"port": resp})
	}
}

type reservePortRequest struct {
	Port  int    `json:"port"`
	Label string `json:"label"`
}

func reservePortHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reservePortRequest
		if qerr := decodeJSON(r, &req); qerr != nil {
			writeError(w, qerr)
			return
		}
		if qerr := h.ReservePort(req.Port, req.Label); qerr != nil {
			writeError(w, qerr)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func unreservePortHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		port, ok := parsePort(w, chi.URLParam(r, "port"))
		if !ok {
			return
		}
		if qerr := h.UnreservePort(port); qerr != nil {
			writeError(w, qerr)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
