package httpapi

import (
	"net/http"

	"github.com/quicklaunch/quicklaunch/pkg/rpc"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

func todosHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, qerr := h.Todos()
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type triageRequest struct {
	Items []rpc.TriageItem `json:"items"`
}

func triageHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req triageRequest
		if qerr := decodeJSON(r, &req); qerr != nil {
			writeError(w, qerr)
			return
		}
		resp, qerr := h.Triage(req.Items)
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listResolutionsHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, qerr := h.ListResolutions()
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func recordResolutionHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec types.ResolutionRecord
		if qerr := decodeJSON(r, &rec); qerr != nil {
			writeError(w, qerr)
			return
		}
		resp, qerr := h.RecordResolution(rec)
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
