package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quicklaunch/quicklaunch/pkg/rpc"
)

func statusHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, qerr := h.Status()
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func historyHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		resp, qerr := h.History(id)
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
