package httpapi

import (
	"net/http"

	"github.com/quicklaunch/quicklaunch/pkg/rpc"
)

func iconHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, qerr := h.Icon(r.URL.Query().Get("path"))
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		w.Header().Set("Content-Type", resp.ContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp.Data)
	}
}
