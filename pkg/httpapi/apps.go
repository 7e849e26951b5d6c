package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quicklaunch/quicklaunch/pkg/rpc"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

func listAppsHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, qerr := h.ListApps()
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// addAppErrorBody extends errorBody with a suggestedPort field for this
// endpoint's port-conflict response.
type addAppErrorBody struct {
	errorBody
	SuggestedPort int `json:"suggestedPort,omitempty"`
}

func addAppHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var app types.AppConfig
		if qerr := decodeJSON(r, &app); qerr != nil {
			writeError(w, qerr)
			return
		}
		created, qerr := h.AddApp(app)
		if qerr != nil {
			suggested, _ := qerr.Details["suggestedPort"].(int)
			writeJSON(w, http.StatusBadRequest, addAppErrorBody{
				errorBody: errorBody{
					Code: qerr.Code, Kind: qerr.Kind, Message: qerr.Message, Suggestion: qerr.Suggestion,
					Troubleshooting: qerr.Troubleshooting, Retryable: qerr.Retryable, Details: qerr.Details,
				},
				SuggestedPort: suggested,
			})
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateAppHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch rpc.AppPatch
		if qerr := decodeJSON(r, &patch); qerr != nil {
			writeError(w, qerr)
			return
		}
		updated, qerr := h.UpdateApp(id, patch)
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func removeAppHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if qerr := h.RemoveApp(id); qerr != nil {
			writeError(w, qerr)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func migrateAppsHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var apps []types.AppConfig
		if qerr := decodeJSON(r, &apps); qerr != nil {
			writeError(w, qerr)
			return
		}
		resp, qerr := h.MigrateApps(apps)
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
