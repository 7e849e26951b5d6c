package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quicklaunch/quicklaunch/pkg/rpc"
)

func getScheduleHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, qerr := h.GetSchedule(chi.URLParam(r, "id"))
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type setScheduleEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func setScheduleEnabledHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setScheduleEnabledRequest
		if qerr := decodeJSON(r, &req); qerr != nil {
			writeError(w, qerr)
			return
		}
		resp, qerr := h.SetScheduleEnabled(chi.URLParam(r, "id"), req.Enabled)
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func runScheduleHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if qerr := h.RunSchedule(chi.URLParam(r, "id")); qerr != nil {
			writeError(w, qerr)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func scheduleStatusHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, qerr := h.ScheduleStatus(chi.URLParam(r, "id"))
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func updateScheduleHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rpc.ScheduleUpdate
		if qerr := decodeJSON(r, &req); qerr != nil {
			writeError(w, qerr)
			return
		}
		resp, qerr := h.UpdateSchedule(chi.URLParam(r, "id"), req)
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listSchedulesHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, qerr := h.ListSchedules()
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
