package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quicklaunch/quicklaunch/pkg/rpc"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

type appIDRequest struct {
	ID string `json:"id"`
}

func checkDepsHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appIDRequest
		if qerr := decodeJSON(r, &req); qerr != nil {
			writeError(w, qerr)
			return
		}
		resp, qerr := h.CheckDeps(req.ID)
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func startInstallHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appIDRequest
		if qerr := decodeJSON(r, &req); qerr != nil {
			writeError(w, qerr)
			return
		}
		resp, qerr := h.StartInstall(req.ID)
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func installStatusHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		resp, qerr := h.InstallStatus(id)
		if qerr != nil {
			writeError(w, qerr)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// startErrorBody extends errorBody with the fields a failed start needs
// beyond the generic envelope: whether the caller can retry, whether an
// alternative port is on offer, the support code, and whatever
// diagnostics analysis ran during the attempt.
type startErrorBody struct {
	errorBody
	CanRetry          bool            `json:"canRetry"`
	CanUseAlternative bool            `json:"canUseAlternative,omitempty"`
	AlternativePort   int             `json:"alternativePort,omitempty"`
	SupportCode       string          `json:"supportCode"`
	Analysis          any             `json:"analysis,omitempty"`
	Logs              []types.LogLine `json:"logs,omitempty"`
}

func startHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rpc.StartAppRequest
		if qerr := decodeJSON(r, &req); qerr != nil {
			writeError(w, qerr)
			return
		}
		resp, qerr := h.Start(r.Context(), req)
		if qerr != nil {
			alternativePort, hasAlternative := qerr.Details["suggestedPort"].(int)
			var analysis any
			var logs []types.LogLine
			if resp != nil {
				analysis = resp.Analysis
				logs = resp.Logs
			}
			writeJSON(w, statusForKind(qerr.Kind), startErrorBody{
				errorBody: errorBody{
					Code: qerr.Code, Kind: qerr.Kind, Message: qerr.Message, Suggestion: qerr.Suggestion,
					Troubleshooting: qerr.Troubleshooting, Retryable: qerr.Retryable, Details: qerr.Details,
				},
				CanRetry: qerr.Retryable, CanUseAlternative: hasAlternative,
				AlternativePort: alternativePort, SupportCode: qerr.Code, Analysis: analysis,
				Logs: logs,
			})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func stopHandler(h *rpc.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appIDRequest
		if qerr := decodeJSON(r, &req); qerr != nil {
			writeError(w, qerr)
			return
		}
		if qerr := h.Stop(req.ID); qerr != nil {
			writeError(w, qerr)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
