package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
)

func decodeJSON(r *http.Request, dst any) *qlerr.Error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return qlerr.Internal(err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorBody is the wire shape of a failed request: the qlerr envelope
// plus, where attached, a suggestedPort detail for a port-conflict
// response.
type errorBody struct {
	Code            string         `json:"code"`
	Kind            qlerr.Kind     `json:"kind"`
	Message         string         `json:"message"`
	Suggestion      string         `json:"suggestion,omitempty"`
	Troubleshooting []string       `json:"troubleshooting,omitempty"`
	Retryable       bool           `json:"retryable"`
	Details         map[string]any `json:"details,omitempty"`
}

// writeError maps a *qlerr.Error onto an HTTP status and writes the
// envelope body.
func writeError(w http.ResponseWriter, qerr *qlerr.Error) {
	writeJSON(w, statusForKind(qerr.Kind), errorBody{
		Code: qerr.Code, Kind: qerr.Kind, Message: qerr.Message, Suggestion: qerr.Suggestion,
		Troubleshooting: qerr.Troubleshooting, Retryable: qerr.Retryable, Details: qerr.Details,
	})
}

func statusForKind(kind qlerr.Kind) int {
	switch kind {
	case qlerr.KindPortInUse:
		return http.StatusConflict
	case qlerr.KindPathNotFound, qlerr.KindMissingManifest, qlerr.KindFileNotFound:
		return http.StatusNotFound
	case qlerr.KindMissingDependencies:
		return http.StatusPreconditionFailed
	case qlerr.KindHealthTimeout:
		return http.StatusGatewayTimeout
	case qlerr.KindImmediateCrash:
		return http.StatusBadGateway
	case qlerr.KindStartupCrash, qlerr.KindRuntimeCrash, qlerr.KindAutoRestartExhausted:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
