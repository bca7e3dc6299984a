package devserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// validationIssue mirrors the shape the hosted service uses for
// parameter errors: the detail becomes an array of these.
type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func missingField(loc ...string) validationIssue {
	return validationIssue{Loc: loc, Msg: "Field required", Type: "missing"}
}

func intField(loc ...string) validationIssue {
	return validationIssue{Loc: loc, Msg: "Input should be a valid integer", Type: "int_parsing"}
}

// writeJSON writes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeDetail writes the service's error envelope. The detail may be
// a plain message or an array of validation issues.
func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

// writeError maps an error onto the wire. Inventory errors carry
// their own status; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		writeDetail(w, httpErr.Status, httpErr.Detail)
		return
	}
	writeDetail(w, http.StatusInternalServerError, err.Error())
}
