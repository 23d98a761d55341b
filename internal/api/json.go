package api

import (
	"encoding/json"
	"net/http"

	"venuetour/internal/model"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// writeResultErrors sends a result-level failure: HTTP 200 with the
// message in the errors array and no content, per the generation
// contract.
func writeResultErrors(w http.ResponseWriter, msgs ...string) {
	writeJSON(w, http.StatusOK, model.RouteResponse{Errors: msgs})
}

func writeContent(w http.ResponseWriter, c model.RouteContent) {
	writeJSON(w, http.StatusOK, model.RouteResponse{Content: &c})
}
