package api

import (
	"encoding/json"
	"net/http"

	"github.com/cuemby/pivot/pkg/corerr"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a corerr.Error's status onto the HTTP response; errors
// not constructed through corerr fall back to 500 via corerr.StatusOf.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, corerr.StatusOf(err), errorBody{Error: err.Error()})
}
