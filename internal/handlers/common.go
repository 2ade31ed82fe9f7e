// Package handlers implements the judge's account, credential, session
// and contest HTTP endpoints. Handlers speak the platform's JSON
// envelope; access control lives in the guard middleware and the contest
// access controller, not here.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"openjudge/internal/response"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 * 1024

// decodeJSON decodes the request body into dst. Returns false after
// writing an error envelope when the body is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.Error(w, "Invalid request body")
		return false
	}
	// A second value means trailing garbage.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		response.Error(w, "Invalid request body")
		return false
	}
	return true
}
