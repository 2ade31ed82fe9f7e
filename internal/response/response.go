// Package response writes the JSON envelopes the frontend depends on.
// Every response is HTTP 200 with one of three envelope shapes:
//
//	{"error": null, "data": <payload>}            success
//	{"error": "error", "data": "<message>"}       business failure
//	{"error": "permission-denied", "data": "..."} guard failure
//
// Unexpected server failures use the "server-error" tag with status 500.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"openjudge/internal/errs"
)

type envelope struct {
	Error *string `json:"error"`
	Data  any     `json:"data"`
}

func write(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// Success writes a success envelope with the given payload.
func Success(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, envelope{Error: nil, Data: data})
}

// Succeeded writes the conventional success envelope with data "Succeeded".
func Succeeded(w http.ResponseWriter) {
	Success(w, "Succeeded")
}

// Error writes a business-failure envelope.
func Error(w http.ResponseWriter, msg string) {
	tag := "error"
	write(w, http.StatusOK, envelope{Error: &tag, Data: msg})
}

// PermissionDenied writes a guard-failure envelope. Only the permission
// gate uses this tag; business denials go through Error.
func PermissionDenied(w http.ResponseWriter, reason string) {
	tag := "permission-denied"
	write(w, http.StatusOK, envelope{Error: &tag, Data: reason})
}

// ServerError writes an opaque 500 envelope. The underlying error is
// logged, never exposed.
func ServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	tag := "server-error"
	write(w, http.StatusInternalServerError, envelope{Error: &tag, Data: "Server error"})
}

// Err routes an error to the right envelope: business errors from the
// taxonomy become "error" envelopes with their stable message, anything
// else is an unexpected failure and becomes an opaque 500.
func Err(w http.ResponseWriter, err error) {
	if _, ok := errs.KindOf(err); ok {
		Error(w, err.Error())
		return
	}
	ServerError(w, err)
}
