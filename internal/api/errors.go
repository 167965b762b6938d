package api

import (
	"encoding/json"
	"net/http"
)

// Error is the body of every non-2xx response.
//
//	{"status":409,"code":"conflict","message":"module level is final","current":{...}}
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// Current is the entry that was kept when a final entry rejected a change.
	Current *levelEntry `json:"current,omitempty"`
}

// Error codes. Clients switch on these rather than on message text.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeValidation   = "validation_error"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
)

// codeFor maps a status to its default error code.
var codeFor = map[int]string{
	http.StatusBadRequest:          ErrCodeBadRequest,
	http.StatusUnauthorized:        ErrCodeUnauthorized,
	http.StatusNotFound:            ErrCodeNotFound,
	http.StatusConflict:            ErrCodeConflict,
	http.StatusInternalServerError: ErrCodeInternal,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Client may have gone away
		json.NewEncoder(w).Encode(v)
	}
}

// fail writes an Error using the default code for status.
func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Error{Status: status, Code: codeFor[status], Message: message})
}

// writeValidation writes a 400 for a well-formed request with a bad value.
func writeValidation(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, Error{
		Status:  http.StatusBadRequest,
		Code:    ErrCodeValidation,
		Message: message,
	})
}

// writeFinal writes the 409 returned when a final entry kept its level.
func writeFinal(w http.ResponseWriter, current levelEntry) {
	writeJSON(w, http.StatusConflict, Error{
		Status:  http.StatusConflict,
		Code:    ErrCodeConflict,
		Message: "module level is final",
		Current: &current,
	})
}
