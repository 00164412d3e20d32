// ABOUTME: Standardized JSON response envelope for all plugin API handlers.
// ABOUTME: Every response carries status plus optional message/data/validation_errors.

package httpx

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope used by every JSON endpoint.
//
// Usage:
//
//	httpx.WriteData(w, map[string]interface{}{"plugins": list})
//	httpx.WriteError(w, http.StatusNotFound, "plugin not found")
type Response struct {
	Status           string      `json:"status"` // "success" or "error"
	Message          string      `json:"message,omitempty"`
	Data             interface{} `json:"data,omitempty"`
	ValidationErrors []string    `json:"validation_errors,omitempty"`
}

// WriteSuccess writes a bare success with an optional message.
func WriteSuccess(w http.ResponseWriter, message string) {
	write(w, http.StatusOK, Response{Status: "success", Message: message})
}

// WriteData writes a success envelope carrying data.
func WriteData(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, Response{Status: "success", Data: data})
}

// WriteMessageData writes a success envelope with both message and data.
func WriteMessageData(w http.ResponseWriter, message string, data interface{}) {
	write(w, http.StatusOK, Response{Status: "success", Message: message, Data: data})
}

// WriteError writes an error envelope with the given HTTP status.
func WriteError(w http.ResponseWriter, status int, message string) {
	write(w, status, Response{Status: "error", Message: message})
}

// WriteValidationErrors writes a 422 with the per-field error list the
// configuration form shows inline.
func WriteValidationErrors(w http.ResponseWriter, message string, errs []string) {
	write(w, http.StatusUnprocessableEntity, Response{
		Status:           "error",
		Message:          message,
		ValidationErrors: errs,
	})
}

func write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
