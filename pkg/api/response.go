package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// FieldErrors maps a request field path, e.g. "PartitionRequest.Size", to
// the rule it failed.
type FieldErrors map[string]string

// ValidationDetails is the data of a 400 caused by request validation.
type ValidationDetails struct {
	Fields FieldErrors `json:"validation_errors"`
}

// WriteSuccessResponse writes a 200 carrying data.
func WriteSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

// WriteErrorResponse writes a failed envelope with err's text, if any.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	response := APIResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	writeJSON(w, statusCode, response)
}

// WriteValidationErrorResponse writes a 400 listing the failed rule per field.
func WriteValidationErrorResponse(w http.ResponseWriter, message string, fields FieldErrors) {
	writeJSON(w, http.StatusBadRequest, APIResponse{
		Message: message,
		Data:    ValidationDetails{Fields: fields},
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Int("status_code", statusCode).Msg("Failed to encode JSON response")
	}
}
