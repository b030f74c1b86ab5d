package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorBody is the JSON envelope for every error the relay produces.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSONResponse writes data as a JSON response with the given status.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteRawJSON writes body, which must already be valid JSON, unchanged.
func WriteRawJSON(w http.ResponseWriter, statusCode int, body []byte) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

// WriteError writes the {"error": message} envelope.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSONResponse(w, statusCode, ErrorBody{Error: message})
}

// MarshalError returns the encoded {"error": message} envelope.
func MarshalError(message string) []byte {
	// Marshalling a struct with a single string field cannot fail.
	b, _ := json.Marshal(ErrorBody{Error: message})
	return b
}
