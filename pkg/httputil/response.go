// Package httputil holds the JSON response helpers shared by the engine's
// HTTP surfaces and the admin client.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error codes used in ErrorResponse.Error.
const (
	CodeNoMatch         = "no_match"
	CodeBodyTooLarge    = "body_too_large"
	CodeBodyFileError   = "body_file_error"
	CodeInvalidJSON     = "invalid_json"
	CodeValidationError = "validation_error"
	CodeNotFound        = "not_found"
)

// ErrorResponse is the body of every error the engine writes.
type ErrorResponse struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// WriteJSON writes data as JSON with status. A nil data writes no body.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes an ErrorResponse.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, &ErrorResponse{Code: code, Message: message})
}

// WriteNoContent writes a 204.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON reads at most limit bytes of r's body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ReadError turns a non-2xx response into an *ErrorResponse, falling back to
// the status text when the body is not one.
func ReadError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e ErrorResponse
	if err := json.Unmarshal(data, &e); err != nil || e.Code == "" {
		return &ErrorResponse{Code: http.StatusText(resp.StatusCode), Message: string(data)}
	}
	return &e
}
