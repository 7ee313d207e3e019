// Package response provides helpers for writing HTTP responses.
//
// Every body is fully rendered before the status line goes out, so the
// Content-Length header always matches the exact byte length of the body
// and no response falls back to chunked transfer encoding.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Content types used by the handlers.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeJSON = "application/json"
)

// ─────────────────────────────────────────────────────────────────────────────
// Write sends status, Content-Type, Content-Length and body, in that order.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
// ─────────────────────────────────────────────────────────────────────────────
func Write(w http.ResponseWriter, status int, contentType string, body []byte) error {
	h := w.Header()
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)

	if len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)
	return err
}

// WriteText writes a plain-text body.
func WriteText(w http.ResponseWriter, status int, body string) error {
	return Write(w, status, ContentTypeText, []byte(body))
}

// WriteJSON encodes data and writes it. The body carries no trailing newline.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return WriteText(w, http.StatusInternalServerError, err.Error())
	}
	return Write(w, status, ContentTypeJSON, body)
}

// GeneralError writes err's text as a plain-text body with the given
// status. Used for client errors, where the body is the message itself.
//
// Example usage:
//
//	response.GeneralError(w, http.StatusBadRequest, err)
func GeneralError(w http.ResponseWriter, status int, err error) error {
	return WriteText(w, status, err.Error())
}

// ─────────────────────────────────────────────────────────────────────────────
// Response is the envelope returned when the server itself fails:
//
//	{"status":"error","error":"GetStudents: query: dial tcp ...: connection refused"}
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// StatusError is the Response.Status of every error envelope.
const StatusError = "error"

// ServerError writes a 500 with err wrapped in the Response envelope.
func ServerError(w http.ResponseWriter, err error) error {
	return WriteJSON(w, http.StatusInternalServerError, Response{
		Status: StatusError,
		Error:  err.Error(),
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts validator.FieldError values into one readable
// sentence per field, joined with ", ".
//
// Example output:
//
//	field firstName is required, field dept is required
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) string {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return strings.Join(errMessages, ", ")
}
