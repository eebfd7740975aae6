package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire shape every domain operation answers with. Domain
// failures travel inside the envelope (error + status_code), not as transport
// errors; only authentication problems surface as bare HTTP failures.
type Envelope[T any] struct {
	Data       *T      `json:"data"`
	Error      *string `json:"error"`
	StatusCode uint16  `json:"status_code"`
}

// Ok wraps data in a 200 envelope.
func Ok[T any](data T) Envelope[T] {
	return Envelope[T]{Data: &data, StatusCode: http.StatusOK}
}

// NoContent is a 204 envelope with a nil payload.
func NoContent[T any]() Envelope[T] {
	return Envelope[T]{StatusCode: http.StatusNoContent}
}

// Error builds an envelope carrying a domain error message.
func Error[T any](code uint16, msg string) Envelope[T] {
	return Envelope[T]{Error: &msg, StatusCode: code}
}

// NotFound is the 404 envelope used by every lookup miss.
func NotFound[T any](msg string) Envelope[T] {
	return Error[T](http.StatusNotFound, msg)
}

// BadRequest is the 400 envelope for malformed or mismatched input.
func BadRequest[T any](msg string) Envelope[T] {
	return Error[T](http.StatusBadRequest, msg)
}

// Unauthorized is the 403 envelope for anonymous or foreign callers.
func Unauthorized[T any]() Envelope[T] {
	return Error[T](http.StatusForbidden, "Unauthorized.")
}

// TooManyRequests is the 429 envelope for retries inside a refresh window.
func TooManyRequests[T any]() Envelope[T] {
	return Error[T](http.StatusTooManyRequests, "Too many requests.")
}

// Conflict is the 409 envelope for create collisions.
func Conflict[T any](msg string) Envelope[T] {
	return Error[T](http.StatusConflict, msg)
}

// Write serializes the envelope and mirrors its status code onto the HTTP
// response. For 204 the status line alone carries the signal: net/http
// discards any body after WriteHeader(204).
func Write[T any](w http.ResponseWriter, e Envelope[T]) {
	w.Header().Set("Content-Type", "application/json")
	status := int(e.StatusCode)
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(e)
}
