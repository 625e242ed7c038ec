package common

import "net/http"

// DetailedError is the error body returned to the client.
//
// InternalMessage is only used for logging, so the underlying store error never
// reaches the caller.
type DetailedError struct {
	Status          int    `json:"status"` // Http status code
	ID              string `json:"id"`     // provided to user so that we can better track down issues
	Code            string `json:"code"`   // Code which may be used to translate the message to the final user
	Message         string `json:"error"`  // Understandable message sent to the client
	InternalMessage string `json:"-"`
}

// SetInternalMessage set the internal message that we will use for logging
func (d DetailedError) SetInternalMessage(internal error) DetailedError {
	if internal != nil {
		d.InternalMessage = internal.Error()
	}
	return d
}

func (d *DetailedError) Error() string {
	if d.InternalMessage != "" {
		return d.Code + ": " + d.InternalMessage
	}
	return d.Code + ": " + d.Message
}

// Message body for non-error responses without data
type Message struct {
	Message string `json:"message"`
}

var (
	ErrorUnauthorized = DetailedError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "missing or invalid token"}
	ErrorWrite        = DetailedError{Status: http.StatusInternalServerError, Code: "write_error", Message: "internal server error"}
)
