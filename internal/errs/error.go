package errs

import (
	"encoding/json"
	"errors"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

const defaultRemoteMessage = "the server could not complete the request"

// RemoteError carries the error text a remote call failed with, so it can be
// shown to the user as-is.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// DecodeRemote builds a RemoteError from a non-2xx response body. The backend
// answers with either {"error": ...} or {"message": ...}; anything else falls
// back to a generic message.
func DecodeRemote(statusCode int, body []byte) *RemoteError {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := defaultRemoteMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.Error != "":
			msg = envelope.Error
		case envelope.Message != "":
			msg = envelope.Message
		}
	}
	return &RemoteError{StatusCode: statusCode, Message: msg}
}
