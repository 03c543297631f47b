package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNetwork means the request never produced a response: connection
// failure, timeout, or the circuit breaker refused the call.
var ErrNetwork = errors.New("backend unreachable")

const fallbackMessage = "Something went wrong"

// RemoteError is a non-success HTTP status from the remote API.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is a RemoteError with the given status.
func IsStatus(err error, status int) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == status
}

func newRemoteError(status int, body []byte) *RemoteError {
	return &RemoteError{Status: status, Message: extractMessage(status, body)}
}

func extractMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if m := strings.TrimSpace(payload.Message); m != "" {
			return m
		}
		if m := strings.TrimSpace(payload.Error); m != "" {
			return m
		}
	}
	if status == http.StatusUnauthorized {
		return "Please login again"
	}
	return fallbackMessage
}
