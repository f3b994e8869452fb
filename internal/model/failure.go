package model

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// OccasionGetExecutionHistory labels failures of the status refresh.
const OccasionGetExecutionHistory = "get execution history"

// NoResponseMessage is the message shown when a request got no reply.
const NoResponseMessage = "no response received"

const statusNA = "n/a"

// StatusValue is an HTTP status code, or "n/a" when no response exists.
type StatusValue struct {
	code  int
	known bool
}

// StatusNA is the status of failures that carry no HTTP response.
var StatusNA = StatusValue{}

// StatusCode wraps an HTTP status code.
func StatusCode(code int) StatusValue {
	return StatusValue{code: code, known: true}
}

// Code returns the status code and whether one is present.
func (s StatusValue) Code() (int, bool) {
	return s.code, s.known
}

func (s StatusValue) String() string {
	if !s.known {
		return statusNA
	}
	return strconv.Itoa(s.code)
}

// MarshalJSON encodes a code as a number and n/a as a string.
func (s StatusValue) MarshalJSON() ([]byte, error) {
	if !s.known {
		return json.Marshal(statusNA)
	}
	return json.Marshal(s.code)
}

// UnmarshalJSON accepts either a number or the string "n/a".
func (s *StatusValue) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		*s = StatusCode(code)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("invalid status value %s", string(data))
	}
	if text != statusNA {
		return fmt.Errorf("invalid status value %q", text)
	}
	*s = StatusNA
	return nil
}

// ErrorInfo is the record shown in the alert banner.
type ErrorInfo struct {
	Message  string      `json:"message"`
	Status   StatusValue `json:"status"`
	Occasion string      `json:"occasion"`
}

// ServerError means the server answered with an error status, or with a
// body that could not be read as a status snapshot.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server responded with status %d: %s", e.StatusCode, e.Body)
}

// NoResponse means the request was sent but nothing came back: timeouts,
// refused connections and DNS failures.
type NoResponse struct {
	Err error
}

func (e *NoResponse) Error() string {
	if e.Err == nil {
		return NoResponseMessage
	}
	return NoResponseMessage + ": " + e.Err.Error()
}

func (e *NoResponse) Unwrap() error { return e.Err }

// ClientError means the request could not be built or sent.
type ClientError struct {
	Err error
}

func (e *ClientError) Error() string {
	if e.Err == nil {
		return "request not sent"
	}
	return e.Err.Error()
}

func (e *ClientError) Unwrap() error { return e.Err }

// ClassifyError converts a fetch failure into an ErrorInfo. A server
// response wins over a missing response, which wins over everything else.
func ClassifyError(err error, occasion string) ErrorInfo {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return ErrorInfo{
			Message:  serverErr.Body,
			Status:   StatusCode(serverErr.StatusCode),
			Occasion: occasion,
		}
	}

	var noResponse *NoResponse
	if errors.As(err, &noResponse) {
		return ErrorInfo{
			Message:  NoResponseMessage,
			Status:   StatusNA,
			Occasion: occasion,
		}
	}

	message := ""
	var clientErr *ClientError
	switch {
	case errors.As(err, &clientErr) && clientErr.Err != nil:
		message = clientErr.Err.Error()
	case err != nil:
		message = err.Error()
	}
	return ErrorInfo{
		Message:  message,
		Status:   StatusNA,
		Occasion: occasion,
	}
}
