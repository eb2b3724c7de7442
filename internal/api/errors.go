package api

import (
	"errors"
	"net/http"
)

var (
	ErrConnectivity = errors.New("connectivity failure")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrNoSession    = errors.New("no active session")
)

// RequestError is a non-2xx response. Message is what the user sees: the
// body's "message" when the backend sent one, otherwise the operation's
// generic reason.
type RequestError struct {
	Op        string
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

func (e *RequestError) MetricClass() string {
	if e.Status >= 500 {
		return "server_error"
	}
	return "client_error"
}

// ConnectivityError means the request never produced a response.
type ConnectivityError struct {
	Op  string
	Err error
}

const connectivityMessage = "Could not reach the marketplace. Check your connection and try again."

func (e *ConnectivityError) Error() string {
	return connectivityMessage
}

func (e *ConnectivityError) Unwrap() []error {
	return []error{ErrConnectivity, e.Err}
}

func (e *ConnectivityError) MetricClass() string { return "connectivity" }

// errorBody covers both the flat {message} shape and the nested
// {error:{code,message}} envelope.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (b errorBody) message() string {
	if b.Message != "" {
		return b.Message
	}
	if b.Error != nil {
		return b.Error.Message
	}
	return ""
}

func (b errorBody) code() string {
	if b.Code != "" {
		return b.Code
	}
	if b.Error != nil {
		return b.Error.Code
	}
	return ""
}
