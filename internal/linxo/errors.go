package linxo

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	ErrTransport         = errors.New("linxo transport error")
	ErrRequestFailed     = errors.New("linxo request failed")
	ErrMalformedResponse = errors.New("malformed linxo response")
	ErrMalformedRecord   = errors.New("malformed linxo record")
	ErrAuthRejected      = errors.New("linxo rejected the authorization grant")
	ErrNoToken           = errors.New("session has no bearer token")
)

// TransportError reports a request that never produced an HTTP response:
// DNS, connection, TLS, timeout or context cancellation.
type TransportError struct {
	Err error
	Op  string
	URL string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// RequestFailedError reports a non-2xx response from the API or an auth
// endpoint failure that is not a rejection of the grant.
type RequestFailedError struct {
	Method     string // GET when empty
	Path       string
	Body       string
	StatusCode int
}

func (e *RequestFailedError) Error() string {
	method := e.Method
	if method == "" {
		method = http.MethodGet
	}
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", method, e.Path, e.StatusCode, e.Body)
}

// Is matches ErrRequestFailed.
func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

// MalformedResponseError reports a 2xx body that is not the JSON we expect.
type MalformedResponseError struct {
	Err  error
	Path string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Path, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Is matches ErrMalformedResponse.
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// MalformedRecordError names the field that prevented mapping a record.
type MalformedRecordError struct {
	Err   error
	Kind  string
	Field string
}

func (e *MalformedRecordError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed %s record: field %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("malformed %s record: field %s: %v", e.Kind, e.Field, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// Is matches ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// AuthRejectedError reports that the token endpoint refused a code or refresh token.
type AuthRejectedError struct {
	Err         error
	Grant       string
	Code        string
	Description string
	StatusCode  int
}

func (e *AuthRejectedError) Error() string {
	msg := fmt.Sprintf("%s grant rejected (status %d)", e.Grant, e.StatusCode)
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += " - " + e.Description
	}
	return msg
}

func (e *AuthRejectedError) Unwrap() error {
	return e.Err
}

// Is matches ErrAuthRejected.
func (e *AuthRejectedError) Is(target error) bool {
	return target == ErrAuthRejected
}
