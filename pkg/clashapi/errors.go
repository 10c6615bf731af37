package clashapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError is returned when the API answers with a non-2xx status.
type UpstreamError struct {
	Status int
	Body   []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("clash api error: status=%d, body=%s", e.Status, string(e.Body))
}

// Details returns the upstream body as JSON when it parses, otherwise as a string.
// A missing body yields nil.
func (e *UpstreamError) Details() interface{} {
	if len(e.Body) == 0 {
		return nil
	}
	if json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	return string(e.Body)
}

// Reason extracts the "reason" field the API puts on error bodies.
func (e *UpstreamError) Reason() string {
	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		return ""
	}
	return payload.Reason
}

// AsUpstream unwraps err into an *UpstreamError.
func AsUpstream(err error) (*UpstreamError, bool) {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status a proxy should answer with for err.
// Errors that never reached the API map to 500.
func StatusOf(err error) int {
	if upstreamErr, ok := AsUpstream(err); ok {
		return upstreamErr.Status
	}
	return http.StatusInternalServerError
}

// DetailsOf returns the upstream body for err, or nil.
func DetailsOf(err error) interface{} {
	if upstreamErr, ok := AsUpstream(err); ok {
		return upstreamErr.Details()
	}
	return nil
}
