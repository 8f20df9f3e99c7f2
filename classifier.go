package goAccount

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// classifyResponse turns a non-2xx backend response into a ServerError. The
// single place where transport-specific error shapes enter the canonical
// taxonomy: a parsable {"error": ..., "reason": ...} body passes through,
// anything else falls back to {error: <raw body or "unknown">}.
func classifyResponse(resp *Response) error {
	se := &ServerError{Status: resp.Status}

	if err := json.Unmarshal(resp.Body, se); err == nil && se.Name != "" {
		return se
	}

	body := strings.TrimSpace(string(resp.Body))
	if body == "" {
		body = "unknown"
	}
	se.Name = body
	se.Reason = ""
	return se
}

// classifyError handles failures below the HTTP layer. Errors that already
// carry a classified payload pass through unchanged.
func classifyError(err error) error {
	var se *ServerError
	if errors.As(err, &se) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
