package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedEnvelope is returned when a response body is valid JSON but
// carries no "success" field. It is deliberately distinct from an explicit
// success=false so callers can tell a broken backend from a rejected action.
var ErrMalformedEnvelope = errors.New("gateway: response envelope missing success field")

// Result is the decoded {success, message, ...} envelope every mutating
// endpoint returns. Extra fields are retained raw so callers can pull the
// state slices they care about (cart_count, cart_total, quantity, ...).
type Result struct {
	OK      bool
	Message string

	extra map[string]json.RawMessage
}

// Field unmarshals the named extra field into the provided value and reports
// whether the field was present and decodable.
func (r Result) Field(name string, into any) bool {
	raw, ok := r.extra[name]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, into) == nil
}

// Has reports whether the envelope carried the named extra field.
func (r Result) Has(name string) bool {
	_, ok := r.extra[name]
	return ok
}

// DecodeEnvelope reads a response body and decodes the envelope. A body
// without a "success" key yields ErrMalformedEnvelope.
func DecodeEnvelope(body io.Reader) (Result, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		return Result{}, fmt.Errorf("gateway: decode envelope: %w", err)
	}
	raw, ok := fields["success"]
	if !ok {
		return Result{}, ErrMalformedEnvelope
	}
	var res Result
	if err := json.Unmarshal(raw, &res.OK); err != nil {
		return Result{}, fmt.Errorf("gateway: decode success flag: %w", err)
	}
	delete(fields, "success")
	if raw, ok := fields["message"]; ok {
		_ = json.Unmarshal(raw, &res.Message)
		res.Message = strings.TrimSpace(res.Message)
		delete(fields, "message")
	}
	if len(fields) > 0 {
		res.extra = fields
	}
	return res, nil
}

// ValidationError reports input rejected client-side; the request was never
// sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("gateway: invalid %s: %s", e.Field, e.Reason)
}
