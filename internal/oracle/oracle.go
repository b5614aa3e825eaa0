// Package oracle abstracts the external reasoning service. The oracle is
// invoked with an ordered list of role-tagged text segments and is expected
// to return exactly one structured JSON object. It is always treated as
// fallible and latent; callers own the fallback policy.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Segment is one role-tagged block of prompt text. Ordering is significant
// and preserved on the wire.
type Segment struct {
	Role    Role
	Content string
}

// Oracle produces one JSON object from an ordered segment list, or an error.
// Implementations must honor ctx cancellation and must not retry on their
// own; retry budget belongs to the caller.
type Oracle interface {
	Generate(ctx context.Context, segments []Segment) (json.RawMessage, error)
}

// TimeoutError indicates the oracle did not answer within the bounded window.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("oracle timed out after %s", e.Timeout)
}

// TransportError indicates a non-2xx response or a network failure.
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("oracle transport error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("oracle transport error: %s", e.Message)
}

// ParseError indicates the oracle answered but the payload was not the
// expected shape.
type ParseError struct {
	RawResponse string
	Cause       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("oracle response parse error: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }
