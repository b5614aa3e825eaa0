// Package status applies status recommendations embedded in assistant
// replies: extract the bracketed marker, resolve it against the business
// catalog, and apply exactly once per source event through the idempotency
// ledger.
package status

import (
	"regexp"
	"strings"
)

var markerRe = regexp.MustCompile(`\[([^\[\]]+)\]`)

// Extract returns the first bracketed status marker in the reply text, with
// inner whitespace collapsed. The second return is false when the reply
// carries no recommendation, which is the common case.
func Extract(reply string) (string, bool) {
	m := markerRe.FindStringSubmatch(reply)
	if m == nil {
		return "", false
	}
	label := strings.Join(strings.Fields(m[1]), " ")
	if label == "" {
		return "", false
	}
	return label, true
}
