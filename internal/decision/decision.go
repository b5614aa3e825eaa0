// Package decision runs one conversational turn end to end: gather context,
// call the oracle, validate (with at most one repair round-trip), apply the
// confidence gate and status policy, then audit. Decide never returns an
// error to the caller; every failure mode degrades into a safe Decision.
package decision

import "leadpilot/internal/rules"

// Fact is one extracted entity from the turn.
type Fact struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Decision is the total outcome of one turn. All slice fields are non-nil
// after validation so callers never branch on absence.
type Decision struct {
	Action         string   `json:"action"`
	Confidence     float64  `json:"confidence"`
	RuleHits       []string `json:"rule_hits"`
	Facts          []Fact   `json:"facts"`
	MissingFields  []string `json:"missing_fields"`
	NextQuestion   string   `json:"next_question"`
	Reply          string   `json:"reply"`
	ProposedStatus string   `json:"proposed_status,omitempty"`
	Fallback       bool     `json:"fallback"`
	LatencyMS      int64    `json:"latency_ms"`
}

// Fallback returns the degraded decision used when the oracle is unreachable
// or both parse attempts fail: the safe clarifying action at zero confidence.
func Fallback(reply string) Decision {
	return Decision{
		Action:        rules.SafeAction,
		Confidence:    0,
		RuleHits:      []string{},
		Facts:         []Fact{},
		MissingFields: []string{},
		Reply:         reply,
		Fallback:      true,
	}
}
