package decision

import (
	"encoding/json"
	"fmt"

	"leadpilot/internal/rules"
)

// parse decodes raw oracle output into a Decision, strictly enough to decide
// whether a repair round-trip is warranted. Returns an error describing the
// first violation; normalization of soft defects happens in normalize.
func parse(raw json.RawMessage) (Decision, error) {
	var d Decision
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("not a decision object: %w", err)
	}
	if d.Action == "" {
		return d, fmt.Errorf("missing action")
	}
	if !rules.ValidAction(d.Action) {
		return d, fmt.Errorf("action %q is outside the allowed vocabulary", d.Action)
	}
	return d, nil
}

// normalize makes a parsed decision total: nil slices become empty and
// confidence is coerced into [0,1]. A confidence of exactly zero from the
// oracle is read as "not stated" and given a neutral 0.5; the fallback path
// sets zero deliberately and does not pass through here.
func normalize(d Decision) Decision {
	if d.RuleHits == nil {
		d.RuleHits = []string{}
	}
	if d.Facts == nil {
		d.Facts = []Fact{}
	}
	if d.MissingFields == nil {
		d.MissingFields = []string{}
	}
	switch {
	case d.Confidence == 0:
		d.Confidence = 0.5
	case d.Confidence < 0:
		d.Confidence = 0
	case d.Confidence > 1:
		d.Confidence = 1
	}
	return d
}
