package decision

import "leadpilot/internal/rules"

// gate downgrades high-impact actions below the confidence threshold to the
// safe clarifying action. The downgrade keeps the oracle's confidence and
// rule hits; only the action (and reply, when a next question exists) change.
func gate(d Decision, threshold float64) Decision {
	if !rules.HighImpact(d.Action) || d.Confidence >= threshold {
		return d
	}
	d.Action = rules.SafeAction
	if d.NextQuestion != "" {
		d.Reply = d.NextQuestion
	}
	return d
}
