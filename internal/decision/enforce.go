package decision

import "leadpilot/internal/rules"

// enforce applies per-status allow/block lists from the compiled rules to the
// gated decision. Enforcement runs after the gate so policy always wins: a
// blocked action is replaced even if the gate already downgraded, and the
// enforcing rule ids are appended to the hit list for the audit trail.
func enforce(d Decision, rs *rules.CompiledRuleSet, statusLabel string) Decision {
	if rs == nil || statusLabel == "" {
		return d
	}

	blocked := map[string]bool{}
	var allowed []string
	allowSeen := map[string]bool{}
	enforcers := map[string]string{} // action constraint origin -> rule id

	for _, r := range rs.RulesForStatus(statusLabel) {
		for _, a := range r.Effects.BlockActions {
			if rules.ValidAction(a) {
				blocked[a] = true
				enforcers[a] = r.ID
			}
		}
		for _, a := range r.Effects.AllowActions {
			if rules.ValidAction(a) && !allowSeen[a] {
				allowSeen[a] = true
				allowed = append(allowed, a)
				if _, ok := enforcers[a]; !ok {
					enforcers[a] = r.ID
				}
			}
		}
	}

	violates := blocked[d.Action] || (len(allowed) > 0 && !allowSeen[d.Action])
	if !violates {
		return d
	}

	replacement := rules.SafeAction
	for _, a := range allowed {
		if !blocked[a] {
			replacement = a
			break
		}
	}

	ruleID := enforcers[d.Action]
	if ruleID == "" {
		ruleID = enforcers[replacement]
	}
	if ruleID != "" && !contains(d.RuleHits, ruleID) {
		d.RuleHits = append(d.RuleHits, ruleID)
	}
	d.Action = replacement
	if d.NextQuestion != "" && replacement == rules.SafeAction {
		d.Reply = d.NextQuestion
	}
	return d
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
