// Package prompt assembles the ordered segment list for one decision.
// The ordering is fixed and deterministic: protocol contract first (never
// overridable), then business persona, compiled rules, situational context,
// and the live user message last. Business-authored text can therefore never
// shadow the closed schema, while the live message keeps maximal recency.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"leadpilot/internal/domain"
	"leadpilot/internal/oracle"
	"leadpilot/internal/rules"
)

// Input carries everything known about the turn. Only Channel and
// UserMessage are required; absent parts are skipped, not defaulted.
type Input struct {
	Channel        string
	UserMessage    string
	Rules          *rules.CompiledRuleSet
	KnownFacts     []domain.LeadFact
	LeadStatus     string
	Catalog        []domain.StatusCatalogEntry
	HistorySummary string
	BusinessPrompt string
	Constraints    []string
}

// Build returns the ordered segment list for one oracle invocation.
func Build(in Input) []oracle.Segment {
	segs := []oracle.Segment{{Role: oracle.RoleSystem, Content: protocolContract()}}

	if p := strings.TrimSpace(in.BusinessPrompt); p != "" {
		segs = append(segs, oracle.Segment{Role: oracle.RoleSystem, Content: "Business voice and persona:\n" + p})
	}
	if in.Rules != nil && len(in.Rules.Rules) > 0 {
		payload, _ := json.Marshal(in.Rules.Rules)
		segs = append(segs, oracle.Segment{Role: oracle.RoleSystem, Content: "Compiled business rules (apply in priority order):\n" + string(payload)})
	}
	if ctxSeg := situation(in); ctxSeg != "" {
		segs = append(segs, oracle.Segment{Role: oracle.RoleSystem, Content: ctxSeg})
	}
	segs = append(segs, oracle.Segment{Role: oracle.RoleUser, Content: in.UserMessage})
	return segs
}

func situation(in Input) string {
	var b strings.Builder
	if in.Channel != "" {
		fmt.Fprintf(&b, "Channel: %s\n", in.Channel)
	}
	if in.LeadStatus != "" {
		fmt.Fprintf(&b, "Current lead status: %s\n", in.LeadStatus)
	}
	if len(in.Catalog) > 0 {
		var labels []string
		for _, c := range in.Catalog {
			labels = append(labels, c.Label)
		}
		fmt.Fprintf(&b, "Status catalog: %s\n", strings.Join(labels, ", "))
	}
	if len(in.KnownFacts) > 0 {
		b.WriteString("Known facts:\n")
		for _, f := range in.KnownFacts {
			fmt.Fprintf(&b, "- %s: %s\n", f.Key, f.Value)
		}
	}
	if in.HistorySummary != "" {
		fmt.Fprintf(&b, "Conversation so far: %s\n", in.HistorySummary)
	}
	if len(in.Constraints) > 0 {
		fmt.Fprintf(&b, "Constraints: %s\n", strings.Join(in.Constraints, "; "))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// protocolContract is the non-overridable first segment: the decision schema
// and the closed action vocabulary.
func protocolContract() string {
	return fmt.Sprintf(`You are a sales assistant deciding the next step of one conversation turn.

Output exactly one JSON object:
{
  "action": "one of: %s",
  "confidence": 0.0-1.0,
  "rule_hits": ["ids of rules you applied"],
  "facts": [{"key": "fact key", "value": "fact value", "confidence": 0.0-1.0}],
  "missing_fields": ["fact keys still unknown but needed"],
  "next_question": "the single best question to ask next, if any",
  "reply": "the message to send to the customer",
  "proposed_status": "optional status label from the catalog, if the lead should move"
}

Every field must be present; use empty strings/arrays when not applicable.
The action must come from the listed vocabulary, nothing else.`,
		strings.Join(rules.Actions(), ", "))
}
