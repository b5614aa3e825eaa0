// Package rules holds the compiled intermediate representation of a
// business's free-text policy, and the compiler that produces it.
package rules

import "strings"

// Closed action vocabulary. Every rule action and every decision action is
// drawn from this set; anything else is a schema violation.
const (
	ActionAskQuestion     = "ask_question"
	ActionCollectDetails  = "collect_details"
	ActionAnswerFAQ       = "answer_faq"
	ActionScheduleMeeting = "schedule_meeting"
	ActionCloseSale       = "close_sale"
	ActionHandoffHuman    = "handoff_human"
	ActionEndConversation = "end_conversation"
)

// SafeAction is the low-risk clarifying action used by fallbacks and gates.
const SafeAction = ActionAskQuestion

var actionVocabulary = []string{
	ActionAskQuestion,
	ActionCollectDetails,
	ActionAnswerFAQ,
	ActionScheduleMeeting,
	ActionCloseSale,
	ActionHandoffHuman,
	ActionEndConversation,
}

// highImpact actions have external, hard-to-reverse effects and are subject
// to the confidence gate.
var highImpact = map[string]bool{
	ActionScheduleMeeting: true,
	ActionCloseSale:       true,
	ActionHandoffHuman:    true,
}

// Actions returns the closed action vocabulary in canonical order.
func Actions() []string {
	out := make([]string, len(actionVocabulary))
	copy(out, actionVocabulary)
	return out
}

func ValidAction(a string) bool {
	for _, v := range actionVocabulary {
		if v == a {
			return true
		}
	}
	return false
}

func HighImpact(a string) bool { return highImpact[a] }

// Conditions describe when a rule fires: the lead holds one of the listed
// statuses and/or the listed fields are present or missing among known facts.
type Conditions struct {
	StatusIn      []string `json:"status_in,omitempty"`
	FieldsPresent []string `json:"fields_present,omitempty"`
	FieldsMissing []string `json:"fields_missing,omitempty"`
}

// Effects are rule side instructions: per-status allow/block lists and an
// optional status-set instruction.
type Effects struct {
	AllowActions []string `json:"allow_actions,omitempty"`
	BlockActions []string `json:"block_actions,omitempty"`
	SetStatus    string   `json:"set_status,omitempty"`
}

type Rule struct {
	ID       string     `json:"id"`
	Priority int        `json:"priority"`
	When     Conditions `json:"when"`
	Action   string     `json:"action"`
	Effects  Effects    `json:"effects,omitempty"`
}

// CompiledRuleSet is the validated IR produced once from free text and
// executed many times. Owned by the business; versioned, never edited.
type CompiledRuleSet struct {
	Rules          []Rule            `json:"rules"`
	Constraints    []string          `json:"constraints,omitempty"`
	EntitiesSchema map[string]string `json:"entities_schema,omitempty"`
	Version        int               `json:"version"`
	CompiledAt     string            `json:"compiled_at,omitempty"`
	CompileError   string            `json:"compile_error,omitempty"`
}

// StatusReferences lists every status literal referenced in any rule's
// `when` clause or set_status effect, trimmed, case preserved, first
// occurrence order.
func (rs *CompiledRuleSet) StatusReferences() []string {
	seen := map[string]bool{}
	var refs []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		refs = append(refs, s)
	}
	for _, r := range rs.Rules {
		for _, s := range r.When.StatusIn {
			add(s)
		}
		add(r.Effects.SetStatus)
	}
	return refs
}

// RulesForStatus returns rules whose `when.status_in` names the given status
// label (trimmed comparison), ordered as compiled.
func (rs *CompiledRuleSet) RulesForStatus(label string) []Rule {
	label = strings.TrimSpace(label)
	var out []Rule
	for _, r := range rs.Rules {
		for _, s := range r.When.StatusIn {
			if strings.TrimSpace(s) == label {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
