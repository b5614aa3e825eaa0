package rules_test

import (
	"strings"
	"testing"

	"leadpilot/internal/domain"
	"leadpilot/internal/rules"
)

func catalog(labels ...string) []domain.StatusCatalogEntry {
	var out []domain.StatusCatalogEntry
	for i, l := range labels {
		out = append(out, domain.StatusCatalogEntry{ID: "st-" + l, BusinessID: "biz-1", Label: l, Canonical: strings.ToLower(l), SortOrder: i})
	}
	return out
}

func TestValidateAcceptsWellFormedRuleSet(t *testing.T) {
	rs := &rules.CompiledRuleSet{
		Rules: []rules.Rule{
			{ID: "ask_budget", Priority: 1, When: rules.Conditions{StatusIn: []string{"New"}}, Action: rules.ActionCollectDetails},
			{ID: "close_when_ready", Priority: 2, When: rules.Conditions{StatusIn: []string{"Qualified"}}, Action: rules.ActionCloseSale},
		},
	}
	if err := rules.Validate(rs, catalog("New", "Qualified")); err != nil {
		t.Fatalf("expected valid rule set, got %v", err)
	}
}

func TestValidateRejectsDuplicateAndEmptyIDs(t *testing.T) {
	rs := &rules.CompiledRuleSet{
		Rules: []rules.Rule{
			{ID: "a", Action: rules.ActionAskQuestion},
			{ID: "a", Action: rules.ActionAskQuestion},
		},
	}
	err := rules.Validate(rs, catalog("New"))
	if err == nil || err.Code != rules.CodeSchemaViolation {
		t.Fatalf("expected schema violation for duplicate ids, got %v", err)
	}

	rs = &rules.CompiledRuleSet{Rules: []rules.Rule{{ID: "", Action: rules.ActionAskQuestion}}}
	err = rules.Validate(rs, catalog("New"))
	if err == nil || err.Code != rules.CodeSchemaViolation {
		t.Fatalf("expected schema violation for empty id, got %v", err)
	}
}

func TestValidateRejectsUnknownAction(t *testing.T) {
	rs := &rules.CompiledRuleSet{Rules: []rules.Rule{{ID: "r1", Action: "launch_rocket"}}}
	err := rules.Validate(rs, catalog("New"))
	if err == nil || err.Code != rules.CodeSchemaViolation {
		t.Fatalf("expected schema violation, got %v", err)
	}
	if !strings.Contains(err.Message, "launch_rocket") {
		t.Fatalf("message should name the bad action: %s", err.Message)
	}
}

func TestValidateUnknownStatusListsCatalog(t *testing.T) {
	rs := &rules.CompiledRuleSet{
		Rules: []rules.Rule{
			{ID: "r1", When: rules.Conditions{StatusIn: []string{"Ghosted"}}, Action: rules.ActionAskQuestion},
		},
	}
	err := rules.Validate(rs, catalog("New", "Qualified", "Won"))
	if err == nil || err.Code != rules.CodeUnknownStatusReference {
		t.Fatalf("expected unknown status reference, got %v", err)
	}
	for _, want := range []string{"Ghosted", "New", "Qualified", "Won"} {
		if !strings.Contains(err.Message, want) {
			t.Fatalf("message should mention %q: %s", want, err.Message)
		}
	}
}

func TestValidateChecksSetStatusEffect(t *testing.T) {
	rs := &rules.CompiledRuleSet{
		Rules: []rules.Rule{
			{ID: "r1", When: rules.Conditions{StatusIn: []string{"New"}}, Action: rules.ActionCollectDetails,
				Effects: rules.Effects{SetStatus: "Nowhere"}},
		},
	}
	err := rules.Validate(rs, catalog("New"))
	if err == nil || err.Code != rules.CodeUnknownStatusReference {
		t.Fatalf("expected unknown status reference for set_status, got %v", err)
	}
}

func TestStatusReferencesDedupesAndPreservesOrder(t *testing.T) {
	rs := &rules.CompiledRuleSet{
		Rules: []rules.Rule{
			{ID: "a", When: rules.Conditions{StatusIn: []string{" New ", "Qualified"}}},
			{ID: "b", When: rules.Conditions{StatusIn: []string{"New"}}, Effects: rules.Effects{SetStatus: "Won"}},
		},
	}
	got := rs.StatusReferences()
	want := []string{"New", "Qualified", "Won"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
