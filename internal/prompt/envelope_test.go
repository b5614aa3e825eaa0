package prompt_test

import (
	"strings"
	"testing"

	"leadpilot/internal/domain"
	"leadpilot/internal/oracle"
	"leadpilot/internal/prompt"
	"leadpilot/internal/rules"
)

func TestBuildOrderingIsFixed(t *testing.T) {
	segs := prompt.Build(prompt.Input{
		Channel:        "chat",
		UserMessage:    "how much does it cost?",
		BusinessPrompt: "friendly but direct",
		Rules: &rules.CompiledRuleSet{Rules: []rules.Rule{
			{ID: "r1", Action: rules.ActionAnswerFAQ},
		}},
		LeadStatus:     "New",
		HistorySummary: "asked about plans yesterday",
	})

	if len(segs) != 5 {
		t.Fatalf("expected 5 segments, got %d", len(segs))
	}
	if segs[0].Role != oracle.RoleSystem || !strings.Contains(segs[0].Content, "ask_question") {
		t.Fatalf("first segment must be the protocol contract")
	}
	if !strings.Contains(segs[1].Content, "friendly but direct") {
		t.Fatalf("persona must follow the contract")
	}
	if !strings.Contains(segs[2].Content, `"r1"`) {
		t.Fatalf("compiled rules must follow the persona")
	}
	if !strings.Contains(segs[3].Content, "Current lead status: New") {
		t.Fatalf("situation block missing status")
	}
	last := segs[len(segs)-1]
	if last.Role != oracle.RoleUser || last.Content != "how much does it cost?" {
		t.Fatalf("live user message must come last, got %+v", last)
	}
}

func TestBuildSkipsAbsentParts(t *testing.T) {
	segs := prompt.Build(prompt.Input{UserMessage: "hello"})
	if len(segs) != 2 {
		t.Fatalf("expected contract + user only, got %d segments", len(segs))
	}
}

func TestBuildContractListsWholeVocabulary(t *testing.T) {
	segs := prompt.Build(prompt.Input{UserMessage: "hi"})
	for _, a := range rules.Actions() {
		if !strings.Contains(segs[0].Content, a) {
			t.Fatalf("contract missing action %q", a)
		}
	}
}

func TestBuildIncludesCatalogAndFacts(t *testing.T) {
	segs := prompt.Build(prompt.Input{
		UserMessage: "hi",
		Catalog: []domain.StatusCatalogEntry{
			{Label: "New"}, {Label: "Qualified"},
		},
		KnownFacts: []domain.LeadFact{{Key: "budget", Value: "5000"}},
	})
	var situation string
	for _, s := range segs {
		if strings.Contains(s.Content, "Status catalog:") {
			situation = s.Content
		}
	}
	if situation == "" {
		t.Fatalf("no situation segment produced")
	}
	if !strings.Contains(situation, "New, Qualified") || !strings.Contains(situation, "budget: 5000") {
		t.Fatalf("situation incomplete: %s", situation)
	}
}
